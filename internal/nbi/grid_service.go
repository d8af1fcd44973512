// internal/nbi/grid_service.go
package nbi

import (
	"bytes"
	"context"
	"fmt"
	"time"

	core "github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/nbi/types"
	sim "github.com/signalsfoundry/cablegrid/internal/sim/state"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GridService implements GridServiceServer backed by a GridState instance.
type GridService struct {
	state *sim.GridState
	log   logging.Logger
}

var _ GridServiceServer = (*GridService)(nil)

// NewGridService constructs a GridService bound to state.
func NewGridService(state *sim.GridState, log logging.Logger) *GridService {
	if log == nil {
		log = logging.Noop()
	}
	return &GridService{
		state: state,
		log:   log,
	}
}

//
// ---------- Connection points ----------
//

// CreateConnectionPoint registers a free-standing connection point.
func (s *GridService) CreateConnectionPoint(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	position, err := requireVec(in, "position", ErrInvalidPoint)
	if err != nil {
		return nil, ToStatusError(err)
	}
	offset, err := optionalVec(in, "offset", ErrInvalidPoint)
	if err != nil {
		return nil, ToStatusError(err)
	}
	slot, err := optionalInt(in, "slot", ErrInvalidPoint)
	if err != nil {
		return nil, ToStatusError(err)
	}

	id := s.state.CreateConnectionPoint(position, offset, slot)
	return idResponse(id), nil
}

// RemoveConnectionPoint deletes a point with its cables and their sparks.
func (s *GridService) RemoveConnectionPoint(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidPoint)
	if err != nil {
		return nil, ToStatusError(err)
	}

	res, err := s.state.RemoveConnectionPoint(ctx, id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return removalResponse(res), nil
}

//
// ---------- Cables ----------
//

// SpawnCable creates an un-generated cable between two points.
func (s *GridService) SpawnCable(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	startID, err := requireID(in, "start_id", ErrInvalidCable)
	if err != nil {
		return nil, ToStatusError(err)
	}
	endID, err := requireID(in, "end_id", ErrInvalidCable)
	if err != nil {
		return nil, ToStatusError(err)
	}
	hang, err := optionalNumber(in, "hang", ErrInvalidCable)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := ValidateHang(hang); err != nil {
		return nil, ToStatusError(err)
	}

	id, err := s.state.SpawnCable(ctx, startID, endID, hang)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return idResponse(id), nil
}

// GenerateCable generates a cable now and returns its samples.
func (s *GridService) GenerateCable(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidCable)
	if err != nil {
		return nil, ToStatusError(err)
	}

	if err := s.state.GenerateCable(ctx, id); err != nil {
		return nil, ToStatusError(err)
	}
	return s.geometry(id)
}

// GeneratedGeometry returns a generated cable's samples.
func (s *GridService) GeneratedGeometry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidCable)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return s.geometry(id)
}

// GetCable returns a cable's parameters and, once generated, its samples.
func (s *GridService) GetCable(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidCable)
	if err != nil {
		return nil, ToStatusError(err)
	}

	cable := s.state.Grid().GetCable(id)
	if cable == nil {
		return nil, ToStatusError(fmt.Errorf("%w: %q", sim.ErrCableNotFound, id))
	}
	return types.CableToStruct(cable), nil
}

//
// ---------- Sparks ----------
//

// CreateSpark places a spark at the start of a cable.
func (s *GridService) CreateSpark(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	cableID, err := requireID(in, "cable_id", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	speed, err := optionalNumber(in, "speed", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	direction, err := optionalInt(in, "direction", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if direction != nil {
		if err := ValidateDirection(*direction); err != nil {
			return nil, ToStatusError(err)
		}
	}

	id, err := s.state.CreateSpark(cableID, speed)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if direction != nil {
		if err := s.state.SetSparkDirection(id, *direction); err != nil {
			return nil, ToStatusError(err)
		}
	}
	return idResponse(id), nil
}

// RemoveSpark destroys a spark.
func (s *GridService) RemoveSpark(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.state.RemoveSpark(id); err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{}, nil
}

// AdvanceSpark moves a spark by delta normalized cable lengths. A failed
// step leaves the spark at its last good state.
func (s *GridService) AdvanceSpark(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	delta, err := requireNumber(in, "delta", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}

	pos, err := s.state.AdvanceSpark(ctx, id, delta)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return types.SparkPositionToStruct(pos), nil
}

// SetSparkDirection sets the drive input used by ticks.
func (s *GridService) SetSparkDirection(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	direction, err := optionalInt(in, "direction", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if direction == nil {
		return nil, status.Error(codes.InvalidArgument, "direction is required")
	}
	if err := ValidateDirection(*direction); err != nil {
		return nil, ToStatusError(err)
	}

	if err := s.state.SetSparkDirection(id, *direction); err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{}, nil
}

// SparkWorldPosition resolves a spark's current position.
func (s *GridService) SparkWorldPosition(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidSpark)
	if err != nil {
		return nil, ToStatusError(err)
	}

	pos, err := s.state.SparkWorldPosition(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return types.SparkPositionToStruct(pos), nil
}

//
// ---------- Structures ----------
//

// CreateTower instances a tower template. Heading defaults to +X.
func (s *GridService) CreateTower(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	tmplValue, ok := in.GetFields()["template"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "template is required")
	}
	tmpl, err := types.TemplateFromValue(tmplValue)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: %v", ErrInvalidTower, err))
	}
	position, err := requireVec(in, "position", ErrInvalidTower)
	if err != nil {
		return nil, ToStatusError(err)
	}
	heading, err := optionalVec(in, "heading", ErrInvalidTower)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if heading.Horizontal().Norm() == 0 {
		heading = core.Vec3{X: 1}
	}
	prev, err := optionalString(in, "prev", ErrInvalidTower)
	if err != nil {
		return nil, ToStatusError(err)
	}

	id, err := s.state.CreateTower(ctx, tmpl, position, heading.Horizontal().Normalize(), prev)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return types.StructureToStruct(s.state.Structures().GetStructure(id)), nil
}

// InstanceReady signals that a structure is ready and returns the cables
// auto-wiring created.
func (s *GridService) InstanceReady(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidTower)
	if err != nil {
		return nil, ToStatusError(err)
	}

	matches, err := s.state.InstanceReady(ctx, id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":     structpb.NewStringValue(id),
		"cables": types.WireMatchesToValue(matches),
	}}, nil
}

// RemoveStructure removes a structure and cascades to its points, cables
// and sparks.
func (s *GridService) RemoveStructure(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireID(in, "id", ErrInvalidTower)
	if err != nil {
		return nil, ToStatusError(err)
	}

	ctx, span := StartChildSpan(ctx, "GridService.RemoveStructure", "structure", id)
	defer span.End()

	res, err := s.state.RemoveStructure(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, ToStatusError(err)
	}
	span.SetAttributes(
		attribute.Int("cables_removed", len(res.CableIDs)),
		attribute.Int("sparks_removed", len(res.SparkIDs)),
	)
	return removalResponse(res), nil
}

//
// ---------- Scenario ----------
//

// LoadScenario replaces all state with the scenario carried in the
// "scenario" field, written in the scenario file format.
func (s *GridService) LoadScenario(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	payload := in.GetFields()["scenario"].GetStructValue()
	if payload == nil {
		return nil, status.Error(codes.InvalidArgument, "scenario is required")
	}

	ctx, span := StartChildSpan(ctx, "GridService.LoadScenario", "scenario", "")
	defer span.End()

	raw, err := types.StructToJSON(payload)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: %v", ErrInvalidScenario, err))
	}
	sc, err := core.LoadScenario(bytes.NewReader(raw))
	if err != nil {
		span.RecordError(err)
		return nil, ToStatusError(fmt.Errorf("%w: %w", ErrInvalidScenario, err))
	}

	if err := s.state.ClearScenario(ctx); err != nil {
		return nil, ToStatusError(err)
	}
	sparkIDs, err := s.state.ApplyScenario(ctx, sc)
	if err != nil {
		span.RecordError(err)
		return nil, ToStatusError(err)
	}

	structures := s.state.Structures().ListStructures()
	ids := make([]string, 0, len(structures))
	for _, st := range structures {
		ids = append(ids, st.ID)
	}
	span.SetAttributes(
		attribute.Int("towers", len(ids)),
		attribute.Int("sparks", len(sparkIDs)),
	)
	s.requestLogger(ctx).Info(ctx, "scenario loaded over NBI",
		logging.Int("towers", len(ids)),
		logging.Int("sparks", len(sparkIDs)),
	)

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"structure_ids": types.StringList(ids),
		"spark_ids":     types.StringList(sparkIDs),
	}}, nil
}

// ClearScenario wipes all state.
func (s *GridService) ClearScenario(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.state.ClearScenario(ctx); err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{}, nil
}

// GetSnapshot returns every structure, point, cable and spark.
func (s *GridService) GetSnapshot(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	snap := s.state.Snapshot()

	list := func(items []*structpb.Struct) *structpb.Value {
		values := make([]*structpb.Value, 0, len(items))
		for _, item := range items {
			values = append(values, structpb.NewStructValue(item))
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values})
	}

	structures := make([]*structpb.Struct, 0, len(snap.Structures))
	for _, st := range snap.Structures {
		structures = append(structures, types.StructureToStruct(st))
	}
	points := make([]*structpb.Struct, 0, len(snap.Points))
	for i := range snap.Points {
		points = append(points, types.ConnectionPointToStruct(&snap.Points[i]))
	}
	cables := make([]*structpb.Struct, 0, len(snap.Cables))
	for _, c := range snap.Cables {
		cables = append(cables, types.CableToStruct(c))
	}
	sparks := make([]*structpb.Struct, 0, len(snap.Sparks))
	for _, sp := range snap.Sparks {
		sparks = append(sparks, types.SparkToStruct(sp))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"structures": list(structures),
		"points":     list(points),
		"cables":     list(cables),
		"sparks":     list(sparks),
	}}, nil
}

// Tick runs one simulation tick of dt_seconds (default 0): pending cables are
// generated and driven sparks stepped.
func (s *GridService) Tick(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	dt, err := optionalNumber(in, "dt_seconds", ErrInvalidEntity)
	if err != nil {
		return nil, ToStatusError(err)
	}
	seconds := 0.0
	if dt != nil {
		if *dt < 0 {
			return nil, status.Error(codes.InvalidArgument, "dt_seconds must be non-negative")
		}
		seconds = *dt
	}

	res := s.state.Tick(ctx, time.Duration(seconds*float64(time.Second)))

	generated, failed := 0, 0
	for _, g := range res.Generations {
		if g.Err == nil {
			generated++
		}
	}
	for _, st := range res.Steps {
		if st.Err != nil {
			failed++
		}
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"cables_generated":  structpb.NewNumberValue(float64(generated)),
		"generation_errors": structpb.NewNumberValue(float64(len(res.Generations) - generated)),
		"sparks_stepped":    structpb.NewNumberValue(float64(len(res.Steps))),
		"traversal_errors":  structpb.NewNumberValue(float64(failed)),
	}}, nil
}

//
// ---------- Helpers ----------
//

func (s *GridService) geometry(id string) (*structpb.Struct, error) {
	points, err := s.state.GeneratedGeometry(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":     structpb.NewStringValue(id),
		"points": types.PointsToValue(points),
	}}, nil
}

func (s *GridService) requestLogger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

func (s *GridService) ensureReady() error {
	if s == nil || s.state == nil {
		return status.Error(codes.FailedPrecondition, "grid state is not configured")
	}
	return nil
}

func idResponse(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(id),
	}}
}

func removalResponse(res sim.RemovalResult) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"removed_points": types.StringList(res.PointIDs),
		"removed_cables": types.StringList(res.CableIDs),
		"removed_sparks": types.StringList(res.SparkIDs),
	}}
}
