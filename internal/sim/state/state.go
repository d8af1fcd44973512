// internal/sim/state/state.go
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/kb"
	"github.com/signalsfoundry/cablegrid/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Re-export sentinel errors so callers can depend on state.* instead of
// core.* or kb.* directly if they want to.
var (
	// ErrUnresolvedEndpoint indicates a cable endpoint could not be resolved
	// at generation time.
	ErrUnresolvedEndpoint = core.ErrUnresolvedEndpoint
	// ErrDegenerateCurve indicates the curve solver had no defined position.
	ErrDegenerateCurve = core.ErrDegenerateCurve
	// ErrTraversalCycle indicates a spark step exceeded its hop bound.
	ErrTraversalCycle = core.ErrTraversalCycle
	// ErrPointNotFound indicates a requested connection point was not found.
	ErrPointNotFound = core.ErrPointNotFound
	// ErrCableNotFound indicates a requested cable was not found.
	ErrCableNotFound = core.ErrCableNotFound
	// ErrCableNotGenerated indicates a cable has no geometry yet.
	ErrCableNotGenerated = core.ErrCableNotGenerated
	// ErrSparkNotFound indicates a requested spark was not found.
	ErrSparkNotFound = core.ErrSparkNotFound
	// ErrInvalidCable indicates cable parameters failed validation.
	ErrInvalidCable = core.ErrInvalidCable
	// ErrInvalidDelta indicates a non-finite traversal delta or speed.
	ErrInvalidDelta = core.ErrInvalidDelta
	// ErrStructureNotFound indicates a requested structure was not found.
	ErrStructureNotFound = kb.ErrStructureNotFound
	// ErrStructureExists indicates a structure ID is already taken.
	ErrStructureExists = kb.ErrStructureExists
	// ErrStructureChained indicates a predecessor already has a successor.
	ErrStructureChained = kb.ErrStructureChained
	// ErrDegenerateHeading indicates two consecutive towers share a planar
	// position.
	ErrDegenerateHeading = core.ErrDegenerateHeading
	// ErrScenarioInvalid indicates a scenario could not be applied.
	ErrScenarioInvalid = errors.New("invalid scenario")
)

const tracerName = "github.com/signalsfoundry/cablegrid/internal/sim/state"

// GridState coordinates the structure knowledge base, the cable grid and the
// spark engine.
type GridState struct {
	// mu is the coarse state-level lock. Take this before touching the KB,
	// grid or spark engine to keep the lock ordering GridState -> component
	// locks. Compound mutations (tower instancing, cascade removal) take it
	// exclusively so a tick never observes them half done.
	mu sync.RWMutex

	structures *kb.KnowledgeBase
	grid       *core.Grid
	sparks     *core.SparkEngine

	hang       float64
	segments   int
	sparkSpeed float64

	// log is an optional structured logger for state-level events.
	log logging.Logger

	// metrics is an optional recorder for Prometheus-friendly gauges.
	metrics GridMetricsRecorder

	tracer trace.Tracer
}

// GridMetricsRecorder receives count updates and traversal outcomes.
type GridMetricsRecorder interface {
	SetGridCounts(points, cables, generated, sparks, structures int)
	RecordGeneration(ok bool)
	RecordTraversal(hops int)
	RecordTraversalError(kind string)
}

// GridStateOption customises GridState construction.
type GridStateOption func(*GridState)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m GridMetricsRecorder) GridStateOption {
	return func(s *GridState) {
		s.metrics = m
	}
}

// WithCableDefaults overrides the hang and segment count used when a cable
// is spawned without them. Invalid values are ignored.
func WithCableDefaults(hang float64, segments int) GridStateOption {
	return func(s *GridState) {
		if hang >= 0 {
			s.hang = hang
		}
		if segments > 0 {
			s.segments = segments
		}
	}
}

// WithSparkSpeed sets the speed given to sparks created without one.
func WithSparkSpeed(speed float64) GridStateOption {
	return func(s *GridState) {
		s.sparkSpeed = speed
	}
}

// WithTracer overrides the tracer used for tick and generation spans.
func WithTracer(t trace.Tracer) GridStateOption {
	return func(s *GridState) {
		if t != nil {
			s.tracer = t
		}
	}
}

// GridSnapshot captures a consistent view of all in-memory state.
type GridSnapshot struct {
	Structures []*model.Structure
	Points     []core.ConnectionPoint
	Cables     []*core.Cable
	Sparks     []core.Spark
}

// TickResult reports what a single tick did.
type TickResult struct {
	Generations []core.GenerationResult
	Steps       []core.StepResult
}

// RemovalResult lists everything a cascade removal took with it.
type RemovalResult struct {
	PointIDs []string
	CableIDs []string
	SparkIDs []string
}

// NewGridState wires together the structure KB and the grid. Nil components
// are created empty.
func NewGridState(structures *kb.KnowledgeBase, grid *core.Grid, log logging.Logger, opts ...GridStateOption) *GridState {
	if log == nil {
		log = logging.Noop()
	}
	if structures == nil {
		structures = kb.NewKnowledgeBase()
	}
	if grid == nil {
		grid = core.NewGrid()
	}
	state := &GridState{
		structures: structures,
		grid:       grid,
		sparks:     core.NewSparkEngine(grid),
		hang:       core.DefaultHang,
		segments:   core.DefaultSegments,
		sparkSpeed: 0.5,
		log:        log,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(state)
		}
	}
	state.updateMetricsLocked()
	return state
}

// Structures exposes the structure knowledge base.
func (s *GridState) Structures() *kb.KnowledgeBase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structures
}

// Grid exposes the cable grid.
func (s *GridState) Grid() *core.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

// Sparks exposes the spark engine.
func (s *GridState) Sparks() *core.SparkEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sparks
}

// Snapshot returns a coherent view of the current grid state.
func (s *GridState) Snapshot() *GridSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &GridSnapshot{
		Structures: s.structures.ListStructures(),
		Points:     s.grid.ListConnectionPoints(),
		Cables:     s.grid.ListCables(),
		Sparks:     s.sparks.ListSparks(),
	}
}

//
// ---------- Connection points and cables ----------
//

// CreateConnectionPoint registers a free-standing connection point.
func (s *GridState) CreateConnectionPoint(origin, offset core.Vec3, slot *int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.grid.CreateConnectionPoint(origin, offset, slot)
	s.updateMetricsLocked()
	return id
}

// RemoveConnectionPoint removes a point, every cable touching it and every
// spark riding one of those cables.
func (s *GridState) RemoveConnectionPoint(ctx context.Context, id string) (RemovalResult, error) {
	ctx, reqLog := logging.WithRequestLogger(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	point := s.grid.GetConnectionPoint(id)
	res, err := s.removePointsLocked([]string{id})
	if err != nil {
		return RemovalResult{}, err
	}
	if point != nil && point.StructureID != "" {
		s.detachPointLocked(ctx, reqLog, point.StructureID, id)
	}
	s.updateMetricsLocked()

	reqLog.Debug(ctx, "connection point removed",
		logging.String("point_id", id),
		logging.Int("cables_removed", len(res.CableIDs)),
		logging.Int("sparks_removed", len(res.SparkIDs)),
	)
	return res, nil
}

// SpawnCable creates an un-generated cable from start to end. A nil hang
// uses the configured default. The cable is generated on the next tick or by
// GenerateCable.
func (s *GridState) SpawnCable(ctx context.Context, startID, endID string, hang *float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.hang
	if hang != nil {
		h = *hang
	}

	id, err := s.grid.CreateCable(startID, endID, h, s.segments)
	if err != nil {
		return "", err
	}
	s.updateMetricsLocked()

	s.log.Debug(ctx, "cable created",
		logging.String("cable_id", id),
		logging.String("start_point_id", startID),
		logging.String("end_point_id", endID),
		logging.Float("hang", h),
		logging.Int("segments", s.segments),
	)
	return id, nil
}

// GenerateCable generates a single cable now. Already generated cables are
// left untouched.
func (s *GridState) GenerateCable(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, span := s.tracer.Start(ctx, "GridState.GenerateCable", trace.WithAttributes(attribute.String("cable_id", id)))
	defer span.End()

	err := s.generateLocked(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.updateMetricsLocked()
	return err
}

// GeneratedGeometry returns a cable's cached samples.
func (s *GridState) GeneratedGeometry(id string) ([]core.Vec3, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.GeneratedGeometry(id)
}

//
// ---------- Sparks ----------
//

// CreateSpark places a spark at the start of cableID. A nil speed uses the
// configured default.
func (s *GridState) CreateSpark(cableID string, speed *float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.sparkSpeed
	if speed != nil {
		v = *speed
	}

	id, err := s.sparks.CreateSpark(cableID, v)
	if err != nil {
		return "", err
	}
	s.updateMetricsLocked()
	return id, nil
}

// RemoveSpark destroys a spark.
func (s *GridState) RemoveSpark(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sparks.RemoveSpark(id); err != nil {
		return err
	}
	s.updateMetricsLocked()
	return nil
}

// AdvanceSpark moves a spark by delta normalized cable lengths. On error the
// spark keeps its last good state, which is returned with the error.
func (s *GridState) AdvanceSpark(ctx context.Context, id string, delta float64) (core.SparkPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, err := s.sparks.Advance(id, delta)
	s.recordStep(ctx, pos, err)
	return pos, err
}

// SetSparkDirection sets a spark's drive input used by Tick.
func (s *GridState) SetSparkDirection(id string, direction int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sparks.SetDirection(id, direction)
}

// SparkWorldPosition resolves a spark's current world position.
func (s *GridState) SparkWorldPosition(id string) (core.SparkPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sparks.WorldPosition(id)
}

//
// ---------- Structures ----------
//

// CreateTower instances tmpl at position facing heading, chained after prev
// when prev is non-empty. It returns the new structure's ID.
func (s *GridState) CreateTower(ctx context.Context, tmpl model.TowerTemplate, position, heading core.Vec3, prev string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.createTowerLocked(tmpl, position, heading, prev)
	if err != nil {
		return "", err
	}
	s.updateMetricsLocked()
	s.log.Debug(ctx, "tower created",
		logging.String("structure_id", id),
		logging.String("template", tmpl.Name),
		logging.String("prev", prev),
	)
	return id, nil
}

// SpawnTowerLine instances one tower per position, each facing the next and
// chained after its predecessor. Towers are not wired until InstanceReady.
func (s *GridState) SpawnTowerLine(ctx context.Context, tmpl model.TowerTemplate, positions []core.Vec3) ([]string, error) {
	headings, err := core.TowerHeadings(positions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScenarioInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(positions))
	prev := ""
	for i, pos := range positions {
		id, err := s.createTowerLocked(tmpl, pos, headings[i], prev)
		if err != nil {
			s.updateMetricsLocked()
			return ids, err
		}
		ids = append(ids, id)
		prev = id
	}
	s.updateMetricsLocked()

	s.log.Debug(ctx, "tower line spawned",
		logging.String("template", tmpl.Name),
		logging.Int("towers", len(ids)),
	)
	return ids, nil
}

// InstanceReady marks a structure ready and auto-wires it with its ready
// neighbours: predecessor -> this, and this -> successor.
func (s *GridState) InstanceReady(ctx context.Context, structureID string) ([]core.WireMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.structures.MarkReady(structureID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}

	this := s.structures.GetStructure(structureID)
	var wired []core.WireMatch

	if this.Prev != "" {
		if prev := s.structures.GetStructure(this.Prev); prev != nil && prev.Ready {
			matches, err := s.autoWireLocked(ctx, prev, this)
			if err != nil {
				return wired, err
			}
			wired = append(wired, matches...)
		}
	}
	if next := s.structures.Successor(structureID); next != nil && next.Ready {
		matches, err := s.autoWireLocked(ctx, this, next)
		if err != nil {
			return wired, err
		}
		wired = append(wired, matches...)
	}

	s.updateMetricsLocked()
	return wired, nil
}

// RemoveStructure removes a structure, its connection points, every cable
// touching them and every spark riding those cables.
func (s *GridState) RemoveStructure(ctx context.Context, id string) (RemovalResult, error) {
	ctx, reqLog := logging.WithRequestLogger(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.structures.DeleteStructure(id)
	if err != nil {
		return RemovalResult{}, err
	}
	res, err := s.removePointsLocked(removed.ConnectionPointIDs)
	s.updateMetricsLocked()
	if err != nil {
		return res, err
	}

	reqLog.Info(ctx, "structure removed",
		logging.String("structure_id", id),
		logging.Int("points_removed", len(res.PointIDs)),
		logging.Int("cables_removed", len(res.CableIDs)),
		logging.Int("sparks_removed", len(res.SparkIDs)),
	)
	return res, nil
}

//
// ---------- Simulation loop ----------
//

// Tick generates every pending cable, then steps every driven spark by dt.
// Failures are reported per cable and per spark and never abort the tick.
func (s *GridState) Tick(ctx context.Context, dt time.Duration) TickResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, span := s.tracer.Start(ctx, "GridState.Tick", trace.WithAttributes(attribute.Int64("dt_ms", dt.Milliseconds())))
	defer span.End()

	var res TickResult
	for _, id := range s.grid.PendingCables() {
		res.Generations = append(res.Generations, core.GenerationResult{CableID: id, Err: s.generateLocked(ctx, id)})
	}

	res.Steps = s.sparks.StepAll(dt.Seconds())
	failures := 0
	for _, step := range res.Steps {
		s.recordStep(ctx, step.SparkPosition, step.Err)
		if step.Err != nil {
			failures++
		}
	}

	span.SetAttributes(
		attribute.Int("cables_generated", len(res.Generations)),
		attribute.Int("sparks_stepped", len(res.Steps)),
		attribute.Int("traversal_errors", failures),
	)
	s.updateMetricsLocked()
	return res
}

// ApplyScenario instances the scenario's tower line, signals readiness in
// order, generates the resulting cables and places the scenario's sparks.
// The scenario's hang and segment count become the state's cable defaults.
func (s *GridState) ApplyScenario(ctx context.Context, sc *core.Scenario) ([]string, error) {
	if sc == nil {
		return nil, fmt.Errorf("%w: nil scenario", ErrScenarioInvalid)
	}

	s.mu.Lock()
	WithCableDefaults(sc.Hang, sc.Segments)(s)
	s.mu.Unlock()

	towers, err := s.SpawnTowerLine(ctx, sc.Template, sc.Towers)
	if err != nil {
		return nil, err
	}
	for _, id := range towers {
		if _, err := s.InstanceReady(ctx, id); err != nil {
			return nil, err
		}
	}
	s.Tick(ctx, 0)

	sparkIDs := make([]string, 0, len(sc.Sparks))
	for i, placement := range sc.Sparks {
		cableID, err := s.spanCable(towers, placement.Span, placement.Slot)
		if err != nil {
			return sparkIDs, fmt.Errorf("spark %d: %w", i, err)
		}
		speed := placement.Speed
		id, err := s.CreateSpark(cableID, &speed)
		if err != nil {
			return sparkIDs, fmt.Errorf("spark %d: %w", i, err)
		}
		if err := s.SetSparkDirection(id, placement.Direction); err != nil {
			return sparkIDs, err
		}
		sparkIDs = append(sparkIDs, id)
	}

	s.log.Info(ctx, "scenario applied",
		logging.Int("towers", len(towers)),
		logging.Int("sparks", len(sparkIDs)),
		logging.Float("hang", sc.Hang),
		logging.Int("segments", sc.Segments),
	)
	return sparkIDs, nil
}

// ClearScenario wipes all in-memory state so a fresh scenario can be loaded
// without dangling references. Subscribers of the previous grid and KB are
// dropped with them.
func (s *GridState) ClearScenario(ctx context.Context) error {
	ctx, reqLog := logging.WithRequestLogger(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := s.grid.Counts()
	reqLog.Debug(ctx, "clearing scenario",
		logging.String("operation", "clear"),
		logging.Int("structures", s.structures.Count()),
		logging.Int("points", counts.Points),
		logging.Int("cables", counts.Cables),
		logging.Int("sparks", s.sparks.Count()),
	)

	s.structures = kb.NewKnowledgeBase()
	s.grid = core.NewGrid()
	s.sparks = core.NewSparkEngine(s.grid)
	s.updateMetricsLocked()
	return nil
}

//
// ---------- Helpers ----------
//

func (s *GridState) createTowerLocked(tmpl model.TowerTemplate, position, heading core.Vec3, prev string) (string, error) {
	id, err := s.structures.AddStructure(&model.Structure{
		Name:     tmpl.Name,
		Kind:     model.StructureKindTower,
		Position: position.Position(),
		Heading:  heading.Position(),
		Prev:     prev,
	})
	if err != nil {
		return "", err
	}

	points := core.InstanceConnectors(tmpl, id, position, heading)
	pointIDs := make([]string, 0, len(points))
	for i := range points {
		if err := s.grid.AddConnectionPoint(&points[i]); err != nil {
			s.rollbackTowerLocked(id, pointIDs)
			return "", err
		}
		pointIDs = append(pointIDs, points[i].ID)
	}
	if err := s.structures.SetConnectionPoints(id, pointIDs); err != nil {
		s.rollbackTowerLocked(id, pointIDs)
		return "", err
	}
	return id, nil
}

// rollbackTowerLocked undoes a partially created tower, including its chain
// link to the predecessor.
func (s *GridState) rollbackTowerLocked(id string, pointIDs []string) {
	for _, pid := range pointIDs {
		_, _ = s.grid.DeleteConnectionPoint(pid)
	}
	_, _ = s.structures.DeleteStructure(id)
}

func (s *GridState) autoWireLocked(ctx context.Context, from, to *model.Structure) ([]core.WireMatch, error) {
	matches, err := s.grid.AutoWire(from.ConnectionPointIDs, to.ConnectionPointIDs, s.hang, s.segments)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		s.log.Debug(ctx, "empty auto-wire set",
			logging.String("from_structure", from.ID),
			logging.String("to_structure", to.ID),
		)
		return nil, nil
	}
	s.log.Debug(ctx, "structures auto-wired",
		logging.String("from_structure", from.ID),
		logging.String("to_structure", to.ID),
		logging.Int("cables", len(matches)),
	)
	return matches, nil
}

// removePointsLocked deletes points with their cables and orphaned sparks.
// Unknown points are skipped unless none of ids exists.
func (s *GridState) removePointsLocked(ids []string) (RemovalResult, error) {
	var res RemovalResult
	var firstErr error
	for _, id := range ids {
		cables, err := s.grid.DeleteConnectionPoint(id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		res.PointIDs = append(res.PointIDs, id)
		res.CableIDs = append(res.CableIDs, cables...)
	}
	res.SparkIDs = s.sparks.RemoveSparksOn(res.CableIDs)
	if len(res.PointIDs) == 0 && firstErr != nil {
		return res, firstErr
	}
	return res, nil
}

func (s *GridState) detachPointLocked(ctx context.Context, log logging.Logger, structureID, pointID string) {
	st := s.structures.GetStructure(structureID)
	if st == nil {
		log.Warn(ctx, "removed point references unknown structure",
			logging.String("structure_id", structureID),
			logging.String("point_id", pointID),
		)
		return
	}
	kept := st.ConnectionPointIDs[:0]
	for _, id := range st.ConnectionPointIDs {
		if id != pointID {
			kept = append(kept, id)
		}
	}
	if err := s.structures.SetConnectionPoints(structureID, kept); err != nil {
		log.Warn(ctx, "structure connection points not updated",
			logging.String("structure_id", structureID),
			logging.String("point_id", pointID),
			logging.Err(err),
		)
	}
}

func (s *GridState) generateLocked(ctx context.Context, id string) error {
	err := s.grid.GenerateCable(id)
	if s.metrics != nil {
		s.metrics.RecordGeneration(err == nil)
	}
	if err != nil {
		s.log.Warn(ctx, "cable generation failed",
			logging.String("cable_id", id),
			logging.Err(err),
		)
		return err
	}
	if points, gerr := s.grid.GeneratedGeometry(id); gerr == nil && len(points) > 0 {
		s.log.Debug(ctx, "cable generated",
			logging.String("cable_id", id),
			logging.Any("start", points[0]),
			logging.Any("end", points[len(points)-1]),
			logging.Int("samples", len(points)),
		)
	}
	return nil
}

func (s *GridState) recordStep(ctx context.Context, pos core.SparkPosition, err error) {
	if err != nil {
		kind := traversalErrorKind(err)
		if s.metrics != nil {
			s.metrics.RecordTraversalError(kind)
		}
		if kind == "cycle" {
			s.log.Warn(ctx, "spark traversal exceeded hop bound",
				logging.String("spark_id", pos.SparkID),
				logging.String("cable_id", pos.CableID),
				logging.Err(err),
			)
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTraversal(pos.Hops)
	}
}

// spanCable finds the cable from towers[span] to towers[span+1] that starts
// at the connection point with the given slot.
func (s *GridState) spanCable(towers []string, span, slot int) (string, error) {
	if span < 0 || span+1 >= len(towers) {
		return "", fmt.Errorf("%w: span %d out of range", ErrScenarioInvalid, span)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	from := s.structures.GetStructure(towers[span])
	to := s.structures.GetStructure(towers[span+1])
	if from == nil || to == nil {
		return "", fmt.Errorf("%w: span %d", ErrStructureNotFound, span)
	}
	targets := make(map[string]struct{}, len(to.ConnectionPointIDs))
	for _, id := range to.ConnectionPointIDs {
		targets[id] = struct{}{}
	}

	for _, pid := range from.ConnectionPointIDs {
		p := s.grid.GetConnectionPoint(pid)
		if p == nil {
			continue
		}
		if ps, ok := p.SlotIndex(); !ok || ps != slot {
			continue
		}
		for _, cid := range s.grid.CablesStartingAt(pid) {
			c := s.grid.GetCable(cid)
			if _, ok := targets[c.EndPointID]; ok {
				return cid, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no cable on span %d slot %d", ErrScenarioInvalid, span, slot)
}

// updateMetricsLocked pushes current entity counts into the metrics recorder.
// Caller must hold s.mu when invoking this helper.
func (s *GridState) updateMetricsLocked() {
	if s == nil || s.metrics == nil {
		return
	}
	counts := s.grid.Counts()
	s.metrics.SetGridCounts(counts.Points, counts.Cables, counts.Generated, s.sparks.Count(), s.structures.Count())
}

func traversalErrorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrTraversalCycle):
		return "cycle"
	case errors.Is(err, core.ErrCableNotFound):
		return "cable_not_found"
	case errors.Is(err, core.ErrCableNotGenerated):
		return "not_generated"
	case errors.Is(err, core.ErrInvalidDelta):
		return "invalid_delta"
	case errors.Is(err, core.ErrSparkNotFound):
		return "spark_not_found"
	default:
		return "other"
	}
}
