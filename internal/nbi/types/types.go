package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	core "github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/model"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

//
// Wire shapes.
//
// The northbound surface speaks google.protobuf.Struct so clients can use any
// gRPC stack without generated stubs. Vectors are objects with x, y and z
// number fields; point lists are arrays of such objects.
//

// VecToValue encodes a vector as {x, y, z}.
func VecToValue(v core.Vec3) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"x": structpb.NewNumberValue(v.X),
		"y": structpb.NewNumberValue(v.Y),
		"z": structpb.NewNumberValue(v.Z),
	}})
}

// VecFromValue decodes an {x, y, z} object. Missing components are zero;
// non-numeric or non-finite components are rejected.
func VecFromValue(v *structpb.Value) (core.Vec3, error) {
	obj := v.GetStructValue()
	if obj == nil {
		return core.Vec3{}, errors.New("vector must be an object with x, y, z")
	}

	var out core.Vec3
	for name, dst := range map[string]*float64{"x": &out.X, "y": &out.Y, "z": &out.Z} {
		f, ok := obj.GetFields()[name]
		if !ok {
			continue
		}
		n, ok := f.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return core.Vec3{}, fmt.Errorf("vector component %q must be a number", name)
		}
		if math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
			return core.Vec3{}, fmt.Errorf("vector component %q must be finite", name)
		}
		*dst = n.NumberValue
	}
	return out, nil
}

// PointsToValue encodes a polyline as a list of vectors.
func PointsToValue(points []core.Vec3) *structpb.Value {
	values := make([]*structpb.Value, 0, len(points))
	for _, p := range points {
		values = append(values, VecToValue(p))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// PointsFromValue decodes a list of vectors.
func PointsFromValue(v *structpb.Value) ([]core.Vec3, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, errors.New("points must be a list")
	}
	out := make([]core.Vec3, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		p, err := VecFromValue(item)
		if err != nil {
			return nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// StringList encodes a list of IDs. A nil slice encodes as an empty list.
func StringList(ids []string) *structpb.Value {
	values := make([]*structpb.Value, 0, len(ids))
	for _, id := range ids {
		values = append(values, structpb.NewStringValue(id))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

//
// Domain mappings.
//

// SparkPositionToStruct reports a spark's resolved state.
func SparkPositionToStruct(pos core.SparkPosition) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         structpb.NewStringValue(pos.SparkID),
		"cable_id":   structpb.NewStringValue(pos.CableID),
		"dist_along": structpb.NewNumberValue(pos.DistAlong),
		"position":   VecToValue(pos.Position),
		"hops":       structpb.NewNumberValue(float64(pos.Hops)),
		"clamped":    structpb.NewBoolValue(pos.Clamped),
	}}
}

// SparkToStruct reports a spark's stored state.
func SparkToStruct(s core.Spark) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         structpb.NewStringValue(s.ID),
		"cable_id":   structpb.NewStringValue(s.CableID),
		"dist_along": structpb.NewNumberValue(s.DistAlong),
		"speed":      structpb.NewNumberValue(s.Speed),
		"direction":  structpb.NewNumberValue(float64(s.Direction)),
	}}
}

// CableToStruct reports a cable and, once generated, its samples.
func CableToStruct(c *core.Cable) *structpb.Struct {
	if c == nil {
		return &structpb.Struct{}
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":        structpb.NewStringValue(c.ID),
		"start_id":  structpb.NewStringValue(c.StartPointID),
		"end_id":    structpb.NewStringValue(c.EndPointID),
		"hang":      structpb.NewNumberValue(c.Hang),
		"segments":  structpb.NewNumberValue(float64(c.Segments)),
		"generated": structpb.NewBoolValue(c.Generated),
	}}
	if c.Generated {
		out.Fields["points"] = PointsToValue(c.Points)
	}
	return out
}

// ConnectionPointToStruct reports a connection point and its resolved world
// position.
func ConnectionPointToStruct(p *core.ConnectionPoint) *structpb.Struct {
	if p == nil {
		return &structpb.Struct{}
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewStringValue(p.ID),
		"position": VecToValue(p.Origin),
		"offset":   VecToValue(p.Offset),
		"world":    VecToValue(p.WorldPosition()),
	}}
	if p.StructureID != "" {
		out.Fields["structure_id"] = structpb.NewStringValue(p.StructureID)
	}
	if slot, ok := p.SlotIndex(); ok {
		out.Fields["slot"] = structpb.NewNumberValue(float64(slot))
	}
	return out
}

// StructureToStruct reports an instanced structure.
func StructureToStruct(s *model.Structure) *structpb.Struct {
	if s == nil {
		return &structpb.Struct{}
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":                   structpb.NewStringValue(s.ID),
		"name":                 structpb.NewStringValue(s.Name),
		"kind":                 structpb.NewStringValue(string(s.Kind)),
		"position":             VecToValue(core.VecFrom(s.Position)),
		"heading":              VecToValue(core.VecFrom(s.Heading)),
		"connection_point_ids": StringList(s.ConnectionPointIDs),
		"ready":                structpb.NewBoolValue(s.Ready),
	}}
	if s.Prev != "" {
		out.Fields["prev"] = structpb.NewStringValue(s.Prev)
	}
	return out
}

// WireMatchesToValue reports the cables created by auto-wiring.
func WireMatchesToValue(matches []core.WireMatch) *structpb.Value {
	values := make([]*structpb.Value, 0, len(matches))
	for _, m := range matches {
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"slot":     structpb.NewNumberValue(float64(m.Slot)),
			"from_id":  structpb.NewStringValue(m.FromID),
			"to_id":    structpb.NewStringValue(m.ToID),
			"cable_id": structpb.NewStringValue(m.CableID),
		}}))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// TemplateFromValue decodes a tower template object using the same field
// names as scenario files ({name, connectors: [{slot, local, offset}]}).
func TemplateFromValue(v *structpb.Value) (model.TowerTemplate, error) {
	var tmpl model.TowerTemplate
	if v.GetStructValue() == nil {
		return tmpl, errors.New("template must be an object")
	}
	raw, err := protojson.Marshal(v)
	if err != nil {
		return tmpl, fmt.Errorf("encode template: %w", err)
	}
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return tmpl, fmt.Errorf("decode template: %w", err)
	}
	return tmpl, nil
}

// ScenarioFromJSON decodes a scenario file into the plain map form accepted by
// structpb.NewStruct, for sending as the LoadScenario "scenario" field.
func ScenarioFromJSON(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return out, nil
}

// StructToJSON renders a request payload as JSON, for forwarding to loaders
// that read the scenario file format.
func StructToJSON(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return protojson.Marshal(s)
}
