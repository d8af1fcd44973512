package core

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func newPoint(t *testing.T, g *Grid, origin Vec3) string {
	t.Helper()
	return g.CreateConnectionPoint(origin, Vec3{}, nil)
}

func TestGridCreateConnectionPointAssignsIDs(t *testing.T) {
	g := NewGrid()
	a := g.CreateConnectionPoint(Vec3{X: 1}, Vec3{Y: 2}, SlotPtr(3))
	b := g.CreateConnectionPoint(Vec3{}, Vec3{}, nil)
	if a == "" || b == "" || a == b {
		t.Fatalf("bad IDs %q %q", a, b)
	}

	p := g.GetConnectionPoint(a)
	if p == nil {
		t.Fatalf("GetConnectionPoint(%q) = nil", a)
	}
	if got := p.WorldPosition(); got != (Vec3{X: 1, Y: 2}) {
		t.Fatalf("WorldPosition = %+v", got)
	}
	if slot, ok := p.SlotIndex(); !ok || slot != 3 {
		t.Fatalf("SlotIndex = %d,%v, want 3,true", slot, ok)
	}

	if err := g.AddConnectionPoint(&ConnectionPoint{ID: a}); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("duplicate AddConnectionPoint err = %v, want ErrInvalidPoint", err)
	}
}

func TestGridCreateCableIndexes(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 5})

	id, err := g.CreateCable(p0, p1, 1, 10)
	if err != nil {
		t.Fatalf("CreateCable: %v", err)
	}
	if got := g.CablesStartingAt(p0); !reflect.DeepEqual(got, []string{id}) {
		t.Fatalf("CablesStartingAt(p0) = %v", got)
	}
	if got := g.CablesEndingAt(p1); !reflect.DeepEqual(got, []string{id}) {
		t.Fatalf("CablesEndingAt(p1) = %v", got)
	}
	if got := g.CablesStartingAt(p1); len(got) != 0 {
		t.Fatalf("CablesStartingAt(p1) = %v, want empty", got)
	}
	if got := g.CablesStartingAt("nope"); len(got) != 0 {
		t.Fatalf("unknown point should yield empty result, got %v", got)
	}
	if got := g.PendingCables(); !reflect.DeepEqual(got, []string{id}) {
		t.Fatalf("PendingCables = %v", got)
	}

	if _, err := g.CreateCable(p0, p1, 1, 0); !errors.Is(err, ErrInvalidCable) {
		t.Fatalf("zero segments err = %v, want ErrInvalidCable", err)
	}
}

func TestGridGenerateCable(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{Y: 2, Z: 3})
	id, _ := g.CreateCable(p0, p1, 1, 10)

	if _, err := g.GeneratedGeometry(id); !errors.Is(err, ErrCableNotGenerated) {
		t.Fatalf("GeneratedGeometry before generation err = %v", err)
	}

	if err := g.GenerateCable(id); err != nil {
		t.Fatalf("GenerateCable: %v", err)
	}
	points, err := g.GeneratedGeometry(id)
	if err != nil {
		t.Fatalf("GeneratedGeometry: %v", err)
	}
	if len(points) != 11 {
		t.Fatalf("got %d samples, want 11", len(points))
	}
	if !near(points[0], Vec3{}) || !near(points[10], Vec3{Y: 2, Z: 3}) {
		t.Fatalf("endpoints %+v .. %+v", points[0], points[10])
	}
	if len(g.PendingCables()) != 0 {
		t.Fatalf("cable still pending after generation")
	}

	// Returned geometry is a copy.
	points[0] = Vec3{X: 99}
	again, _ := g.GeneratedGeometry(id)
	if again[0] == points[0] {
		t.Fatalf("GeneratedGeometry aliased cached samples")
	}
}

func TestGridGenerateCableIdempotent(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 4, Y: 1})
	id, _ := g.CreateCable(p0, p1, 1, 10)

	events := 0
	g.Subscribe(func(ev GridEvent) {
		if ev.Type == EventCableGenerated {
			events++
		}
	})

	if err := g.GenerateCable(id); err != nil {
		t.Fatalf("GenerateCable: %v", err)
	}
	first, _ := g.GeneratedGeometry(id)

	// Moving the endpoint must not change geometry on a second call.
	if err := g.MoveConnectionPoint(p1, Vec3{X: 40}); err != nil {
		t.Fatalf("MoveConnectionPoint: %v", err)
	}
	if err := g.GenerateCable(id); err != nil {
		t.Fatalf("second GenerateCable: %v", err)
	}
	second, _ := g.GeneratedGeometry(id)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second generation changed geometry")
	}
	if events != 1 {
		t.Fatalf("got %d generation events, want 1", events)
	}
}

func TestGridInvalidateCableRegenerates(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 4})
	id, _ := g.CreateCable(p0, p1, 0, 4)
	_ = g.GenerateCable(id)

	_ = g.MoveConnectionPoint(p1, Vec3{X: 8})
	if err := g.InvalidateCable(id); err != nil {
		t.Fatalf("InvalidateCable: %v", err)
	}
	if got := g.PendingCables(); !reflect.DeepEqual(got, []string{id}) {
		t.Fatalf("PendingCables after invalidate = %v", got)
	}
	if err := g.GenerateCable(id); err != nil {
		t.Fatalf("GenerateCable: %v", err)
	}
	points, _ := g.GeneratedGeometry(id)
	if !near(points[len(points)-1], Vec3{X: 8}) {
		t.Fatalf("end sample %+v, want moved endpoint", points[len(points)-1])
	}
}

func TestGridGenerateUnresolvedEndpoint(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	id, _ := g.CreateCable(p0, "cp-missing", 1, 10)

	err := g.GenerateCable(id)
	if !errors.Is(err, ErrUnresolvedEndpoint) {
		t.Fatalf("GenerateCable err = %v, want ErrUnresolvedEndpoint", err)
	}
	c := g.GetCable(id)
	if c.Generated || len(c.Points) != 0 {
		t.Fatalf("failed cable has generated=%v points=%d", c.Generated, len(c.Points))
	}
	if len(g.PendingCables()) != 0 {
		t.Fatalf("failed cable still pending")
	}
}

func TestGridGenerateNonFiniteEndpoint(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: math.NaN()})
	id, _ := g.CreateCable(p0, p1, 1, 10)

	if err := g.GenerateCable(id); !errors.Is(err, ErrUnresolvedEndpoint) {
		t.Fatalf("GenerateCable err = %v, want ErrUnresolvedEndpoint", err)
	}
}

func TestGridGenerateNegativeHang(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 4})
	id, _ := g.CreateCable(p0, p1, -1, 10)

	if err := g.GenerateCable(id); !errors.Is(err, ErrDegenerateCurve) {
		t.Fatalf("GenerateCable err = %v, want ErrDegenerateCurve", err)
	}
}

func TestGridGeneratePending(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 4})
	good, _ := g.CreateCable(p0, p1, 1, 10)
	bad, _ := g.CreateCable(p1, "cp-gone", 1, 10)

	results := g.GeneratePending()
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].CableID != good || results[0].Err != nil {
		t.Fatalf("first result = %+v", results[0])
	}
	if results[1].CableID != bad || !errors.Is(results[1].Err, ErrUnresolvedEndpoint) {
		t.Fatalf("second result = %+v", results[1])
	}
	if len(g.GeneratePending()) != 0 {
		t.Fatalf("second GeneratePending should be empty")
	}

	counts := g.Counts()
	if counts != (GridCounts{Points: 2, Cables: 2, Generated: 1}) {
		t.Fatalf("Counts = %+v", counts)
	}
}

func TestGridDeleteConnectionPointCascades(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 4})
	p2 := newPoint(t, g, Vec3{X: 8})
	a, _ := g.CreateCable(p0, p1, 1, 10)
	b, _ := g.CreateCable(p1, p2, 1, 10)
	c, _ := g.CreateCable(p0, p2, 1, 10)

	var events []GridEvent
	g.Subscribe(func(ev GridEvent) { events = append(events, ev) })

	removed, err := g.DeleteConnectionPoint(p1)
	if err != nil {
		t.Fatalf("DeleteConnectionPoint: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{a, b}) {
		t.Fatalf("removed = %v, want [%s %s]", removed, a, b)
	}
	if g.GetCable(a) != nil || g.GetCable(b) != nil {
		t.Fatalf("cascade left cables behind")
	}
	if g.GetCable(c) == nil {
		t.Fatalf("unrelated cable removed")
	}
	if got := g.CablesStartingAt(p0); !reflect.DeepEqual(got, []string{c}) {
		t.Fatalf("CablesStartingAt(p0) = %v", got)
	}
	if got := g.CablesEndingAt(p2); !reflect.DeepEqual(got, []string{c}) {
		t.Fatalf("CablesEndingAt(p2) = %v", got)
	}
	if got := g.PendingCables(); !reflect.DeepEqual(got, []string{c}) {
		t.Fatalf("PendingCables = %v", got)
	}

	if len(events) != 3 || events[2].Type != EventPointRemoved || events[2].PointID != p1 {
		t.Fatalf("events = %+v", events)
	}

	if _, err := g.DeleteConnectionPoint(p1); !errors.Is(err, ErrPointNotFound) {
		t.Fatalf("second delete err = %v, want ErrPointNotFound", err)
	}
}

func TestGridDeleteCable(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})
	p1 := newPoint(t, g, Vec3{X: 4})
	a, _ := g.CreateCable(p0, p1, 1, 10)
	b, _ := g.CreateCable(p0, p1, 1, 10)

	if err := g.DeleteCable(a); err != nil {
		t.Fatalf("DeleteCable: %v", err)
	}
	if got := g.CablesStartingAt(p0); !reflect.DeepEqual(got, []string{b}) {
		t.Fatalf("CablesStartingAt = %v", got)
	}
	if err := g.DeleteCable(a); !errors.Is(err, ErrCableNotFound) {
		t.Fatalf("second DeleteCable err = %v", err)
	}
	if got := g.ListCables(); len(got) != 1 || got[0].ID != b {
		t.Fatalf("ListCables = %+v", got)
	}
}

func TestGridUnsubscribe(t *testing.T) {
	g := NewGrid()
	p0 := newPoint(t, g, Vec3{})

	calls := 0
	unsubscribe := g.Subscribe(func(GridEvent) { calls++ })
	unsubscribe()

	if _, err := g.DeleteConnectionPoint(p0); err != nil {
		t.Fatalf("DeleteConnectionPoint: %v", err)
	}
	if calls != 0 {
		t.Fatalf("unsubscribed callback ran %d times", calls)
	}
}
