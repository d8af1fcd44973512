package core

const (
	// DefaultHang is the sag used when a cable is spawned without one.
	DefaultHang = 2.0
	// DefaultSegments is the number of polyline segments sampled per cable.
	DefaultSegments = 10
)

// ConnectionPoint is a fixed anchor where cables attach. Its world position
// is the owning structure's origin plus a local connector offset.
type ConnectionPoint struct {
	ID string `json:"ID"`

	// StructureID names the owning structure, if any. Removing the
	// structure removes the point.
	StructureID string `json:"StructureID,omitempty"`

	Origin Vec3 `json:"Origin"`
	Offset Vec3 `json:"Offset"`

	// Slot matches points across two structures when auto-wiring. Nil
	// points never take part in auto-wiring.
	Slot *int `json:"Slot,omitempty"`
}

// WorldPosition resolves the point's current world-space position.
func (p ConnectionPoint) WorldPosition() Vec3 {
	return p.Origin.Add(p.Offset)
}

// SlotIndex returns the point's slot and whether it has one.
func (p ConnectionPoint) SlotIndex() (int, bool) {
	if p.Slot == nil {
		return 0, false
	}
	return *p.Slot, true
}

// SlotPtr is a helper for populating ConnectionPoint.Slot.
func SlotPtr(slot int) *int {
	return &slot
}

// Cable is a directed edge from StartPointID to EndPointID with cached
// sampled geometry.
//
// Once Generated is true, Points holds exactly Segments+1 samples, the first
// at the start point's world position and the last at the end point's.
type Cable struct {
	ID           string  `json:"ID"`
	StartPointID string  `json:"StartPointID"`
	EndPointID   string  `json:"EndPointID"`
	Hang         float64 `json:"Hang"`
	Segments     int     `json:"Segments"`

	Generated bool   `json:"Generated"`
	Points    []Vec3 `json:"Points,omitempty"`

	// seq is the creation order, used as the canonical tie-break at
	// junctions.
	seq uint64
}

// clone returns a deep copy so callers never alias cached geometry.
func (c *Cable) clone() *Cable {
	if c == nil {
		return nil
	}
	out := *c
	if c.Points != nil {
		out.Points = append([]Vec3(nil), c.Points...)
	}
	return &out
}

// Length returns the arc length of the cached polyline, or 0 before
// generation.
func (c *Cable) Length() float64 {
	if c == nil {
		return 0
	}
	total := 0.0
	for i := 1; i < len(c.Points); i++ {
		total += c.Points[i-1].DistanceTo(c.Points[i])
	}
	return total
}
