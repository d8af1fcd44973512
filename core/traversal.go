package core

import (
	"fmt"
	"math"
)

// TraversalResult is where a walk along the grid came to rest.
type TraversalResult struct {
	CableID   string
	DistAlong float64
	Position  Vec3

	// Hops counts junction crossings made during the walk.
	Hops int
	// Clamped is set when the walk stopped at a line end.
	Clamped bool
}

// Walk moves a position dist on cableID by delta. Whenever the position
// leaves [0,1] it crosses onto the canonical next cable (starting at this
// cable's end) or previous cable (ending at this cable's start) and carries
// the overshoot over; with no such cable it clamps to the line end.
//
// Only generated cables take part. The number of hops is bounded by the
// number of cables in the grid; exceeding it fails with ErrTraversalCycle.
// On a closed ring of n cables a single call therefore cannot cover more
// than about n cable lengths: with |dist+delta| past n+1 it is rejected even
// though every junction is valid. Callers with large deltas should split
// them into smaller steps.
func (g *Grid) Walk(cableID string, dist, delta float64) (TraversalResult, error) {
	if !isFinite(dist) || !isFinite(delta) {
		return TraversalResult{}, fmt.Errorf("%w: dist=%g delta=%g", ErrInvalidDelta, dist, delta)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	cable, ok := g.cables[cableID]
	if !ok {
		return TraversalResult{}, fmt.Errorf("%w: %q", ErrCableNotFound, cableID)
	}
	if !cable.Generated {
		return TraversalResult{}, fmt.Errorf("%w: %q", ErrCableNotGenerated, cableID)
	}

	maxHops := len(g.cables)
	d := dist + delta
	res := TraversalResult{}

	for d < 0 || d > 1 {
		var next *Cable
		if d > 1 {
			next = g.canonicalLocked(g.cablesByStart[cable.EndPointID])
		} else {
			next = g.canonicalLocked(g.cablesByEnd[cable.StartPointID])
		}

		if next == nil {
			d = math.Max(0, math.Min(1, d))
			res.Clamped = true
			break
		}

		res.Hops++
		if res.Hops > maxHops {
			return TraversalResult{}, fmt.Errorf("%w: %d hops from %q", ErrTraversalCycle, res.Hops, cableID)
		}
		if d > 1 {
			d--
		} else {
			d++
		}
		cable = next
	}

	pos, _ := SampleAlong(cable.Points, d)
	res.CableID = cable.ID
	res.DistAlong = d
	res.Position = pos
	return res, nil
}

// canonicalLocked picks the first generated cable in creation order.
func (g *Grid) canonicalLocked(ids []string) *Cable {
	for _, id := range ids {
		if c, ok := g.cables[id]; ok && c.Generated {
			return c
		}
	}
	return nil
}
