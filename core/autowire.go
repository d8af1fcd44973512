package core

import (
	"fmt"
	"sort"
)

// WireMatch pairs two connection points that share a slot.
type WireMatch struct {
	Slot    int
	FromID  string
	ToID    string
	CableID string
}

// MatchSlots pairs points from two structures by slot index. Matches are
// returned in ascending slot order. Points without a slot, slots present on
// only one side, and repeated slots after the first on either side are
// skipped.
func MatchSlots(from, to []ConnectionPoint) []WireMatch {
	toBySlot := make(map[int]string, len(to))
	for _, p := range to {
		slot, ok := p.SlotIndex()
		if !ok {
			continue
		}
		if _, dup := toBySlot[slot]; !dup {
			toBySlot[slot] = p.ID
		}
	}

	seen := make(map[int]struct{}, len(from))
	var matches []WireMatch
	for _, p := range from {
		slot, ok := p.SlotIndex()
		if !ok {
			continue
		}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		if toID, ok := toBySlot[slot]; ok {
			matches = append(matches, WireMatch{Slot: slot, FromID: p.ID, ToID: toID})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Slot < matches[j].Slot })
	return matches
}

// AutoWire creates one cable per slot shared by the two point sets, running
// from the fromIDs point to the toIDs point. Zero matches is not an error:
// the result is simply empty.
func (g *Grid) AutoWire(fromIDs, toIDs []string, hang float64, segments int) ([]WireMatch, error) {
	if segments <= 0 {
		return nil, fmt.Errorf("%w: segment count %d must be positive", ErrInvalidCable, segments)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	from, err := g.pointsLocked(fromIDs)
	if err != nil {
		return nil, err
	}
	to, err := g.pointsLocked(toIDs)
	if err != nil {
		return nil, err
	}

	matches := MatchSlots(from, to)
	for i := range matches {
		matches[i].CableID = g.createCableLocked(matches[i].FromID, matches[i].ToID, hang, segments)
	}
	return matches, nil
}

func (g *Grid) pointsLocked(ids []string) ([]ConnectionPoint, error) {
	out := make([]ConnectionPoint, 0, len(ids))
	for _, id := range ids {
		p, ok := g.points[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrPointNotFound, id)
		}
		out = append(out, *p)
	}
	return out, nil
}
