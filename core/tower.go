package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/cablegrid/model"
)

// TowerHeadings returns, for each tower position, the planar unit direction
// towards the next tower. The last tower repeats the previous heading and a
// lone tower faces +X.
func TowerHeadings(positions []Vec3) ([]Vec3, error) {
	switch len(positions) {
	case 0:
		return nil, errors.New("tower headings: no positions")
	case 1:
		return []Vec3{{X: 1}}, nil
	}

	headings := make([]Vec3, 0, len(positions))
	for i := 1; i < len(positions); i++ {
		dir := positions[i].Sub(positions[i-1]).Horizontal()
		if dir.Norm() == 0 {
			return nil, fmt.Errorf("%w: towers %d and %d", ErrDegenerateHeading, i-1, i)
		}
		headings = append(headings, dir.Normalize())
	}
	return append(headings, headings[len(headings)-1]), nil
}

// InstanceConnectors lays out a template's connectors for a tower standing at
// position and facing heading. Points are returned in connector order
// without IDs.
func InstanceConnectors(tmpl model.TowerTemplate, structureID string, position, heading Vec3) []ConnectionPoint {
	out := make([]ConnectionPoint, 0, len(tmpl.Connectors))
	for _, c := range tmpl.Connectors {
		out = append(out, ConnectionPoint{
			StructureID: structureID,
			Origin:      position.Add(VecFrom(c.Local).RotateToHeading(heading)),
			Offset:      VecFrom(c.Offset),
			Slot:        SlotPtr(c.Slot),
		})
	}
	return out
}
