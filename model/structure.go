package model

// StructureKind identifies what a structure is.
type StructureKind string

const (
	StructureKindTower StructureKind = "TOWER"
)

// ConnectorDef describes one cable attachment on a structure template.
type ConnectorDef struct {
	// Slot matches connectors across neighbouring structures.
	Slot int `json:"slot"`

	// Local is the connector's position relative to the structure root,
	// with the structure facing +X. It is rotated with the structure.
	Local Position `json:"local"`

	// Offset is added to the rotated world position as given.
	Offset Position `json:"offset"`
}

// TowerTemplate is a reusable tower layout.
type TowerTemplate struct {
	Name       string         `json:"name"`
	Connectors []ConnectorDef `json:"connectors"`
}

// Structure is an instanced structure (e.g. a transmission tower) in the grid.
type Structure struct {
	ID   string
	Name string
	Kind StructureKind

	Position Position
	// Heading is the planar unit direction the structure faces.
	Heading Position

	// Prev is the structure this one was chained after, if any.
	Prev string

	// ConnectionPointIDs lists the structure's points in connector order.
	ConnectionPointIDs []string

	// Ready is set once the instancing service signals the structure is
	// ready to be wired.
	Ready bool
}
