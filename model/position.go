package model

// Position represents a point or direction in world space. Y is vertical.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
