package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// Spark is an object travelling along the grid. DistAlong is its normalized
// position on CableID and is always within [0,1] between steps.
type Spark struct {
	ID        string  `json:"ID"`
	CableID   string  `json:"CableID"`
	DistAlong float64 `json:"DistAlong"`

	// Speed is in normalized cable lengths per second.
	Speed float64 `json:"Speed"`
	// Direction is the drive input: +1 forward, -1 backward, 0 idle.
	Direction int `json:"Direction"`
}

// SparkPosition is a spark's resolved state after a step or query.
type SparkPosition struct {
	SparkID   string
	CableID   string
	DistAlong float64
	Position  Vec3
	Hops      int
	Clamped   bool
}

// StepResult reports one spark's outcome from StepAll.
type StepResult struct {
	SparkPosition
	Err error
}

// SparkEngine owns sparks and moves them over a Grid. Traversal only reads
// the grid.
type SparkEngine struct {
	mu     sync.Mutex
	grid   *Grid
	sparks map[string]*Spark
	next   uint64
}

// NewSparkEngine binds an engine to grid.
func NewSparkEngine(grid *Grid) *SparkEngine {
	return &SparkEngine{
		grid:   grid,
		sparks: make(map[string]*Spark),
	}
}

// CreateSpark places a new spark at the start of cableID.
func (e *SparkEngine) CreateSpark(cableID string, speed float64) (string, error) {
	if e.grid.GetCable(cableID) == nil {
		return "", fmt.Errorf("%w: %q", ErrCableNotFound, cableID)
	}
	if !isFinite(speed) {
		return "", fmt.Errorf("%w: speed %g", ErrInvalidDelta, speed)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	id := "spark-" + strconv.FormatUint(e.next, 10)
	e.sparks[id] = &Spark{ID: id, CableID: cableID, Speed: speed}
	return id, nil
}

// GetSpark returns a copy of a spark, or nil if not found.
func (e *SparkEngine) GetSpark(id string) *Spark {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sparks[id]
	if !ok {
		return nil
	}
	out := *s
	return &out
}

// ListSparks returns copies of all sparks sorted by ID.
func (e *SparkEngine) ListSparks() []Spark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listLocked()
}

// Count returns the number of live sparks.
func (e *SparkEngine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sparks)
}

// RemoveSpark destroys a spark.
func (e *SparkEngine) RemoveSpark(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sparks[id]; !ok {
		return fmt.Errorf("%w: %q", ErrSparkNotFound, id)
	}
	delete(e.sparks, id)
	return nil
}

// RemoveSparksOn destroys every spark bound to one of cableIDs and returns
// their IDs.
func (e *SparkEngine) RemoveSparksOn(cableIDs []string) []string {
	if len(cableIDs) == 0 {
		return nil
	}
	gone := make(map[string]struct{}, len(cableIDs))
	for _, id := range cableIDs {
		gone[id] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var removed []string
	for id, s := range e.sparks {
		if _, ok := gone[s.CableID]; ok {
			removed = append(removed, id)
			delete(e.sparks, id)
		}
	}
	sort.Strings(removed)
	return removed
}

// SetDirection sets the drive input. Any positive value means forward and
// any negative value backward.
func (e *SparkEngine) SetDirection(id string, direction int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sparks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSparkNotFound, id)
	}
	switch {
	case direction > 0:
		s.Direction = 1
	case direction < 0:
		s.Direction = -1
	default:
		s.Direction = 0
	}
	return nil
}

// Advance moves a spark by delta normalized cable lengths. On a traversal
// error the spark keeps its last good state, and that state is returned
// alongside the error.
func (e *SparkEngine) Advance(id string, delta float64) (SparkPosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sparks[id]
	if !ok {
		return SparkPosition{}, fmt.Errorf("%w: %q", ErrSparkNotFound, id)
	}
	return e.advanceLocked(s, delta)
}

// Step advances a spark by speed * direction * dt, dt in seconds.
func (e *SparkEngine) Step(id string, dt float64) (SparkPosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sparks[id]
	if !ok {
		return SparkPosition{}, fmt.Errorf("%w: %q", ErrSparkNotFound, id)
	}
	return e.advanceLocked(s, s.Speed*float64(s.Direction)*dt)
}

// StepAll steps every spark with a non-zero direction, in ID order.
func (e *SparkEngine) StepAll(dt float64) []StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []StepResult
	for _, snapshot := range e.listLocked() {
		if snapshot.Direction == 0 {
			continue
		}
		s := e.sparks[snapshot.ID]
		pos, err := e.advanceLocked(s, s.Speed*float64(s.Direction)*dt)
		out = append(out, StepResult{SparkPosition: pos, Err: err})
	}
	return out
}

// WorldPosition resolves a spark's current position without moving it.
func (e *SparkEngine) WorldPosition(id string) (SparkPosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sparks[id]
	if !ok {
		return SparkPosition{}, fmt.Errorf("%w: %q", ErrSparkNotFound, id)
	}
	res, err := e.grid.Walk(s.CableID, s.DistAlong, 0)
	if err != nil {
		return SparkPosition{SparkID: s.ID, CableID: s.CableID, DistAlong: s.DistAlong}, err
	}
	return positionOf(s.ID, res), nil
}

func (e *SparkEngine) advanceLocked(s *Spark, delta float64) (SparkPosition, error) {
	res, err := e.grid.Walk(s.CableID, s.DistAlong, delta)
	if err != nil {
		return e.lastGoodLocked(s), fmt.Errorf("spark %s: %w", s.ID, err)
	}
	s.CableID = res.CableID
	s.DistAlong = res.DistAlong
	return positionOf(s.ID, res), nil
}

// lastGoodLocked renormalizes the spark in place on its current cable.
func (e *SparkEngine) lastGoodLocked(s *Spark) SparkPosition {
	s.DistAlong = math.Max(0, math.Min(1, s.DistAlong))
	pos := SparkPosition{SparkID: s.ID, CableID: s.CableID, DistAlong: s.DistAlong}
	if points, err := e.grid.GeneratedGeometry(s.CableID); err == nil {
		pos.Position, _ = SampleAlong(points, s.DistAlong)
	}
	return pos
}

func (e *SparkEngine) listLocked() []Spark {
	out := make([]Spark, 0, len(e.sparks))
	for _, s := range e.sparks {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func positionOf(sparkID string, res TraversalResult) SparkPosition {
	return SparkPosition{
		SparkID:   sparkID,
		CableID:   res.CableID,
		DistAlong: res.DistAlong,
		Position:  res.Position,
		Hops:      res.Hops,
		Clamped:   res.Clamped,
	}
}
