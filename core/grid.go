package core

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// GridEventType indicates what kind of change happened in the Grid.
type GridEventType int

const (
	EventCableGenerated GridEventType = iota
	EventCableRemoved
	EventPointRemoved
)

// GridEvent is delivered to subscribers after a change is committed.
type GridEvent struct {
	Type    GridEventType
	CableID string
	PointID string

	// Cable is a copy of the generated cable for EventCableGenerated.
	Cable *Cable
}

// GenerationResult reports the outcome of generating one pending cable.
type GenerationResult struct {
	CableID string
	Err     error
}

// GridCounts summarises the size of the grid.
type GridCounts struct {
	Points    int
	Cables    int
	Generated int
}

// Grid stores connection points and the directed cables between them.
//
// The by-start and by-end indexes are derived state maintained alongside
// every cable create and delete; callers never touch them directly. Each
// index keeps cable IDs in creation order, which is the canonical tie-break
// when traversal picks the next cable at a junction.
//
// Grid is safe for concurrent use. Generation runs under the write lock,
// so each cable is generated at most once.
type Grid struct {
	mu sync.RWMutex

	points        map[string]*ConnectionPoint
	cables        map[string]*Cable
	cablesByStart map[string][]string
	cablesByEnd   map[string][]string

	// pending holds un-generated cables in creation order.
	pending []string

	nextPoint uint64
	nextCable uint64

	subs    map[int]func(GridEvent)
	nextSub int
}

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{
		points:        make(map[string]*ConnectionPoint),
		cables:        make(map[string]*Cable),
		cablesByStart: make(map[string][]string),
		cablesByEnd:   make(map[string][]string),
		subs:          make(map[int]func(GridEvent)),
	}
}

//
// ---------- Connection points ----------
//

// CreateConnectionPoint registers a new point and returns its ID.
func (g *Grid) CreateConnectionPoint(origin, offset Vec3, slot *int) string {
	p := &ConnectionPoint{Origin: origin, Offset: offset}
	if slot != nil {
		p.Slot = SlotPtr(*slot)
	}
	// An empty ID never collides, so this cannot fail.
	_ = g.AddConnectionPoint(p)
	return p.ID
}

// AddConnectionPoint inserts p. An empty p.ID is assigned from the grid's
// sequence and written back to p.
func (g *Grid) AddConnectionPoint(p *ConnectionPoint) error {
	if p == nil {
		return fmt.Errorf("%w: nil point", ErrInvalidPoint)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if p.ID == "" {
		g.nextPoint++
		p.ID = "cp-" + strconv.FormatUint(g.nextPoint, 10)
		for g.points[p.ID] != nil {
			g.nextPoint++
			p.ID = "cp-" + strconv.FormatUint(g.nextPoint, 10)
		}
	}
	if _, exists := g.points[p.ID]; exists {
		return fmt.Errorf("%w: %q already exists", ErrInvalidPoint, p.ID)
	}

	stored := *p
	if p.Slot != nil {
		stored.Slot = SlotPtr(*p.Slot)
	}
	g.points[p.ID] = &stored
	return nil
}

// GetConnectionPoint returns a copy of a point, or nil if not found.
func (g *Grid) GetConnectionPoint(id string) *ConnectionPoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.points[id]
	if !ok {
		return nil
	}
	out := *p
	return &out
}

// ListConnectionPoints returns copies of all points sorted by ID.
func (g *Grid) ListConnectionPoints() []ConnectionPoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]ConnectionPoint, 0, len(g.points))
	for _, p := range g.points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MoveConnectionPoint updates a point's origin. Cached cable geometry is not
// regenerated; use InvalidateCable for that.
func (g *Grid) MoveConnectionPoint(id string, origin Vec3) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.points[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrPointNotFound, id)
	}
	p.Origin = origin
	return nil
}

// DeleteConnectionPoint removes a point and every cable that starts or ends
// there. It returns the removed cable IDs in creation order.
func (g *Grid) DeleteConnectionPoint(id string) ([]string, error) {
	g.mu.Lock()
	if _, ok := g.points[id]; !ok {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrPointNotFound, id)
	}

	removed := g.cablesTouchingLocked(id)
	for _, cableID := range removed {
		g.deleteCableLocked(cableID)
	}
	delete(g.points, id)
	subs := g.subscribersLocked()
	g.mu.Unlock()

	for _, cableID := range removed {
		notify(subs, GridEvent{Type: EventCableRemoved, CableID: cableID})
	}
	notify(subs, GridEvent{Type: EventPointRemoved, PointID: id})
	return removed, nil
}

//
// ---------- Cables ----------
//

// CreateCable registers an un-generated cable from start to end. Endpoint
// positions are not resolved until generation, so the points may be created
// after the cable.
func (g *Grid) CreateCable(startID, endID string, hang float64, segments int) (string, error) {
	if startID == "" || endID == "" {
		return "", fmt.Errorf("%w: empty endpoint", ErrInvalidCable)
	}
	if segments <= 0 {
		return "", fmt.Errorf("%w: segment count %d must be positive", ErrInvalidCable, segments)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCableLocked(startID, endID, hang, segments), nil
}

// createCableLocked inserts a cable and its index entries. Caller must hold
// g.mu (write lock).
func (g *Grid) createCableLocked(startID, endID string, hang float64, segments int) string {
	g.nextCable++
	id := "cable-" + strconv.FormatUint(g.nextCable, 10)
	g.cables[id] = &Cable{
		ID:           id,
		StartPointID: startID,
		EndPointID:   endID,
		Hang:         hang,
		Segments:     segments,
		seq:          g.nextCable,
	}
	g.cablesByStart[startID] = append(g.cablesByStart[startID], id)
	g.cablesByEnd[endID] = append(g.cablesByEnd[endID], id)
	g.pending = append(g.pending, id)
	return id
}

// GetCable returns a copy of a cable, or nil if not found.
func (g *Grid) GetCable(id string) *Cable {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cables[id].clone()
}

// ListCables returns copies of all cables in creation order.
func (g *Grid) ListCables() []*Cable {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Cable, 0, len(g.cables))
	for _, c := range g.cables {
		out = append(out, c.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// DeleteCable removes a cable and its index entries.
func (g *Grid) DeleteCable(id string) error {
	g.mu.Lock()
	if _, ok := g.cables[id]; !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrCableNotFound, id)
	}
	g.deleteCableLocked(id)
	subs := g.subscribersLocked()
	g.mu.Unlock()

	notify(subs, GridEvent{Type: EventCableRemoved, CableID: id})
	return nil
}

// CablesStartingAt returns the cables whose start point is pointID, in
// creation order. Unknown points yield an empty result.
func (g *Grid) CablesStartingAt(pointID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.cablesByStart[pointID]...)
}

// CablesEndingAt returns the cables whose end point is pointID, in creation
// order. Unknown points yield an empty result.
func (g *Grid) CablesEndingAt(pointID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.cablesByEnd[pointID]...)
}

// Counts returns the current number of points, cables and generated cables.
func (g *Grid) Counts() GridCounts {
	g.mu.RLock()
	defer g.mu.RUnlock()

	counts := GridCounts{Points: len(g.points), Cables: len(g.cables)}
	for _, c := range g.cables {
		if c.Generated {
			counts.Generated++
		}
	}
	return counts
}

//
// ---------- Generation ----------
//

// GenerateCable resolves both endpoints, samples the curve and caches the
// result. Calling it on an already generated cable is a no-op. On failure the
// cable stays un-generated with no samples.
func (g *Grid) GenerateCable(id string) error {
	g.mu.Lock()
	cable, ok := g.cables[id]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrCableNotFound, id)
	}
	if cable.Generated {
		g.mu.Unlock()
		return nil
	}

	err := g.generateLocked(cable)
	g.removePendingLocked(id)
	var (
		subs  []func(GridEvent)
		event GridEvent
	)
	if err == nil {
		subs = g.subscribersLocked()
		event = GridEvent{Type: EventCableGenerated, CableID: id, Cable: cable.clone()}
	}
	g.mu.Unlock()

	if err != nil {
		return fmt.Errorf("generate %s: %w", id, err)
	}
	notify(subs, event)
	return nil
}

// PendingCables lists cables awaiting their first generation, in creation
// order.
func (g *Grid) PendingCables() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.pending...)
}

// GeneratePending generates every pending cable once. Failed cables leave the
// pending list; they can be retried explicitly with GenerateCable.
func (g *Grid) GeneratePending() []GenerationResult {
	ids := g.PendingCables()
	results := make([]GenerationResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, GenerationResult{CableID: id, Err: g.GenerateCable(id)})
	}
	return results
}

// GeneratedGeometry returns a copy of a cable's cached samples.
func (g *Grid) GeneratedGeometry(id string) ([]Vec3, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cable, ok := g.cables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCableNotFound, id)
	}
	if !cable.Generated {
		return nil, fmt.Errorf("%w: %q", ErrCableNotGenerated, id)
	}
	return append([]Vec3(nil), cable.Points...), nil
}

// InvalidateCable discards a cable's cached geometry and queues it for
// generation again.
func (g *Grid) InvalidateCable(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cable, ok := g.cables[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrCableNotFound, id)
	}
	cable.Generated = false
	cable.Points = nil
	g.removePendingLocked(id)
	g.pending = append(g.pending, id)
	return nil
}

// generateLocked fills cable.Points. Caller must hold g.mu (write lock).
func (g *Grid) generateLocked(cable *Cable) error {
	start, err := g.resolveLocked(cable.StartPointID)
	if err != nil {
		return err
	}
	end, err := g.resolveLocked(cable.EndPointID)
	if err != nil {
		return err
	}

	points, err := SampleCurve(start, end, cable.Hang, cable.Segments)
	if err != nil {
		return err
	}
	cable.Points = points
	cable.Generated = true
	return nil
}

func (g *Grid) resolveLocked(pointID string) (Vec3, error) {
	p, ok := g.points[pointID]
	if !ok {
		return Vec3{}, fmt.Errorf("%w: %q does not exist", ErrUnresolvedEndpoint, pointID)
	}
	pos := p.WorldPosition()
	if !pos.IsFinite() {
		return Vec3{}, fmt.Errorf("%w: %q has no finite position", ErrUnresolvedEndpoint, pointID)
	}
	return pos, nil
}

//
// ---------- Subscribers ----------
//

// Subscribe registers a callback for grid events. It returns an unsubscribe
// function.
func (g *Grid) Subscribe(fn func(GridEvent)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextSub++
	key := g.nextSub
	g.subs[key] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, key)
	}
}

func (g *Grid) subscribersLocked() []func(GridEvent) {
	if len(g.subs) == 0 {
		return nil
	}
	keys := make([]int, 0, len(g.subs))
	for k := range g.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]func(GridEvent), 0, len(keys))
	for _, k := range keys {
		out = append(out, g.subs[k])
	}
	return out
}

// notify runs outside the lock so subscribers may call back into the grid.
func notify(subs []func(GridEvent), ev GridEvent) {
	for _, fn := range subs {
		fn(ev)
	}
}

//
// ---------- Helpers ----------
//

// cablesTouchingLocked returns cables starting or ending at pointID in
// creation order. Caller must hold g.mu.
func (g *Grid) cablesTouchingLocked(pointID string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range g.cablesByStart[pointID] {
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range g.cablesByEnd[pointID] {
		if _, dup := seen[id]; !dup {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return g.cables[out[i]].seq < g.cables[out[j]].seq })
	return out
}

// deleteCableLocked removes a cable and its index entries. Caller must hold
// g.mu (write lock).
func (g *Grid) deleteCableLocked(id string) {
	cable, ok := g.cables[id]
	if !ok {
		return
	}
	detach(g.cablesByStart, cable.StartPointID, id)
	detach(g.cablesByEnd, cable.EndPointID, id)
	g.removePendingLocked(id)
	delete(g.cables, id)
}

func (g *Grid) removePendingLocked(id string) {
	for i, pid := range g.pending {
		if pid == id {
			g.pending = append(g.pending[:i], g.pending[i+1:]...)
			return
		}
	}
}

func detach(index map[string][]string, pointID, cableID string) {
	ids := index[pointID]
	for i, id := range ids {
		if id == cableID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(index, pointID)
		return
	}
	index[pointID] = ids
}
