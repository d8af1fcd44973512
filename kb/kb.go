package kb

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/signalsfoundry/cablegrid/model"
)

var (
	// ErrStructureNotFound is returned when a structure ID is unknown.
	ErrStructureNotFound = errors.New("structure not found")
	// ErrStructureExists is returned when adding a structure whose ID is taken.
	ErrStructureExists = errors.New("structure already exists")
	// ErrStructureChained is returned when a predecessor already has a
	// successor.
	ErrStructureChained = errors.New("structure already chained")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventStructureAdded EventType = iota
	EventStructureReady
	EventStructureRemoved
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type      EventType
	Structure model.Structure
}

// KnowledgeBase is an in-memory, thread-safe store for structures.
type KnowledgeBase struct {
	mu sync.RWMutex

	structures map[string]*model.Structure
	// next records, for each structure, the one chained after it.
	next map[string]string
	seq  uint64

	subs    map[int]func(Event)
	nextSub int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		structures: make(map[string]*model.Structure),
		next:       make(map[string]string),
		subs:       make(map[int]func(Event)),
	}
}

// AddStructure stores a copy of s. An empty ID is assigned as "tower-N".
// s.Prev, if set, must name an existing structure without a successor.
func (kb *KnowledgeBase) AddStructure(s *model.Structure) (string, error) {
	if s == nil {
		return "", errors.New("nil structure")
	}

	kb.mu.Lock()
	if s.ID == "" {
		kb.seq++
		s.ID = "tower-" + strconv.FormatUint(kb.seq, 10)
		for kb.structures[s.ID] != nil {
			kb.seq++
			s.ID = "tower-" + strconv.FormatUint(kb.seq, 10)
		}
	}
	if _, exists := kb.structures[s.ID]; exists {
		kb.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrStructureExists, s.ID)
	}
	if s.Prev != "" {
		if _, ok := kb.structures[s.Prev]; !ok {
			kb.mu.Unlock()
			return "", fmt.Errorf("%w: predecessor %q", ErrStructureNotFound, s.Prev)
		}
		if succ, taken := kb.next[s.Prev]; taken {
			kb.mu.Unlock()
			return "", fmt.Errorf("%w: %q to %q", ErrStructureChained, s.Prev, succ)
		}
		kb.next[s.Prev] = s.ID
	}

	stored := copyStructure(s)
	kb.structures[s.ID] = stored
	event := Event{Type: EventStructureAdded, Structure: *copyStructure(stored)}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, event)
	return s.ID, nil
}

// GetStructure returns a copy of the structure, or nil if not found.
func (kb *KnowledgeBase) GetStructure(id string) *model.Structure {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	s, ok := kb.structures[id]
	if !ok {
		return nil
	}
	return copyStructure(s)
}

// ListStructures returns a snapshot of all structures sorted by ID.
func (kb *KnowledgeBase) ListStructures() []*model.Structure {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.Structure, 0, len(kb.structures))
	for _, s := range kb.structures {
		res = append(res, copyStructure(s))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Count returns the number of stored structures.
func (kb *KnowledgeBase) Count() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.structures)
}

// SetConnectionPoints records the structure's connection point IDs.
func (kb *KnowledgeBase) SetConnectionPoints(id string, pointIDs []string) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	s, ok := kb.structures[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrStructureNotFound, id)
	}
	s.ConnectionPointIDs = append([]string(nil), pointIDs...)
	return nil
}

// MarkReady flags a structure as ready and notifies subscribers. It reports
// whether the flag changed.
func (kb *KnowledgeBase) MarkReady(id string) (bool, error) {
	kb.mu.Lock()
	s, ok := kb.structures[id]
	if !ok {
		kb.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrStructureNotFound, id)
	}
	if s.Ready {
		kb.mu.Unlock()
		return false, nil
	}
	s.Ready = true
	event := Event{Type: EventStructureReady, Structure: *copyStructure(s)}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	notify(subs, event)
	return true, nil
}

// Successor returns the structure chained after id, or nil.
func (kb *KnowledgeBase) Successor(id string) *model.Structure {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	succ, ok := kb.next[id]
	if !ok {
		return nil
	}
	return copyStructure(kb.structures[succ])
}

// DeleteStructure removes a structure and unlinks it from the chain. Its
// successor, if any, loses its predecessor.
func (kb *KnowledgeBase) DeleteStructure(id string) (*model.Structure, error) {
	kb.mu.Lock()
	s, ok := kb.structures[id]
	if !ok {
		kb.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrStructureNotFound, id)
	}

	if s.Prev != "" && kb.next[s.Prev] == id {
		delete(kb.next, s.Prev)
	}
	if succ, ok := kb.next[id]; ok {
		if n := kb.structures[succ]; n != nil {
			n.Prev = ""
		}
		delete(kb.next, id)
	}
	delete(kb.structures, id)

	removed := copyStructure(s)
	event := Event{Type: EventStructureRemoved, Structure: *copyStructure(s)}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, event)
	return removed, nil
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.nextSub++
	key := kb.nextSub
	kb.subs[key] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, key)
	}
}

func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	keys := make([]int, 0, len(kb.subs))
	for k := range kb.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		out = append(out, kb.subs[k])
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

func copyStructure(s *model.Structure) *model.Structure {
	if s == nil {
		return nil
	}
	out := *s
	out.ConnectionPointIDs = append([]string(nil), s.ConnectionPointIDs...)
	return &out
}
