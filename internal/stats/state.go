package stats

import "time"

// EntitySet is the displayed container collection: entities keyed by ID,
// kept in display order.
type EntitySet struct {
	order []string
	byID  map[string]*Entity
}

// NewEntitySet returns an empty set.
func NewEntitySet() *EntitySet {
	return &EntitySet{byID: make(map[string]*Entity)}
}

// Len returns the number of entities.
func (s *EntitySet) Len() int {
	return len(s.order)
}

// Get returns the entity with the given ID.
func (s *EntitySet) Get(id string) (*Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// IDs returns the entity IDs in display order.
func (s *EntitySet) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Entities returns the entities in display order. The pointers are shared
// with the set; callers must not modify them.
func (s *EntitySet) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// State is the display state shared by the stats components. It is owned by
// the Controller and only touched on the scheduler's loop.
type State struct {
	Entities *EntitySet

	// CacheTimestamp is the timestamp of the last applied snapshot.
	CacheTimestamp time.Time

	loaded     bool
	generation uint64
}

// NewState returns an empty state with no snapshot applied.
func NewState() *State {
	return &State{Entities: NewEntitySet()}
}

// Loaded reports whether any snapshot has been applied.
func (s *State) Loaded() bool {
	return s.loaded
}

// Generation returns the most recently issued load token.
func (s *State) Generation() uint64 {
	return s.generation
}

// Current reports whether token belongs to the most recently issued load.
func (s *State) Current(token uint64) bool {
	return token == s.generation
}

func (s *State) nextGeneration() uint64 {
	s.generation++
	return s.generation
}

// Apply reconciles a successful load result onto the state. Results with an
// error or a superseded token are ignored and reported with ok == false.
// full selects a rebuild instead of an incremental reconcile.
func (s *State) Apply(res LoadResult, full bool) (diff Diff, ok bool) {
	if res.Err != nil || !s.Current(res.Token) {
		return Diff{}, false
	}

	if full {
		diff = Rebuild(s.Entities, res.Snapshot.Entities)
	} else {
		diff = Reconcile(s.Entities, res.Snapshot.Entities)
	}
	s.CacheTimestamp = res.Snapshot.CacheTimestamp
	s.loaded = true
	return diff, true
}

// publish pushes the current entity list to the surface.
func publish(surface Surface, s *State, diff Diff) {
	surface.Apply(s.Entities.Entities(), diff)
}
