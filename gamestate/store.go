package gamestate

import (
	"github.com/rotisserie/eris"

	"github.com/gregrot/mind-fragment-sub002/codec"
	"github.com/gregrot/mind-fragment-sub002/signal"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// slot is the type-erased view of one component store, used by destroy,
// queries over raw ids, and the debug dump.
type slot interface {
	Name() string
	has(types.EntityID) bool
	each(func(types.EntityID) bool)
	size() int
	purge(types.EntityID)
	encode(types.EntityID) ([]byte, error)
}

// Store holds every value of one component type, keyed by entity id. Stores
// are created once per name through RegisterStore and live as long as the
// state.
type Store[T any] struct {
	state  *State
	id     types.ComponentID
	name   string
	values map[types.EntityID]T
}

// RegisterStore defines a component type under a unique name and returns its
// typed store. Redefining a name is a creation-time error.
func RegisterStore[T any](s *State, name string) (*Store[T], error) {
	if name == "" {
		return nil, eris.New("component name cannot be empty")
	}
	if _, taken := s.names[name]; taken {
		return nil, eris.Wrapf(ErrComponentNameTaken, "component %q", name)
	}
	st := &Store[T]{
		state:  s,
		id:     types.ComponentID(len(s.slots) + 1),
		name:   name,
		values: make(map[types.EntityID]T),
	}
	s.slots = append(s.slots, st)
	s.indexes = append(s.indexes, newEntityIndex())
	s.compVersions = append(s.compVersions, 0)
	s.names[name] = st.id
	return st, nil
}

func (st *Store[T]) Name() string          { return st.name }
func (st *Store[T]) ID() types.ComponentID { return st.id }
func (st *Store[T]) Len() int              { return len(st.values) }

// Get returns the entity's value. Absent, destroyed and foreign entities all
// report false; reads never error.
func (st *Store[T]) Get(id types.EntityID) (T, bool) {
	v, ok := st.values[id]
	return v, ok
}

func (st *Store[T]) Has(id types.EntityID) bool {
	_, ok := st.values[id]
	return ok
}

// Set writes the entity's value. The first write emits ComponentAdded, an
// overwrite emits ComponentChanged carrying the old and new values.
func (st *Store[T]) Set(id types.EntityID, value T) error {
	rec, err := st.state.mutable(id)
	if err != nil {
		return eris.Wrapf(err, "cannot set component %q on entity %d", st.name, id)
	}
	old, existed := st.values[id]
	st.values[id] = value
	if existed {
		st.state.hub.Emit(signal.Event{
			Kind: signal.ComponentChanged, Entity: id, Component: st.id, Old: old, New: value,
		})
		return nil
	}
	if rec.comps == nil {
		rec.comps = make(map[types.ComponentID]struct{})
	}
	rec.comps[st.id] = struct{}{}
	st.state.hub.Emit(signal.Event{
		Kind: signal.ComponentAdded, Entity: id, Component: st.id, New: value,
	})
	return nil
}

// Remove deletes the entity's value and emits ComponentRemoved carrying it.
// Removing a component the entity does not hold is a no-op.
func (st *Store[T]) Remove(id types.EntityID) error {
	rec, err := st.state.mutable(id)
	if err != nil {
		return eris.Wrapf(err, "cannot remove component %q from entity %d", st.name, id)
	}
	old, ok := st.values[id]
	if !ok {
		return nil
	}
	delete(st.values, id)
	delete(rec.comps, st.id)
	st.state.hub.Emit(signal.Event{
		Kind: signal.ComponentRemoved, Entity: id, Component: st.id, Old: old,
	})
	return nil
}

// Each visits every (entity, value) pair. Order is unspecified.
func (st *Store[T]) Each(fn func(types.EntityID, T) bool) {
	for id, v := range st.values {
		if !fn(id, v) {
			return
		}
	}
}

// slot implementation

func (st *Store[T]) has(id types.EntityID) bool { return st.Has(id) }
func (st *Store[T]) size() int                  { return len(st.values) }

func (st *Store[T]) each(fn func(types.EntityID) bool) {
	for id := range st.values {
		if !fn(id) {
			return
		}
	}
}

// purge is the destroy-path removal: no liveness check, same removal signal.
func (st *Store[T]) purge(id types.EntityID) {
	old, ok := st.values[id]
	if !ok {
		return
	}
	delete(st.values, id)
	if rec, ok := st.state.records[id]; ok {
		delete(rec.comps, st.id)
	}
	st.state.hub.Emit(signal.Event{
		Kind: signal.ComponentRemoved, Entity: id, Component: st.id, Old: old,
	})
}

func (st *Store[T]) encode(id types.EntityID) ([]byte, error) {
	v, ok := st.values[id]
	if !ok {
		return nil, eris.Errorf("entity %d does not hold component %q", id, st.name)
	}
	return codec.Encode(v)
}
