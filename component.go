package fragment

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/gregrot/mind-fragment-sub002/codec"
	"github.com/gregrot/mind-fragment-sub002/filter"
	"github.com/gregrot/mind-fragment-sub002/gamestate"
	"github.com/gregrot/mind-fragment-sub002/inspect"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// Component is the typed handle for one registered component type. All
// reads and writes of that type go through it.
type Component[T any] struct {
	world  *World
	store  *gamestate.Store[T]
	schema []byte
}

// DefineComponent registers a component type under a unique name and
// returns its handle. Redefining a name is an error.
func DefineComponent[T any](w *World, name string) (*Component[T], error) {
	store, err := gamestate.RegisterStore[T](w.state, name)
	if err != nil {
		return nil, err
	}
	var sample T
	schema, err := inspect.Schema(sample)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot reflect schema for component %q", name)
	}
	w.schemas[name] = schema
	return &Component[T]{world: w, store: store, schema: schema}, nil
}

// Name returns the registered component name.
func (c *Component[T]) Name() string { return c.store.Name() }

// ID returns the component's world-scoped id.
func (c *Component[T]) ID() types.ComponentID { return c.store.ID() }

// Len returns how many entities hold this component.
func (c *Component[T]) Len() int { return c.store.Len() }

// Get returns the entity's value. Absent, destroyed and foreign entities
// all report false; reads never error.
func (c *Component[T]) Get(e Entity) (T, bool) {
	if !c.world.owns(e) {
		var zero T
		return zero, false
	}
	return c.store.Get(e.id)
}

// Has reports whether the entity holds this component.
func (c *Component[T]) Has(e Entity) bool {
	return c.world.owns(e) && c.store.Has(e.id)
}

// Set writes the entity's value. The first write emits ComponentAdded, an
// overwrite emits ComponentChanged carrying the old and new values.
func (c *Component[T]) Set(e Entity, value T) error {
	if !c.world.owns(e) {
		return eris.Wrapf(gamestate.ErrForeignEntity, "cannot set component %q on entity %d", c.store.Name(), e.id)
	}
	return c.store.Set(e.id, value)
}

// Remove deletes the entity's value, emitting ComponentRemoved carrying
// it. Removing a component the entity does not hold is a no-op.
func (c *Component[T]) Remove(e Entity) error {
	if !c.world.owns(e) {
		return eris.Wrapf(gamestate.ErrForeignEntity, "cannot remove component %q from entity %d", c.store.Name(), e.id)
	}
	return c.store.Remove(e.id)
}

// Each visits every holder. Order is unspecified; return false to stop.
func (c *Component[T]) Each(fn func(Entity, T) bool) {
	c.store.Each(func(id types.EntityID, v T) bool {
		return fn(Entity{id: id, world: c.world}, v)
	})
}

// Term returns the presence clause for this component.
func (c *Component[T]) Term() filter.Term {
	return filter.Term{Component: c.store.ID(), Name: c.store.Name()}
}

// When returns a presence clause narrowed by a value predicate, evaluated
// through the store at match time.
func (c *Component[T]) When(pred func(T) bool) filter.Term {
	return filter.Term{
		Component: c.store.ID(),
		Name:      c.store.Name(),
		Match: func(id types.EntityID) bool {
			v, ok := c.store.Get(id)
			return ok && pred(v)
		},
	}
}

// Schema returns the reflected JSON schema of the component type.
func (c *Component[T]) Schema() []byte {
	return append([]byte(nil), c.schema...)
}

// ComponentRow is one entity's value of a component, JSON-encoded.
type ComponentRow struct {
	Entity types.EntityID  `json:"entity"`
	Value  json.RawMessage `json:"value"`
}

// Snapshot returns every holder's value as raw JSON, ordered by entity id.
func (c *Component[T]) Snapshot() ([]ComponentRow, error) {
	rows := make([]ComponentRow, 0, c.store.Len())
	var encodeErr error
	c.store.Each(func(id types.EntityID, v T) bool {
		bz, err := codec.Encode(v)
		if err != nil {
			encodeErr = eris.Wrapf(err, "cannot snapshot component %q for entity %d", c.store.Name(), id)
			return false
		}
		rows = append(rows, ComponentRow{Entity: id, Value: bz})
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Entity < rows[j].Entity })
	return rows, nil
}
