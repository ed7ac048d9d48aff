package fragment

import (
	"github.com/gregrot/mind-fragment-sub002/cql"
	"github.com/gregrot/mind-fragment-sub002/filter"
	"github.com/gregrot/mind-fragment-sub002/search"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// Query is the world-level view of a search builder: the same fluent
// clauses, with Entity handles in and out. Queries come from a pool; call
// Release when done with a transient query, or keep the builder for the
// life of the world and let its cache follow the world version.
type Query struct {
	world *World
	inner *search.Search
}

// Query checks a fresh builder out of the world's pool. With no clauses it
// matches every enabled entity.
func (w *World) Query() *Query {
	return &Query{world: w, inner: w.searches.Get()}
}

// QueryAll returns every enabled entity holding all the given terms.
func (w *World) QueryAll(terms ...filter.Term) []Entity {
	q := w.Query().All(terms...)
	defer q.Release()
	return q.Collect()
}

// QueryString compiles a component expression such as
// "CONTAINS(position) & !CONTAINS(frozen)" into a query. Expression
// queries inspect everything, including disabled entities.
func (w *World) QueryString(src string) (*Query, error) {
	compiled, err := cql.Compile(src, w.state)
	if err != nil {
		return nil, err
	}
	q := w.Query()
	q.inner.
		Track(compiled.Components()...).
		Where(func(id types.EntityID) bool { return compiled.Match(w.state, id) }).
		IncludeDisabled()
	return q, nil
}

// clause builders

// All requires every term.
func (q *Query) All(terms ...filter.Term) *Query {
	q.inner.All(terms...)
	return q
}

// Any adds one at-least-one group per call.
func (q *Query) Any(terms ...filter.Term) *Query {
	q.inner.Any(terms...)
	return q
}

// None excludes entities matching any term.
func (q *Query) None(terms ...filter.Term) *Query {
	q.inner.None(terms...)
	return q
}

// WithParent restricts to direct children of parent. The zero Entity
// restricts to parentless entities.
func (q *Query) WithParent(parent Entity) *Query {
	q.inner.WithParent(parent.id)
	return q
}

// WithAncestor restricts to entities anywhere below ancestor.
func (q *Query) WithAncestor(ancestor Entity) *Query {
	q.inner.WithAncestor(ancestor.id)
	return q
}

// In restricts results to the given entities.
func (q *Query) In(entities ...Entity) *Query {
	ids := make([]types.EntityID, len(entities))
	for i, e := range entities {
		ids[i] = e.id
	}
	q.inner.In(ids...)
	return q
}

// Where adds a free entity predicate.
func (q *Query) Where(pred func(Entity) bool) *Query {
	q.inner.Where(func(id types.EntityID) bool {
		return pred(Entity{id: id, world: q.world})
	})
	return q
}

// IncludeDisabled lifts the default enabled-only policy.
func (q *Query) IncludeDisabled() *Query {
	q.inner.IncludeDisabled()
	return q
}

// execution

// Collect returns the matching entities. The slice is the caller's to
// keep.
func (q *Query) Collect() []Entity {
	out := make([]Entity, 0, q.inner.Count())
	q.inner.Each(func(id types.EntityID) bool {
		out = append(out, Entity{id: id, world: q.world})
		return true
	})
	return out
}

// Each visits matches until fn returns false. Iteration runs over the
// cached snapshot, so callbacks may freely mutate the world.
func (q *Query) Each(fn func(Entity) bool) {
	q.inner.Each(func(id types.EntityID) bool {
		return fn(Entity{id: id, world: q.world})
	})
}

// First returns an arbitrary-but-stable first match.
func (q *Query) First() (Entity, bool) {
	id, ok := q.inner.First()
	if !ok {
		return Entity{}, false
	}
	return Entity{id: id, world: q.world}, true
}

// Count returns the number of matches.
func (q *Query) Count() int { return q.inner.Count() }

// OnInvalidate registers fn to run when a recompute replaces this query's
// cached results. It does not fire on the first computation. The returned
// function removes the listener.
func (q *Query) OnInvalidate(fn func()) func() {
	return q.inner.OnInvalidate(fn)
}

// Release returns the builder to the world's pool. Using the Query after
// Release is a bug.
func (q *Query) Release() { q.inner.Release() }
