// Package search builds and runs entity queries. A Search accumulates
// clauses fluently, then serves results from a cached snapshot that stays
// valid until the world version moves. Builders come from a Pool and must be
// Released when the caller is done with them; long-lived queries (system
// queries, watched inspector panels) simply keep the builder.
package search

import (
	"github.com/gregrot/mind-fragment-sub002/filter"
	"github.com/gregrot/mind-fragment-sub002/gamestate"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// snapshot is one materialized result set plus the versions it was computed
// against. Validity is the world-version fast path; the per-component
// versions record what the result actually depends on.
type snapshot struct {
	rows    []types.EntityID
	world   types.Version
	tracked []TrackedVersion
}

// TrackedVersion pairs a component referenced by the query with its version
// at compute time.
type TrackedVersion struct {
	Component types.ComponentID
	Version   types.Version
}

// Search is a single-threaded query builder and result cache.
type Search struct {
	state *gamestate.State
	spec  filter.Spec

	snap     *snapshot
	computed bool

	listeners []func()
	gen       uint64

	pool *Pool
}

// New returns an unpooled Search. Most callers should use a Pool.
func New(state *gamestate.State) *Search {
	s := &Search{}
	s.reset(state, nil)
	return s
}

func (s *Search) reset(state *gamestate.State, pool *Pool) {
	s.state = state
	s.spec.Reset()
	s.snap = nil
	s.computed = false
	s.listeners = s.listeners[:0]
	s.gen++
	s.pool = pool
}

// clause builders

// All requires every term. Calling with no terms is a no-op.
func (s *Search) All(terms ...filter.Term) *Search {
	if len(terms) > 0 {
		s.spec.All = append(s.spec.All, terms...)
		s.invalidate()
	}
	return s
}

// Any adds one at-least-one group per call. Calling with no terms is a
// no-op.
func (s *Search) Any(terms ...filter.Term) *Search {
	if len(terms) > 0 {
		s.spec.AnyOf = append(s.spec.AnyOf, terms)
		s.invalidate()
	}
	return s
}

// None excludes entities matching any term.
func (s *Search) None(terms ...filter.Term) *Search {
	if len(terms) > 0 {
		s.spec.None = append(s.spec.None, terms...)
		s.invalidate()
	}
	return s
}

// WithParent restricts to direct children of parent. NoEntity restricts to
// parentless entities.
func (s *Search) WithParent(parent types.EntityID) *Search {
	s.spec.HasParent = true
	s.spec.Parent = parent
	s.invalidate()
	return s
}

// WithAncestor restricts to entities anywhere below ancestor.
func (s *Search) WithAncestor(ancestor types.EntityID) *Search {
	s.spec.HasAncestor = true
	s.spec.Ancestor = ancestor
	s.invalidate()
	return s
}

// In restricts results to the given id set.
func (s *Search) In(ids ...types.EntityID) *Search {
	if s.spec.Members == nil {
		s.spec.Members = make(map[types.EntityID]struct{}, len(ids))
	}
	for _, id := range ids {
		s.spec.Members[id] = struct{}{}
	}
	s.invalidate()
	return s
}

// Where adds a free entity predicate.
func (s *Search) Where(pred func(types.EntityID) bool) *Search {
	s.spec.Pred = pred
	s.invalidate()
	return s
}

// Track records components the query depends on through Where, so the
// snapshot's version vector includes them.
func (s *Search) Track(components ...types.ComponentID) *Search {
	if len(components) > 0 {
		s.spec.Tracks = append(s.spec.Tracks, components...)
		s.invalidate()
	}
	return s
}

// IncludeDisabled lifts the default enabled-only policy.
func (s *Search) IncludeDisabled() *Search {
	s.spec.IncludeDisabled = true
	s.invalidate()
	return s
}

func (s *Search) invalidate() {
	s.snap = nil
}

// execution

// Collect returns the matching ids. The slice is the caller's to keep.
func (s *Search) Collect() []types.EntityID {
	rows := s.materialize()
	return append([]types.EntityID(nil), rows...)
}

// Each visits matches until fn returns false. Iteration runs over the
// snapshot, so callbacks may mutate the world; they see this query's results
// as of entry.
func (s *Search) Each(fn func(types.EntityID) bool) {
	for _, id := range s.materialize() {
		if !fn(id) {
			return
		}
	}
}

// First returns an arbitrary-but-stable first match.
func (s *Search) First() (types.EntityID, bool) {
	rows := s.materialize()
	if len(rows) == 0 {
		return types.NoEntity, false
	}
	return rows[0], true
}

// Count returns the number of matches.
func (s *Search) Count() int {
	return len(s.materialize())
}

// OnInvalidate registers fn to run when a recompute replaces this query's
// cached results. It does not fire on the first computation. The returned
// function removes the listener.
func (s *Search) OnInvalidate(fn func()) func() {
	s.listeners = append(s.listeners, fn)
	i := len(s.listeners) - 1
	gen := s.gen
	return func() {
		if s.gen == gen {
			s.listeners[i] = nil
		}
	}
}

// Release resets the builder and returns it to its pool. Using the Search
// after Release is a bug. Release on an unpooled Search is a no-op.
func (s *Search) Release() {
	if s.pool == nil {
		return
	}
	p := s.pool
	s.pool = nil
	p.put(s)
}

func (s *Search) materialize() []types.EntityID {
	if s.snap != nil && s.snap.world == s.state.Version() {
		return s.snap.rows
	}
	rows := s.evaluate()
	tracked := s.spec.Tracked()
	tv := make([]TrackedVersion, len(tracked))
	for i, c := range tracked {
		tv[i] = TrackedVersion{Component: c, Version: s.state.ComponentVersion(c)}
	}
	s.snap = &snapshot{rows: rows, world: s.state.Version(), tracked: tv}
	if s.computed {
		s.notify()
	}
	s.computed = true
	return rows
}

func (s *Search) notify() {
	listeners := s.listeners
	for _, fn := range listeners {
		if fn != nil {
			fn()
		}
	}
}

// evaluate picks the cheapest candidate source, then applies the full spec
// to each candidate: the smallest enabled index among required components;
// the first required component's whole store when disabled entities are in
// play; the deduplicated union of any-group indexes when only groups
// constrain components; the whole entity table otherwise.
func (s *Search) evaluate() []types.EntityID {
	var rows []types.EntityID
	collect := func(id types.EntityID) bool {
		if s.spec.Matches(s.state, id) {
			rows = append(rows, id)
		}
		return true
	}
	switch {
	case len(s.spec.All) > 0 && !s.spec.IncludeDisabled:
		s.state.EachIndexed(s.smallestRequired(), collect)
	case len(s.spec.All) > 0:
		s.state.EachWith(s.spec.All[0].Component, collect)
	case len(s.spec.AnyOf) > 0:
		s.eachGroupCandidate(collect)
	default:
		s.state.EachEntity(collect)
	}
	return rows
}

func (s *Search) smallestRequired() types.ComponentID {
	best := s.spec.All[0].Component
	for _, t := range s.spec.All[1:] {
		if s.state.IndexLen(t.Component) < s.state.IndexLen(best) {
			best = t.Component
		}
	}
	return best
}

func (s *Search) eachGroupCandidate(fn func(types.EntityID) bool) {
	seen := make(map[types.EntityID]struct{})
	visit := func(id types.EntityID) bool {
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		return fn(id)
	}
	for _, group := range s.spec.AnyOf {
		for _, t := range group {
			if s.spec.IncludeDisabled {
				s.state.EachWith(t.Component, visit)
			} else {
				s.state.EachIndexed(t.Component, visit)
			}
		}
	}
}
