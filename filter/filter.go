// Package filter holds the clause model queries are built from. A Spec is
// pure data plus predicates; evaluation runs against the small read Index
// the world state implements.
package filter

import "github.com/gregrot/mind-fragment-sub002/types"

// Index is the read view a Spec evaluates against.
type Index interface {
	HasComponent(c types.ComponentID, id types.EntityID) bool
	Enabled(id types.EntityID) bool
	Parent(id types.EntityID) (types.EntityID, bool)
	IsAncestor(ancestor, id types.EntityID) bool
}

// Term constrains one component type: presence, optionally narrowed by a
// value predicate that the owning store evaluates.
type Term struct {
	Component types.ComponentID
	Name      string
	Match     func(types.EntityID) bool
}

// Spec is the full clause set of one query. The zero Spec matches every
// enabled entity.
type Spec struct {
	All   []Term
	AnyOf [][]Term
	None  []Term

	HasParent bool
	Parent    types.EntityID // NoEntity matches parentless entities

	HasAncestor bool
	Ancestor    types.EntityID

	Members map[types.EntityID]struct{}

	Pred func(types.EntityID) bool

	// Tracks lists components the query reads through Pred, so caches
	// still record their versions.
	Tracks []types.ComponentID

	IncludeDisabled bool
}

// Reset clears every clause, keeping slice capacity for reuse by the
// builder pool.
func (s *Spec) Reset() {
	s.All = s.All[:0]
	s.AnyOf = s.AnyOf[:0]
	s.None = s.None[:0]
	s.HasParent = false
	s.Parent = types.NoEntity
	s.HasAncestor = false
	s.Ancestor = types.NoEntity
	s.Members = nil
	s.Pred = nil
	s.Tracks = s.Tracks[:0]
	s.IncludeDisabled = false
}

// Tracked returns the deduplicated component ids referenced by any clause,
// in ascending order. Query caches record these components' versions.
func (s *Spec) Tracked() []types.ComponentID {
	seen := make(map[types.ComponentID]struct{})
	var out []types.ComponentID
	note := func(c types.ComponentID) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, t := range s.All {
		note(t.Component)
	}
	for _, group := range s.AnyOf {
		for _, t := range group {
			note(t.Component)
		}
	}
	for _, t := range s.None {
		note(t.Component)
	}
	for _, c := range s.Tracks {
		note(c)
	}
	sortComponentIDs(out)
	return out
}

// Matches evaluates every clause plus the enabled policy.
func (s *Spec) Matches(idx Index, id types.EntityID) bool {
	if !s.IncludeDisabled && !idx.Enabled(id) {
		return false
	}
	for _, t := range s.All {
		if !termMatches(idx, t, id) {
			return false
		}
	}
	for _, group := range s.AnyOf {
		matched := false
		for _, t := range group {
			if termMatches(idx, t, id) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, t := range s.None {
		if termMatches(idx, t, id) {
			return false
		}
	}
	if s.HasParent {
		pid, _ := idx.Parent(id)
		if pid != s.Parent {
			return false
		}
	}
	if s.HasAncestor && !idx.IsAncestor(s.Ancestor, id) {
		return false
	}
	if s.Members != nil {
		if _, ok := s.Members[id]; !ok {
			return false
		}
	}
	if s.Pred != nil && !s.Pred(id) {
		return false
	}
	return true
}

func termMatches(idx Index, t Term, id types.EntityID) bool {
	if !idx.HasComponent(t.Component, id) {
		return false
	}
	return t.Match == nil || t.Match(id)
}

func sortComponentIDs(ids []types.ComponentID) {
	// Insertion sort; clause lists are tiny.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
