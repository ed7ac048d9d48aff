package cql_test

import (
	"testing"

	"github.com/gregrot/mind-fragment-sub002/assert"
	"github.com/gregrot/mind-fragment-sub002/cql"
	"github.com/gregrot/mind-fragment-sub002/types"
)

const (
	posID types.ComponentID = 1
	velID types.ComponentID = 2
	tagID types.ComponentID = 3
)

type fakeWorld struct {
	names map[string]types.ComponentID
	comps map[types.EntityID][]types.ComponentID
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		names: map[string]types.ComponentID{
			"position": posID,
			"velocity": velID,
			"frozen":   tagID,
		},
		comps: map[types.EntityID][]types.ComponentID{
			1: {posID, velID},
			2: {posID},
			3: {posID, velID, tagID},
			4: {},
		},
	}
}

func (f *fakeWorld) ComponentByName(name string) (types.ComponentID, bool) {
	id, ok := f.names[name]
	return id, ok
}

func (f *fakeWorld) HasComponent(c types.ComponentID, id types.EntityID) bool {
	for _, held := range f.comps[id] {
		if held == c {
			return true
		}
	}
	return false
}

func (f *fakeWorld) ComponentCount(id types.EntityID) int {
	return len(f.comps[id])
}

func matchSet(t *testing.T, w *fakeWorld, src string) []types.EntityID {
	t.Helper()
	q, err := cql.Compile(src, w)
	assert.NilError(t, err)
	var out []types.EntityID
	for id := types.EntityID(1); id <= 4; id++ {
		if q.Match(w, id) {
			out = append(out, id)
		}
	}
	return out
}

func TestCompileAndMatch(t *testing.T) {
	w := newFakeWorld()

	tests := []struct {
		src  string
		want []types.EntityID
	}{
		{"CONTAINS(position)", []types.EntityID{1, 2, 3}},
		{"CONTAINS(position, velocity)", []types.EntityID{1, 3}},
		{"EXACT(position)", []types.EntityID{2}},
		{"EXACT(position, velocity)", []types.EntityID{1}},
		{"ALL()", []types.EntityID{1, 2, 3, 4}},
		{"!CONTAINS(frozen)", []types.EntityID{1, 2, 4}},
		{"CONTAINS(position) & !CONTAINS(frozen)", []types.EntityID{1, 2}},
		{"EXACT(position) | CONTAINS(frozen)", []types.EntityID{2, 3}},
		{"(CONTAINS(velocity) | CONTAINS(frozen)) & CONTAINS(position)", []types.EntityID{1, 3}},
		{"  CONTAINS( position )  ", []types.EntityID{1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.DeepEqual(t, matchSet(t, w, tc.src), tc.want)
		})
	}
}

func TestOperatorsChainLeftToRight(t *testing.T) {
	w := newFakeWorld()

	// No precedence: a | b & c reads as (a | b) & c.
	got := matchSet(t, w, "EXACT(position) | CONTAINS(velocity) & !CONTAINS(frozen)")
	assert.DeepEqual(t, got, []types.EntityID{1, 2})
}

func TestCompileErrors(t *testing.T) {
	w := newFakeWorld()

	_, err := cql.Compile("CONTAINS(mystery)", w)
	assert.ErrorIs(t, err, cql.ErrUnknownComponent)

	_, err = cql.Compile("CONTAINS(position) &", w)
	assert.ErrorContains(t, err, "cannot parse")

	_, err = cql.Compile("", w)
	assert.ErrorContains(t, err, "empty")

	_, err = cql.Compile("BETWIXT(position)", w)
	assert.ErrorContains(t, err, "cannot parse")
}

func TestComponentsAreSortedAndDeduplicated(t *testing.T) {
	w := newFakeWorld()

	q, err := cql.Compile("CONTAINS(velocity, position) | CONTAINS(position, frozen)", w)
	assert.NilError(t, err)
	assert.DeepEqual(t, q.Components(), []types.ComponentID{posID, velID, tagID})

	// The returned slice is a copy.
	q.Components()[0] = 99
	assert.DeepEqual(t, q.Components(), []types.ComponentID{posID, velID, tagID})
}
