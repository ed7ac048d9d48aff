package fragment_test

import (
	"testing"

	fragment "github.com/gregrot/mind-fragment-sub002"
	"github.com/gregrot/mind-fragment-sub002/assert"
	"github.com/gregrot/mind-fragment-sub002/cql"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// queryWorld is the fixture most query tests share: three movers, one of
// them disabled, and one bare entity.
func queryWorld(t *testing.T) (*fragment.World, *fragment.Component[position], *fragment.Component[velocity]) {
	t.Helper()
	world := newTestWorld(t)
	positions, err := fragment.DefineComponent[position](world, "position")
	assert.NilError(t, err)
	velocities, err := fragment.DefineComponent[velocity](world, "velocity")
	assert.NilError(t, err)
	return world, positions, velocities
}

func TestQueryAllRequiresEveryTerm(t *testing.T) {
	world, positions, velocities := queryWorld(t)

	mover := world.CreateEntity()
	assert.NilError(t, positions.Set(mover, position{}))
	assert.NilError(t, velocities.Set(mover, velocity{}))

	still := world.CreateEntity()
	assert.NilError(t, positions.Set(still, position{}))

	world.CreateEntity()

	matches := world.QueryAll(positions.Term(), velocities.Term())
	assert.DeepEqual(t, []types.EntityID{mover.ID()}, entityIDs(matches))
}

func TestQueryExcludesDisabledByDefault(t *testing.T) {
	world, positions, _ := queryWorld(t)

	shown := world.CreateEntity()
	hidden := world.CreateEntity()
	assert.NilError(t, positions.Set(shown, position{}))
	assert.NilError(t, positions.Set(hidden, position{}))
	assert.NilError(t, world.Disable(hidden))

	matches := world.QueryAll(positions.Term())
	assert.DeepEqual(t, []types.EntityID{shown.ID()}, entityIDs(matches))

	q := world.Query().All(positions.Term()).IncludeDisabled()
	defer q.Release()
	assert.ElementsMatch(t,
		[]types.EntityID{shown.ID(), hidden.ID()},
		entityIDs(q.Collect()))
}

func TestQueryAnyMatchesAtLeastOnePerGroup(t *testing.T) {
	world, positions, velocities := queryWorld(t)

	posOnly := world.CreateEntity()
	assert.NilError(t, positions.Set(posOnly, position{}))
	velOnly := world.CreateEntity()
	assert.NilError(t, velocities.Set(velOnly, velocity{}))
	world.CreateEntity()

	q := world.Query().Any(positions.Term(), velocities.Term())
	defer q.Release()
	assert.ElementsMatch(t,
		[]types.EntityID{posOnly.ID(), velOnly.ID()},
		entityIDs(q.Collect()))
}

func TestQueryNoneExcludes(t *testing.T) {
	world, positions, velocities := queryWorld(t)

	mover := world.CreateEntity()
	assert.NilError(t, positions.Set(mover, position{}))
	assert.NilError(t, velocities.Set(mover, velocity{}))
	still := world.CreateEntity()
	assert.NilError(t, positions.Set(still, position{}))

	q := world.Query().All(positions.Term()).None(velocities.Term())
	defer q.Release()
	assert.DeepEqual(t, []types.EntityID{still.ID()}, entityIDs(q.Collect()))
}

func TestQueryWithParent(t *testing.T) {
	world, _, _ := queryWorld(t)

	parent := world.CreateEntity()
	child := world.CreateEntity()
	grandchild := world.CreateEntity()
	assert.NilError(t, world.SetParent(child, parent))
	assert.NilError(t, world.SetParent(grandchild, child))

	q := world.Query().WithParent(parent)
	assert.DeepEqual(t, []types.EntityID{child.ID()}, entityIDs(q.Collect()))
	q.Release()

	// The zero Entity selects the roots.
	roots := world.Query().WithParent(fragment.Entity{})
	defer roots.Release()
	assert.DeepEqual(t, []types.EntityID{parent.ID()}, entityIDs(roots.Collect()))
}

func TestQueryWithAncestorSpansSubtree(t *testing.T) {
	world, _, _ := queryWorld(t)

	root := world.CreateEntity()
	child := world.CreateEntity()
	grandchild := world.CreateEntity()
	outsider := world.CreateEntity()
	assert.NilError(t, world.SetParent(child, root))
	assert.NilError(t, world.SetParent(grandchild, child))

	q := world.Query().WithAncestor(root)
	defer q.Release()
	got := entityIDs(q.Collect())
	assert.ElementsMatch(t, []types.EntityID{child.ID(), grandchild.ID()}, got)
	assert.NotContains(t, got, outsider.ID())
}

func TestQueryInRestrictsToSet(t *testing.T) {
	world, positions, _ := queryWorld(t)

	a := world.CreateEntity()
	b := world.CreateEntity()
	c := world.CreateEntity()
	for _, e := range []fragment.Entity{a, b, c} {
		assert.NilError(t, positions.Set(e, position{}))
	}

	q := world.Query().All(positions.Term()).In(a, c)
	defer q.Release()
	assert.ElementsMatch(t, []types.EntityID{a.ID(), c.ID()}, entityIDs(q.Collect()))
}

func TestQueryWherePredicate(t *testing.T) {
	world, positions, _ := queryWorld(t)

	left := world.CreateEntity()
	right := world.CreateEntity()
	assert.NilError(t, positions.Set(left, position{X: -1}))
	assert.NilError(t, positions.Set(right, position{X: 1}))

	q := world.Query().All(positions.Term()).Where(func(e fragment.Entity) bool {
		p, _ := positions.Get(e)
		return p.X > 0
	})
	defer q.Release()
	assert.DeepEqual(t, []types.EntityID{right.ID()}, entityIDs(q.Collect()))
}

func TestQueryFirstAndCount(t *testing.T) {
	world, positions, _ := queryWorld(t)

	q := world.Query().All(positions.Term())
	defer q.Release()
	_, ok := q.First()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Count())

	e := world.CreateEntity()
	assert.NilError(t, positions.Set(e, position{}))
	first, ok := q.First()
	assert.True(t, ok)
	assert.Equal(t, e, first)
	assert.Equal(t, 1, q.Count())
}

func TestQueryEachStopsEarly(t *testing.T) {
	world, positions, _ := queryWorld(t)
	for i := 0; i < 3; i++ {
		assert.NilError(t, positions.Set(world.CreateEntity(), position{}))
	}

	q := world.Query().All(positions.Term())
	defer q.Release()
	visited := 0
	q.Each(func(fragment.Entity) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestQueryCacheRecomputesOnlyOnChange(t *testing.T) {
	world, positions, _ := queryWorld(t)
	e := world.CreateEntity()
	assert.NilError(t, positions.Set(e, position{}))

	q := world.Query().All(positions.Term())
	defer q.Release()
	assert.Equal(t, 1, q.Count())

	fired := 0
	remove := q.OnInvalidate(func() { fired++ })

	// No mutation: repeated reads serve the snapshot.
	assert.Equal(t, 1, q.Count())
	assert.Equal(t, 1, q.Count())
	assert.Equal(t, 0, fired)

	// One mutation, many reads: exactly one recompute.
	other := world.CreateEntity()
	assert.NilError(t, positions.Set(other, position{}))
	assert.Equal(t, 2, q.Count())
	assert.Equal(t, 2, q.Count())
	assert.Equal(t, 1, fired)

	remove()
	assert.NilError(t, positions.Remove(other))
	assert.Equal(t, 1, q.Count())
	assert.Equal(t, 1, fired)
}

func TestQueryReleaseResetsBuilder(t *testing.T) {
	world, positions, _ := queryWorld(t)
	e := world.CreateEntity()
	assert.NilError(t, positions.Set(e, position{}))

	q := world.Query().All(positions.Term()).Where(func(fragment.Entity) bool { return false })
	assert.Equal(t, 0, q.Count())
	q.Release()

	// A fresh checkout starts with no clauses and matches everything.
	fresh := world.Query()
	defer fresh.Release()
	assert.Equal(t, 1, fresh.Count())
}

func TestQueryStringMatchesExpressions(t *testing.T) {
	world, positions, velocities := queryWorld(t)

	mover := world.CreateEntity()
	assert.NilError(t, positions.Set(mover, position{}))
	assert.NilError(t, velocities.Set(mover, velocity{}))
	still := world.CreateEntity()
	assert.NilError(t, positions.Set(still, position{}))

	q, err := world.QueryString("CONTAINS(position) & !CONTAINS(velocity)")
	assert.NilError(t, err)
	defer q.Release()
	assert.DeepEqual(t, []types.EntityID{still.ID()}, entityIDs(q.Collect()))

	exact, err := world.QueryString("EXACT(position, velocity)")
	assert.NilError(t, err)
	defer exact.Release()
	assert.DeepEqual(t, []types.EntityID{mover.ID()}, entityIDs(exact.Collect()))
}

func TestQueryStringSeesDisabledEntities(t *testing.T) {
	world, positions, _ := queryWorld(t)

	hidden := world.CreateEntity()
	assert.NilError(t, positions.Set(hidden, position{}))
	assert.NilError(t, world.Disable(hidden))

	q, err := world.QueryString("CONTAINS(position)")
	assert.NilError(t, err)
	defer q.Release()
	assert.DeepEqual(t, []types.EntityID{hidden.ID()}, entityIDs(q.Collect()))
}

func TestQueryStringRecomputesOnTrackedChange(t *testing.T) {
	world, positions, _ := queryWorld(t)

	q, err := world.QueryString("CONTAINS(position)")
	assert.NilError(t, err)
	defer q.Release()
	assert.Equal(t, 0, q.Count())

	e := world.CreateEntity()
	assert.NilError(t, positions.Set(e, position{}))
	assert.Equal(t, 1, q.Count())
}

func TestQueryStringRejectsUnknownComponent(t *testing.T) {
	world, _, _ := queryWorld(t)

	_, err := world.QueryString("CONTAINS(ghost)")
	assert.ErrorIs(t, err, cql.ErrUnknownComponent)
}

func TestQueryStringRejectsMalformedExpression(t *testing.T) {
	world, _, _ := queryWorld(t)

	_, err := world.QueryString("CONTAINS(")
	assert.Assert(t, err != nil)
}
