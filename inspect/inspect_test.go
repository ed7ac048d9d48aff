package inspect_test

import (
	"testing"

	"github.com/gregrot/mind-fragment-sub002/assert"
	"github.com/gregrot/mind-fragment-sub002/gamestate"
	"github.com/gregrot/mind-fragment-sub002/inspect"
	"github.com/gregrot/mind-fragment-sub002/signal"
	"github.com/gregrot/mind-fragment-sub002/types"
)

type position struct {
	X, Y float64
}

type velocity struct {
	DX, DY float64
}

type health struct {
	Current, Max int
}

func TestSchemaReflectsComponentShape(t *testing.T) {
	schema, err := inspect.Schema(position{})
	assert.NilError(t, err)
	assert.Contains(t, string(schema), `"X"`)
	assert.Contains(t, string(schema), `"Y"`)
}

func TestSchemaMatches(t *testing.T) {
	posSchema, err := inspect.Schema(position{})
	assert.NilError(t, err)
	sameSchema, err := inspect.Schema(position{X: 99, Y: -4})
	assert.NilError(t, err)
	velSchema, err := inspect.Schema(velocity{})
	assert.NilError(t, err)

	// Schema reflection depends on the type, not the sample values.
	match, err := inspect.SchemaMatches(posSchema, sameSchema)
	assert.NilError(t, err)
	assert.True(t, match)

	match, err = inspect.SchemaMatches(posSchema, velSchema)
	assert.NilError(t, err)
	assert.False(t, match)
}

func TestSchemaMatchesRejectsMalformedInput(t *testing.T) {
	schema, err := inspect.Schema(position{})
	assert.NilError(t, err)
	_, err = inspect.SchemaMatches(schema, []byte(`{not json`))
	assert.Error(t, err)
}

func TestDumpRendersFullWorldState(t *testing.T) {
	state := gamestate.NewState(signal.NewHub())
	positions, err := gamestate.RegisterStore[position](state, "position")
	assert.NilError(t, err)
	healths, err := gamestate.RegisterStore[health](state, "health")
	assert.NilError(t, err)

	parent := state.CreateEntity()
	child := state.CreateEntity()
	assert.NilError(t, positions.Set(parent, position{X: 1.5, Y: -2}))
	assert.NilError(t, healths.Set(parent, health{Current: 10, Max: 10}))
	assert.NilError(t, positions.Set(child, position{X: 3, Y: 4}))
	assert.NilError(t, state.SetParent(child, parent))
	assert.NilError(t, state.SetEnabled(child, false))

	dump, err := inspect.Dump(state)
	assert.NilError(t, err)
	assert.Len(t, dump, 2)

	first := dump[0]
	assert.Equal(t, parent, first.ID)
	assert.True(t, first.Enabled)
	assert.Equal(t, types.NoEntity, first.Parent)
	assert.DeepEqual(t, []types.EntityID{child}, first.Children)
	assert.Len(t, first.Components, 2)
	assert.Equal(t, `{"X":1.5,"Y":-2}`, string(first.Components["position"]))
	assert.Equal(t, `{"Current":10,"Max":10}`, string(first.Components["health"]))

	second := dump[1]
	assert.Equal(t, child, second.ID)
	assert.False(t, second.Enabled)
	assert.Equal(t, parent, second.Parent)
	assert.Len(t, second.Children, 0)
	assert.Equal(t, `{"X":3,"Y":4}`, string(second.Components["position"]))
}

func TestDumpOrdersEntitiesByID(t *testing.T) {
	state := gamestate.NewState(signal.NewHub())
	var ids []types.EntityID
	for i := 0; i < 5; i++ {
		ids = append(ids, state.CreateEntity())
	}
	// Destroying from the middle perturbs the internal index order.
	assert.NilError(t, state.DestroyEntity(ids[1]))

	dump, err := inspect.Dump(state)
	assert.NilError(t, err)
	assert.Len(t, dump, 4)
	want := []types.EntityID{ids[0], ids[2], ids[3], ids[4]}
	for i, d := range dump {
		assert.Equal(t, want[i], d.ID)
	}
}
