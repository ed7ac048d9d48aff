// Package inspect is the read-only surface inspector panels consume:
// reflected component schemas, schema equality checks for clients holding
// cached schemas, and full world dumps with raw JSON component values.
package inspect

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"github.com/gregrot/mind-fragment-sub002/gamestate"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// Schema reflects the JSON schema of a component type from a sample value.
func Schema(sample any) ([]byte, error) {
	schema := jsonschema.Reflect(sample)
	bz, err := schema.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "component must be json serializable")
	}
	return bz, nil
}

// SchemaMatches reports structural equality of two JSON schemas: an empty
// diff patch means they match.
func SchemaMatches(a, b []byte) (bool, error) {
	patch, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return false, eris.Wrap(err, "cannot compare schemas")
	}
	return patch.String() == "", nil
}

// EntityDump is one entity's full state as an inspector sees it.
type EntityDump struct {
	ID         types.EntityID             `json:"id"`
	Enabled    bool                       `json:"enabled"`
	Parent     types.EntityID             `json:"parent,omitempty"`
	Children   []types.EntityID           `json:"children,omitempty"`
	Components map[string]json.RawMessage `json:"components"`
}

// Dump renders every live entity ordered by id.
func Dump(state *gamestate.State) ([]EntityDump, error) {
	ids := make([]types.EntityID, 0, state.EntityCount())
	state.EachEntity(func(id types.EntityID) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]EntityDump, 0, len(ids))
	for _, id := range ids {
		components := make(map[string]json.RawMessage)
		for _, cid := range state.ComponentsOf(id) {
			bz, err := state.EncodeComponent(cid, id)
			if err != nil {
				return nil, eris.Wrapf(err, "cannot dump entity %d", id)
			}
			components[state.ComponentName(cid)] = bz
		}
		parent, _ := state.Parent(id)
		out = append(out, EntityDump{
			ID:         id,
			Enabled:    state.Enabled(id),
			Parent:     parent,
			Children:   state.Children(id),
			Components: components,
		})
	}
	return out, nil
}
