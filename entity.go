package fragment

import "github.com/gregrot/mind-fragment-sub002/types"

// Entity is a handle to one entity in a World. Handles are plain values
// and safe to copy; the zero Entity belongs to no world and fails every
// ownership check.
type Entity struct {
	id    types.EntityID
	world *World
}

// ID returns the world-unique id. Ids of destroyed entities are never
// reused.
func (e Entity) ID() types.EntityID { return e.id }
