package gamestate

import "github.com/gregrot/mind-fragment-sub002/types"

// entityIndex is an ordered id set with O(1) membership, add and remove.
// Removal swaps with the last element, so iteration order is unspecified.
type entityIndex struct {
	ids []types.EntityID
	pos map[types.EntityID]int
}

func newEntityIndex() *entityIndex {
	return &entityIndex{pos: make(map[types.EntityID]int)}
}

func (x *entityIndex) add(id types.EntityID) {
	if _, ok := x.pos[id]; ok {
		return
	}
	x.pos[id] = len(x.ids)
	x.ids = append(x.ids, id)
}

func (x *entityIndex) remove(id types.EntityID) {
	i, ok := x.pos[id]
	if !ok {
		return
	}
	last := len(x.ids) - 1
	x.ids[i] = x.ids[last]
	x.pos[x.ids[i]] = i
	x.ids = x.ids[:last]
	delete(x.pos, id)
}

func (x *entityIndex) has(id types.EntityID) bool {
	_, ok := x.pos[id]
	return ok
}

func (x *entityIndex) len() int {
	return len(x.ids)
}

func (x *entityIndex) each(fn func(types.EntityID) bool) {
	for _, id := range x.ids {
		if !fn(id) {
			return
		}
	}
}
