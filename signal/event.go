package signal

import "github.com/gregrot/mind-fragment-sub002/types"

// Event is the payload delivered to handlers. Entity is always the subject
// of the change; the remaining fields are populated per kind:
//
//   - ComponentAdded/Changed/Removed: Component, Old (nil on add), New
//     (nil on remove).
//   - EnabledChanged: Enabled holds the new flag.
//   - ParentChanged: Entity is the child, Parent the new parent (NoEntity
//     when detached), OldParent the previous one.
//   - ChildAdded/ChildRemoved: Entity is the parent, Child the child.
type Event struct {
	Kind      Kind
	Entity    types.EntityID
	Component types.ComponentID
	Old       any
	New       any
	Enabled   bool
	Parent    types.EntityID
	OldParent types.EntityID
	Child     types.EntityID
}
