package signal

// Kind enumerates the structural change signals a world emits.
type Kind uint8

const (
	// KindAny matches every kind when used in a subscription. It is never
	// carried by an emitted Event.
	KindAny Kind = iota
	EntityCreated
	EntityDestroyed
	ComponentAdded
	ComponentChanged
	ComponentRemoved
	EnabledChanged
	ParentChanged
	ChildAdded
	ChildRemoved
)

var kindNames = [...]string{
	KindAny:          "any",
	EntityCreated:    "entity_created",
	EntityDestroyed:  "entity_destroyed",
	ComponentAdded:   "component_added",
	ComponentChanged: "component_changed",
	ComponentRemoved: "component_removed",
	EnabledChanged:   "enabled_changed",
	ParentChanged:    "parent_changed",
	ChildAdded:       "child_added",
	ChildRemoved:     "child_removed",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}
