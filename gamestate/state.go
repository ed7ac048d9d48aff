package gamestate

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/gregrot/mind-fragment-sub002/signal"
	"github.com/gregrot/mind-fragment-sub002/types"
)

// State holds everything a world owns: the entity table with enabled flags
// and the parent/child hierarchy, one typed store per registered component,
// one enabled-entity index per component, and the version counters change
// detection runs on.
//
// Derived state is signal-driven: mutations write the primary tables, emit
// their signals, and the maintenance handlers registered in NewState bump
// versions and fix up indexes. Those handlers are registered before any user
// subscription, so by the time a user handler observes a signal the indexes
// and versions already reflect it.
type State struct {
	hub  *signal.Hub
	next types.EntityID

	records map[types.EntityID]*record
	alive   *entityIndex

	names        map[string]types.ComponentID
	slots        []slot
	indexes      []*entityIndex
	compVersions []types.Version

	version types.Version
}

// record is the per-entity row. comps mirrors which stores hold a value for
// the entity; it exists so destroy and enabled toggles need not scan every
// store. dying marks an entity whose teardown is in progress: reads still
// see it, mutations already reject it.
type record struct {
	enabled  bool
	dying    bool
	parent   types.EntityID
	children []types.EntityID
	comps    map[types.ComponentID]struct{}
}

func NewState(hub *signal.Hub) *State {
	s := &State{
		hub:     hub,
		next:    1,
		records: make(map[types.EntityID]*record),
		alive:   newEntityIndex(),
		names:   make(map[string]types.ComponentID),
	}
	for _, k := range []signal.Kind{signal.ComponentAdded, signal.ComponentChanged, signal.ComponentRemoved} {
		hub.On(k, s.onComponentSignal)
	}
	hub.On(signal.EnabledChanged, s.onEnabledSignal)
	for _, k := range []signal.Kind{
		signal.EntityCreated, signal.EntityDestroyed,
		signal.ParentChanged, signal.ChildAdded, signal.ChildRemoved,
	} {
		hub.On(k, s.onStructuralSignal)
	}
	return s
}

func (s *State) Hub() *signal.Hub { return s.hub }

// maintenance handlers

func (s *State) onComponentSignal(ev signal.Event) {
	s.compVersions[ev.Component-1]++
	s.version++
	switch ev.Kind {
	case signal.ComponentAdded:
		if rec, ok := s.records[ev.Entity]; ok && rec.enabled {
			s.indexes[ev.Component-1].add(ev.Entity)
		}
	case signal.ComponentRemoved:
		s.indexes[ev.Component-1].remove(ev.Entity)
	}
}

func (s *State) onEnabledSignal(ev signal.Event) {
	s.version++
	rec, ok := s.records[ev.Entity]
	if !ok {
		return
	}
	for cid := range rec.comps {
		if ev.Enabled {
			s.indexes[cid-1].add(ev.Entity)
		} else {
			s.indexes[cid-1].remove(ev.Entity)
		}
	}
}

func (s *State) onStructuralSignal(signal.Event) {
	s.version++
}

// entity lifecycle

// CreateEntity allocates a fresh entity: enabled, parentless, no components.
func (s *State) CreateEntity() types.EntityID {
	id := s.next
	s.next++
	s.records[id] = &record{enabled: true}
	s.alive.add(id)
	s.hub.Emit(signal.Event{Kind: signal.EntityCreated, Entity: id})
	return id
}

// DestroyEntity tears an entity down: detach from its parent, unparent every
// child (children are not destroyed), remove every component with its own
// removal signal, drop the record, emit EntityDestroyed, and close the
// entity's subscriptions. Destroying an already-destroyed entity is a no-op.
func (s *State) DestroyEntity(id types.EntityID) error {
	if !s.known(id) {
		return eris.Wrapf(ErrForeignEntity, "cannot destroy entity %d", id)
	}
	rec, ok := s.records[id]
	if !ok || rec.dying {
		return nil
	}
	rec.dying = true

	if rec.parent != types.NoEntity {
		s.detach(id, rec)
	}
	for _, child := range append([]types.EntityID(nil), rec.children...) {
		s.detach(child, s.records[child])
	}
	for _, cid := range sortedComps(rec) {
		s.slots[cid-1].purge(id)
	}

	delete(s.records, id)
	s.alive.remove(id)
	s.hub.Emit(signal.Event{Kind: signal.EntityDestroyed, Entity: id})
	s.hub.DropEntity(id)
	return nil
}

// Alive reports whether id refers to a live entity of this state.
func (s *State) Alive(id types.EntityID) bool {
	_, ok := s.records[id]
	return ok
}

func (s *State) EntityCount() int { return s.alive.len() }

// EachEntity visits every live entity. Order is unspecified.
func (s *State) EachEntity(fn func(types.EntityID) bool) {
	s.alive.each(fn)
}

// enabled flag

// SetEnabled toggles query visibility. Setting the current value is a no-op
// that emits nothing.
func (s *State) SetEnabled(id types.EntityID, enabled bool) error {
	rec, err := s.mutable(id)
	if err != nil {
		return eris.Wrapf(err, "cannot toggle entity %d", id)
	}
	if rec.enabled == enabled {
		return nil
	}
	rec.enabled = enabled
	s.hub.Emit(signal.Event{Kind: signal.EnabledChanged, Entity: id, Enabled: enabled})
	return nil
}

// Enabled reports the flag; destroyed and foreign entities report false.
// The flag is per-entity: a disabled ancestor does not disable descendants.
func (s *State) Enabled(id types.EntityID) bool {
	rec, ok := s.records[id]
	return ok && rec.enabled
}

// hierarchy

// SetParent reparents child under parent, or detaches when parent is
// NoEntity. Rejected: destroyed or foreign ends, self-parenting, and any
// parent inside the child's subtree. Reparenting emits ChildRemoved on the
// old parent, one ParentChanged on the child, then ChildAdded on the new
// parent.
func (s *State) SetParent(child, parent types.EntityID) error {
	rec, err := s.mutable(child)
	if err != nil {
		return eris.Wrapf(err, "cannot reparent entity %d", child)
	}
	if parent == types.NoEntity {
		if rec.parent != types.NoEntity {
			s.detach(child, rec)
		}
		return nil
	}
	if _, err := s.mutable(parent); err != nil {
		return eris.Wrapf(err, "cannot use entity %d as a parent", parent)
	}
	if parent == child {
		return eris.Wrapf(ErrSelfParent, "entity %d", child)
	}
	if s.IsAncestor(child, parent) {
		return eris.Wrapf(ErrCyclicParent, "entity %d is a descendant of entity %d", parent, child)
	}
	if rec.parent == parent {
		return nil
	}

	old := rec.parent
	if old != types.NoEntity {
		removeChild(s.records[old], child)
		s.hub.Emit(signal.Event{Kind: signal.ChildRemoved, Entity: old, Child: child})
	}
	rec.parent = parent
	s.hub.Emit(signal.Event{Kind: signal.ParentChanged, Entity: child, Parent: parent, OldParent: old})
	prec := s.records[parent]
	prec.children = append(prec.children, child)
	s.hub.Emit(signal.Event{Kind: signal.ChildAdded, Entity: parent, Child: child})
	return nil
}

// detach removes rec's entity from its current parent and clears the link.
func (s *State) detach(child types.EntityID, rec *record) {
	old := rec.parent
	removeChild(s.records[old], child)
	s.hub.Emit(signal.Event{Kind: signal.ChildRemoved, Entity: old, Child: child})
	rec.parent = types.NoEntity
	s.hub.Emit(signal.Event{Kind: signal.ParentChanged, Entity: child, Parent: types.NoEntity, OldParent: old})
}

// Parent returns the entity's parent, reporting false when it has none or
// the entity itself is gone.
func (s *State) Parent(id types.EntityID) (types.EntityID, bool) {
	rec, ok := s.records[id]
	if !ok || rec.parent == types.NoEntity {
		return types.NoEntity, false
	}
	return rec.parent, true
}

// Children returns a copy of the entity's child list in attachment order.
func (s *State) Children(id types.EntityID) []types.EntityID {
	rec, ok := s.records[id]
	if !ok || len(rec.children) == 0 {
		return nil
	}
	return append([]types.EntityID(nil), rec.children...)
}

// IsAncestor reports whether ancestor appears on id's parent chain.
// An entity is not its own ancestor.
func (s *State) IsAncestor(ancestor, id types.EntityID) bool {
	if ancestor == types.NoEntity {
		return false
	}
	for cur := id; cur != types.NoEntity; {
		rec, ok := s.records[cur]
		if !ok {
			return false
		}
		if rec.parent == ancestor {
			return true
		}
		cur = rec.parent
	}
	return false
}

// component registry views

// ComponentByName resolves a registered component name.
func (s *State) ComponentByName(name string) (types.ComponentID, bool) {
	id, ok := s.names[name]
	return id, ok
}

// ComponentName returns the registered name, or "" for an unknown id.
func (s *State) ComponentName(id types.ComponentID) string {
	if id < 1 || int(id) > len(s.slots) {
		return ""
	}
	return s.slots[id-1].name()
}

// ComponentIDs lists registered components in definition order.
func (s *State) ComponentIDs() []types.ComponentID {
	out := make([]types.ComponentID, len(s.slots))
	for i := range s.slots {
		out[i] = types.ComponentID(i + 1)
	}
	return out
}

// ComponentsOf lists the components held by an entity, in definition order.
func (s *State) ComponentsOf(id types.EntityID) []types.ComponentID {
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	return sortedComps(rec)
}

// ComponentCount reports how many component types an entity holds.
func (s *State) ComponentCount(id types.EntityID) int {
	rec, ok := s.records[id]
	if !ok {
		return 0
	}
	return len(rec.comps)
}

// HasComponent reports presence without liveness errors.
func (s *State) HasComponent(c types.ComponentID, id types.EntityID) bool {
	return s.slots[c-1].has(id)
}

// IndexLen is the size of a component's enabled-entity index.
func (s *State) IndexLen(c types.ComponentID) int {
	return s.indexes[c-1].len()
}

// EachIndexed visits the enabled entities holding component c.
func (s *State) EachIndexed(c types.ComponentID, fn func(types.EntityID) bool) {
	s.indexes[c-1].each(fn)
}

// EachWith visits every entity holding component c, enabled or not.
func (s *State) EachWith(c types.ComponentID, fn func(types.EntityID) bool) {
	s.slots[c-1].each(fn)
}

// EncodeComponent marshals one entity's value of component c.
func (s *State) EncodeComponent(c types.ComponentID, id types.EntityID) ([]byte, error) {
	return s.slots[c-1].encode(id)
}

// versions

// Version is the world change counter; it bumps on every structural signal.
func (s *State) Version() types.Version { return s.version }

// ComponentVersion bumps on add, change and remove of that component type.
func (s *State) ComponentVersion(c types.ComponentID) types.Version {
	return s.compVersions[c-1]
}

// internal

func (s *State) known(id types.EntityID) bool {
	return id != types.NoEntity && id < s.next
}

// mutable resolves id to a record that may be written. The error is the bare
// category sentinel; callers wrap it with the attempted action.
func (s *State) mutable(id types.EntityID) (*record, error) {
	if !s.known(id) {
		return nil, ErrForeignEntity
	}
	rec, ok := s.records[id]
	if !ok || rec.dying {
		return nil, ErrEntityDestroyed
	}
	return rec, nil
}

func removeChild(rec *record, child types.EntityID) {
	for i, c := range rec.children {
		if c == child {
			rec.children = append(rec.children[:i], rec.children[i+1:]...)
			return
		}
	}
}

func sortedComps(rec *record) []types.ComponentID {
	out := make([]types.ComponentID, 0, len(rec.comps))
	for cid := range rec.comps {
		out = append(out, cid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
