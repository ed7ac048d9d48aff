// Package signal is the synchronous change-notification channel for a world.
// Every structural mutation emits exactly one Event per changed fact, on the
// caller's goroutine, before the mutating call returns. There is no queue and
// no replay; handlers observe the world mid-mutation in a consistent order.
package signal

import "github.com/gregrot/mind-fragment-sub002/types"

// Handler receives emitted events. Handlers may mutate the world (emitting
// further events reentrantly) and may close subscriptions, including their
// own, during dispatch.
type Handler func(Event)

// Subscription is a registered handler. Close is idempotent; after Close
// returns the handler will not fire again, even later within the dispatch
// that closed it.
type Subscription struct {
	hub    *Hub
	entity types.EntityID
	kind   Kind
	fn     Handler
	closed bool
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.hub.detach(s)
}

// Hub routes events to world-scoped and entity-scoped subscriptions.
// A Hub is single-threaded, like the world that owns it.
type Hub struct {
	byKind   map[Kind][]*Subscription
	byEntity map[types.EntityID][]*Subscription
}

func NewHub() *Hub {
	return &Hub{
		byKind:   make(map[Kind][]*Subscription),
		byEntity: make(map[types.EntityID][]*Subscription),
	}
}

// On registers a world-scoped handler for one kind, or for every kind when
// kind is KindAny.
func (h *Hub) On(kind Kind, fn Handler) *Subscription {
	s := &Subscription{hub: h, entity: types.NoEntity, kind: kind, fn: fn}
	h.byKind[kind] = append(h.byKind[kind], s)
	return s
}

// OnEntity registers a handler scoped to a single entity. KindAny subscribes
// to every kind for that entity. Entity-scoped subscriptions are closed in
// bulk by DropEntity when the entity is destroyed.
func (h *Hub) OnEntity(id types.EntityID, kind Kind, fn Handler) *Subscription {
	s := &Subscription{hub: h, entity: id, kind: kind, fn: fn}
	h.byEntity[id] = append(h.byEntity[id], s)
	return s
}

// Emit delivers ev synchronously: world-scoped handlers for the exact kind
// first, then world-scoped KindAny handlers, then the subject entity's
// handlers in subscription order. Subscriptions added during dispatch do not
// observe the event being dispatched.
func (h *Hub) Emit(ev Event) {
	deliver(h.byKind[ev.Kind], ev)
	if ev.Kind != KindAny {
		deliver(h.byKind[KindAny], ev)
	}
	deliverEntity(h.byEntity[ev.Entity], ev)
}

// DropEntity closes every subscription scoped to id.
func (h *Hub) DropEntity(id types.EntityID) {
	for _, s := range h.byEntity[id] {
		s.closed = true
	}
	delete(h.byEntity, id)
}

func deliver(subs []*Subscription, ev Event) {
	// The slice header is captured before dispatch so growth during a
	// handler does not feed the new entries this event.
	for _, s := range subs {
		if !s.closed {
			s.fn(ev)
		}
	}
}

func deliverEntity(subs []*Subscription, ev Event) {
	for _, s := range subs {
		if s.closed {
			continue
		}
		if s.kind == KindAny || s.kind == ev.Kind {
			s.fn(ev)
		}
	}
}

func (h *Hub) detach(s *Subscription) {
	if s.entity != types.NoEntity {
		h.byEntity[s.entity] = drop(h.byEntity[s.entity], s)
		if len(h.byEntity[s.entity]) == 0 {
			delete(h.byEntity, s.entity)
		}
		return
	}
	h.byKind[s.kind] = drop(h.byKind[s.kind], s)
}

// drop removes target into a fresh slice. Removal must not shift the old
// backing array: an Emit in flight may still be ranging over it.
func drop(subs []*Subscription, target *Subscription) []*Subscription {
	out := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
