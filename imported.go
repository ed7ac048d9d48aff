package fragment

import (
	"github.com/gregrot/mind-fragment-sub002/gamestate"
	"github.com/gregrot/mind-fragment-sub002/signal"
	"github.com/gregrot/mind-fragment-sub002/types"
)

type (
	// EntityID identifies a single entity in a World. Ids are sequential
	// and never reused.
	EntityID    = types.EntityID
	ComponentID = types.ComponentID
	Version     = types.Version

	Signal       = signal.Event
	SignalKind   = signal.Kind
	Handler      = signal.Handler
	Subscription = signal.Subscription
)

// NoEntity is the id no entity ever has.
const NoEntity = types.NoEntity

const (
	KindAny          = signal.KindAny
	EntityCreated    = signal.EntityCreated
	EntityDestroyed  = signal.EntityDestroyed
	ComponentAdded   = signal.ComponentAdded
	ComponentChanged = signal.ComponentChanged
	ComponentRemoved = signal.ComponentRemoved
	EnabledChanged   = signal.EnabledChanged
	ParentChanged    = signal.ParentChanged
	ChildAdded       = signal.ChildAdded
	ChildRemoved     = signal.ChildRemoved
)

// Lifecycle failures surface from the state layer; they are re-exported so
// callers need only this package for eris.Is tests.
var (
	ErrForeignEntity      = gamestate.ErrForeignEntity
	ErrEntityDestroyed    = gamestate.ErrEntityDestroyed
	ErrSelfParent         = gamestate.ErrSelfParent
	ErrCyclicParent       = gamestate.ErrCyclicParent
	ErrComponentNameTaken = gamestate.ErrComponentNameTaken
)
