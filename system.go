package fragment

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Scheduler configuration failures. All of them are fatal: a world that
// trips one is misconfigured, not unlucky.
var (
	ErrDuplicateSystem = eris.New("system name is already registered")
	ErrUnknownSystem   = eris.New("system name is not registered")
	ErrCyclicSystems   = eris.New("system dependencies form a cycle")
	ErrSystemCallback  = eris.New("system must define exactly one of Run and ForEach")
)

// System describes one unit of per-tick work. The descriptor is read once
// at registration; later mutations have no effect.
type System struct {
	// Name identifies the system in logs, metrics and ordering clauses.
	// It must be unique within the world.
	Name string

	// Group batches systems that tick together. Groups run in first-
	// registration order; the empty string means the "default" group.
	// Sub-systems always join their parent's group.
	Group string

	// Disabled and Paused seed the activity flags; the zero values leave
	// the system runnable. Toggle at runtime with SetSystemActive and
	// SetSystemPaused.
	Disabled bool
	Paused   bool

	// ProcessEmpty runs the callback even when the query matches nothing.
	ProcessEmpty bool

	// DependsOn and After order this system after the named systems;
	// Before orders it before. All names must exist in the same group by
	// the time the group first ticks.
	DependsOn []string
	Before    []string
	After     []string

	// Systems are sub-systems: they order after this system and run only
	// while every ancestor is active and unpaused.
	Systems []*System

	// Filter configures the system's query. The query is built on the
	// system's first run and kept for the life of the world. A nil Filter
	// matches nothing.
	Filter func(*Query) *Query

	// Run receives every match at once; ForEach receives them one at a
	// time and stops at the first error. Exactly one must be set.
	Run     func(*WorldContext, []Entity) error
	ForEach func(*WorldContext, Entity) error
}

// WorldContext is the view a system receives each tick.
type WorldContext struct {
	world  *World
	delta  float64
	logger zerolog.Logger
}

// Delta returns the simulation time elapsed since the previous tick.
func (ctx *WorldContext) Delta() float64 { return ctx.delta }

// World returns the ticking world.
func (ctx *WorldContext) World() *World { return ctx.world }

// Logger returns the world logger tagged with the running system's name.
func (ctx *WorldContext) Logger() *zerolog.Logger { return &ctx.logger }

// AddSystem registers a system and its sub-system tree. Registration is
// all or nothing: on error no part of the tree is registered.
func (w *World) AddSystem(sys *System) error {
	return w.scheduler.add(sys)
}

// SetSystemActive enables or disables a system at runtime. A disabled
// system and its whole sub-system tree are skipped; order is unaffected.
func (w *World) SetSystemActive(name string, active bool) error {
	node, ok := w.scheduler.byName[name]
	if !ok {
		return eris.Wrapf(ErrUnknownSystem, "system %q", name)
	}
	node.active = active
	return nil
}

// SetSystemPaused pauses or resumes a system at runtime. Pausing skips the
// system and its sub-systems but keeps their place in the order.
func (w *World) SetSystemPaused(name string, paused bool) error {
	node, ok := w.scheduler.byName[name]
	if !ok {
		return eris.Wrapf(ErrUnknownSystem, "system %q", name)
	}
	node.paused = paused
	return nil
}
