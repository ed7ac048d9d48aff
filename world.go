// Package fragment is an entity-component-system runtime for real-time
// simulations. A World owns the entity table, typed component stores, a
// synchronous signal hub, cached queries and a dependency-ordered system
// scheduler; RunSystems advances the simulation one tick at a time on the
// caller's goroutine.
package fragment

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/gregrot/mind-fragment-sub002/gamestate"
	"github.com/gregrot/mind-fragment-sub002/inspect"
	"github.com/gregrot/mind-fragment-sub002/log"
	"github.com/gregrot/mind-fragment-sub002/search"
	"github.com/gregrot/mind-fragment-sub002/signal"
	"github.com/gregrot/mind-fragment-sub002/statsd"
	"github.com/gregrot/mind-fragment-sub002/types"
)

type World struct {
	id           uuid.UUID
	cfg          WorldConfig
	logger       zerolog.Logger
	customLogger bool

	// Core modules
	hub       *signal.Hub
	state     *gamestate.State
	scheduler *scheduler
	searches  *search.Pool
	schemas   map[string][]byte

	// Tick
	tick          uint64
	statsdEnabled bool
	summaryLogged bool
}

// NewWorld creates a new World. Configuration is loaded from the
// environment (and an optional TOML file) first; options override it.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg, err := loadWorldConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config to start world")
	}

	hub := signal.NewHub()
	w := &World{
		id:      uuid.New(),
		cfg:     cfg,
		hub:     hub,
		state:   gamestate.NewState(hub),
		schemas: make(map[string][]byte),
	}
	w.scheduler = newScheduler(w)
	w.searches = search.NewPool(w.state)

	for _, opt := range opts {
		opt(w)
	}

	if err := w.cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "failed to validate config")
	}
	if !w.customLogger {
		w.logger = newWorldLogger(w.cfg, w.id)
	}

	if w.cfg.StatsdAddress != "" || w.cfg.TraceAddress != "" {
		tags := []string{"world_name:" + w.cfg.WorldName, "world_id:" + w.id.String()}
		if err := statsd.Init(w.cfg.StatsdAddress, w.cfg.TraceAddress, tags); err != nil {
			return nil, eris.Wrap(err, "unable to init statsd")
		}
		w.statsdEnabled = true
	} else {
		w.logger.Warn().Msg("statsd is disabled")
	}

	w.logger.Info().Msgf("Created world %q", w.cfg.WorldName)
	return w, nil
}

func newWorldLogger(cfg WorldConfig, id uuid.UUID) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).Level(cfg.logLevel()).With().
		Timestamp().
		Str("world", cfg.WorldName).
		Str("world_id", id.String()).
		Logger()
}

// Name returns the configured world name.
func (w *World) Name() string { return w.cfg.WorldName }

// ID returns this world instance's correlation id.
func (w *World) ID() string { return w.id.String() }

// Logger returns the world logger.
func (w *World) Logger() *zerolog.Logger { return &w.logger }

// Tick returns the number of completed RunSystems calls.
func (w *World) Tick() uint64 { return w.tick }

// owns reports whether the handle was issued by this world. The zero
// Entity is never owned.
func (w *World) owns(e Entity) bool {
	return e.world == w && e.id != types.NoEntity
}

// entities

// CreateEntity allocates a new enabled, parentless entity and emits
// EntityCreated.
func (w *World) CreateEntity() Entity {
	return Entity{id: w.state.CreateEntity(), world: w}
}

// DestroyEntity tears the entity down: it is detached from its parent, its
// children are detached (not destroyed), its components are removed one by
// one, and its entity-scoped subscriptions are dropped. Destroying an
// already destroyed entity is a no-op.
func (w *World) DestroyEntity(e Entity) error {
	if !w.owns(e) {
		return eris.Wrapf(gamestate.ErrForeignEntity, "cannot destroy entity %d", e.id)
	}
	return w.state.DestroyEntity(e.id)
}

// HasEntity reports whether the handle refers to a live entity of this
// world.
func (w *World) HasEntity(e Entity) bool {
	return w.owns(e) && w.state.Alive(e.id)
}

// GetEntityByID resolves an id to a handle. Destroyed and never-issued ids
// report false.
func (w *World) GetEntityByID(id types.EntityID) (Entity, bool) {
	if !w.state.Alive(id) {
		return Entity{}, false
	}
	return Entity{id: id, world: w}, true
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int { return w.state.EntityCount() }

// hierarchy

// SetParent makes child a child of parent. The zero Entity as parent
// detaches. Reparenting onto itself or into the child's own subtree is an
// error.
func (w *World) SetParent(child, parent Entity) error {
	if !w.owns(child) {
		return eris.Wrapf(gamestate.ErrForeignEntity, "cannot reparent entity %d", child.id)
	}
	if parent != (Entity{}) && parent.world != w {
		return eris.Wrapf(gamestate.ErrForeignEntity, "cannot use entity %d as a parent", parent.id)
	}
	return w.state.SetParent(child.id, parent.id)
}

// ClearParent detaches the entity from its parent, if any.
func (w *World) ClearParent(child Entity) error {
	return w.SetParent(child, Entity{})
}

// Parent returns the entity's parent; false when it has none.
func (w *World) Parent(e Entity) (Entity, bool) {
	if !w.owns(e) {
		return Entity{}, false
	}
	pid, ok := w.state.Parent(e.id)
	if !ok {
		return Entity{}, false
	}
	return Entity{id: pid, world: w}, true
}

// Children returns the entity's children in attachment order. The slice is
// the caller's to keep.
func (w *World) Children(e Entity) []Entity {
	if !w.owns(e) {
		return nil
	}
	ids := w.state.Children(e.id)
	out := make([]Entity, len(ids))
	for i, id := range ids {
		out[i] = Entity{id: id, world: w}
	}
	return out
}

// enabled state

// Enable marks the entity enabled. Enabling an already enabled entity is a
// no-op and emits nothing.
func (w *World) Enable(e Entity) error { return w.setEnabled(e, true) }

// Disable marks the entity disabled, removing it from default query
// results. Children keep their own flags.
func (w *World) Disable(e Entity) error { return w.setEnabled(e, false) }

func (w *World) setEnabled(e Entity, enabled bool) error {
	if !w.owns(e) {
		return eris.Wrapf(gamestate.ErrForeignEntity, "cannot toggle entity %d", e.id)
	}
	return w.state.SetEnabled(e.id, enabled)
}

// IsEnabled reports the entity's own enabled flag. Destroyed and foreign
// entities report false.
func (w *World) IsEnabled(e Entity) bool {
	return w.owns(e) && w.state.Enabled(e.id)
}

// signals

// OnSignal subscribes to world signals of the given kind. KindAny matches
// every kind.
func (w *World) OnSignal(kind signal.Kind, handler signal.Handler) *signal.Subscription {
	return w.hub.On(kind, handler)
}

// OnEntitySignal subscribes to signals scoped to one entity. The
// subscription is closed automatically when the entity is destroyed.
func (w *World) OnEntitySignal(e Entity, kind signal.Kind, handler signal.Handler) (*signal.Subscription, error) {
	if !w.owns(e) {
		return nil, eris.Wrapf(gamestate.ErrForeignEntity, "cannot subscribe to entity %d", e.id)
	}
	if !w.state.Alive(e.id) {
		return nil, eris.Wrapf(gamestate.ErrEntityDestroyed, "cannot subscribe to entity %d", e.id)
	}
	return w.hub.OnEntity(e.id, kind, handler), nil
}

// versions

// Version returns the world version. It bumps on every structural change:
// entity create/destroy, component add/change/remove, enable/disable, and
// every hierarchy edit.
func (w *World) Version() types.Version { return w.state.Version() }

// ComponentVersion returns the named type's version, bumped only by
// add/change/remove of that type.
func (w *World) ComponentVersion(c types.ComponentID) types.Version {
	return w.state.ComponentVersion(c)
}

// ticking

// RunSystems advances the simulation by one tick: every registered group
// runs in registration order, each in its resolved dependency order, with
// delta as the elapsed simulation time. A system error aborts the tick.
func (w *World) RunSystems(delta float64) error {
	startTime := time.Now()

	span := tracer.StartSpan("fragment.span.tick")
	defer span.Finish()

	if !w.summaryLogged {
		log.World(&w.logger, w, zerolog.DebugLevel)
		w.summaryLogged = true
	}
	w.logger.Debug().Uint64("tick", w.tick).Float64("delta", delta).Msg("Tick started")

	if err := w.scheduler.run(delta); err != nil {
		return eris.Wrapf(err, "tick %d failed", w.tick)
	}

	w.tick++
	statsd.EmitTickStat(startTime, "full_tick")
	return nil
}

// logging and inspection surface

// RegisteredComponents returns the logging view of every registered
// component type.
func (w *World) RegisteredComponents() []log.ComponentInfo {
	ids := w.state.ComponentIDs()
	out := make([]log.ComponentInfo, len(ids))
	for i, id := range ids {
		out[i] = log.ComponentInfo{ID: id, Name: w.state.ComponentName(id)}
	}
	return out
}

// RegisteredSystems returns every system name in scheduling order.
func (w *World) RegisteredSystems() []string {
	return w.scheduler.systemNames()
}

// DebugDump renders the full world state for inspector panels.
func (w *World) DebugDump() ([]inspect.EntityDump, error) {
	return inspect.Dump(w.state)
}

// ValidateSchema checks a client-held schema for the named component
// against the live registration.
func (w *World) ValidateSchema(name string, schema []byte) (bool, error) {
	current, ok := w.schemas[name]
	if !ok {
		return false, eris.Errorf("component %q is not registered", name)
	}
	return inspect.SchemaMatches(current, schema)
}

// Shutdown flushes metrics and stops the tracer. The world itself needs no
// teardown.
func (w *World) Shutdown() error {
	w.logger.Info().Msg("Shutting down world")
	if w.statsdEnabled {
		w.statsdEnabled = false
		if err := statsd.Close(); err != nil {
			return err
		}
	}
	return nil
}
