// Package log renders world summaries as structured zerolog events.
package log

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/gregrot/mind-fragment-sub002/types"
)

// ComponentInfo is the logging view of one registered component type.
type ComponentInfo struct {
	ID   types.ComponentID
	Name string
}

// Loggable is the world surface the summary helpers read.
type Loggable interface {
	RegisteredComponents() []ComponentInfo
	RegisteredSystems() []string
}

func componentArray(components []ComponentInfo) *zerolog.Array {
	arr := zerolog.Arr()
	for _, c := range components {
		arr = arr.Dict(zerolog.Dict().
			Int("component_id", int(c.ID)).
			Str("component_name", c.Name))
	}
	return arr
}

// Components logs every registered component type at the given level.
func Components(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	components := target.RegisteredComponents()
	sort.Slice(components, func(i, j int) bool { return components[i].ID < components[j].ID })
	logger.WithLevel(level).
		Int("total_components", len(components)).
		Array("components", componentArray(components)).
		Send()
}

// Systems logs every registered system name in scheduling order.
func Systems(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	systems := target.RegisteredSystems()
	arr := zerolog.Arr()
	for _, name := range systems {
		arr = arr.Str(name)
	}
	logger.WithLevel(level).
		Int("total_systems", len(systems)).
		Array("systems", arr).
		Send()
}

// Entity logs one entity with the components it holds.
func Entity(logger *zerolog.Logger, level zerolog.Level, id types.EntityID, components []ComponentInfo) {
	logger.WithLevel(level).
		Uint64("entity_id", uint64(id)).
		Array("components", componentArray(components)).
		Send()
}

// World logs the component and system summary in one event pair. Used at
// startup so an operator can see what the world is running.
func World(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	Components(logger, target, level)
	Systems(logger, target, level)
}
