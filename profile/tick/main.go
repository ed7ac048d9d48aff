// Profiling:
// go build ./profile/tick
// go tool pprof -http=":8000" -nodefraction=0.001 ./tick cpu.pprof

package main

import (
	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	fragment "github.com/gregrot/mind-fragment-sub002"
)

type position struct {
	X, Y float64
}

type velocity struct {
	DX, DY float64
}

func main() {
	entities := 10000
	ticks := 10000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(entities, ticks)
	p.Stop()
}

func run(numEntities, ticks int) {
	world, err := fragment.NewWorld(fragment.WithLogger(zerolog.Nop()))
	if err != nil {
		panic(err)
	}
	positions, err := fragment.DefineComponent[position](world, "position")
	if err != nil {
		panic(err)
	}
	velocities, err := fragment.DefineComponent[velocity](world, "velocity")
	if err != nil {
		panic(err)
	}

	err = world.AddSystem(&fragment.System{
		Name: "movement",
		Filter: func(q *fragment.Query) *fragment.Query {
			return q.All(positions.Term(), velocities.Term())
		},
		ForEach: func(ctx *fragment.WorldContext, e fragment.Entity) error {
			pos, _ := positions.Get(e)
			vel, _ := velocities.Get(e)
			pos.X += vel.DX * ctx.Delta()
			pos.Y += vel.DY * ctx.Delta()
			return positions.Set(e, pos)
		},
	})
	if err != nil {
		panic(err)
	}

	for i := 0; i < numEntities; i++ {
		e := world.CreateEntity()
		if err := positions.Set(e, position{}); err != nil {
			panic(err)
		}
		if err := velocities.Set(e, velocity{DX: 1, DY: -1}); err != nil {
			panic(err)
		}
	}

	for i := 0; i < ticks; i++ {
		if err := world.RunSystems(1.0 / 60.0); err != nil {
			panic(err)
		}
	}
}
