package search

import (
	"sync"

	"github.com/gregrot/mind-fragment-sub002/gamestate"
)

// Pool recycles Search builders for one world. Checkout resets the builder
// completely; nothing from the previous life survives, including
// invalidation listeners.
type Pool struct {
	state *gamestate.State
	pool  sync.Pool
}

func NewPool(state *gamestate.State) *Pool {
	p := &Pool{state: state}
	p.pool.New = func() any { return &Search{} }
	return p
}

// Get checks a reset builder out of the pool.
func (p *Pool) Get() *Search {
	s := p.pool.Get().(*Search)
	s.reset(p.state, p)
	return s
}

func (p *Pool) put(s *Search) {
	p.pool.Put(s)
}
