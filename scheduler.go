package fragment

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/gregrot/mind-fragment-sub002/statsd"
)

const defaultGroup = "default"

// systemNode is the registered form of one System.
type systemNode struct {
	spec   *System
	parent *systemNode

	active bool
	paused bool

	query      *Query
	queryBuilt bool
}

// runnable reports whether the node and its whole ancestor chain are
// active and unpaused.
func (n *systemNode) runnable() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.active || cur.paused {
			return false
		}
	}
	return true
}

// systemGroup holds one group's systems in registration order plus the
// cached scheduling order.
type systemGroup struct {
	name   string
	nodes  []*systemNode
	sorted []*systemNode
	dirty  bool
}

type scheduler struct {
	world       *World
	groups      []*systemGroup
	groupByName map[string]*systemGroup
	byName      map[string]*systemNode
}

func newScheduler(w *World) *scheduler {
	return &scheduler{
		world:       w,
		groupByName: make(map[string]*systemGroup),
		byName:      make(map[string]*systemNode),
	}
}

// add validates the whole sub-system tree before registering any of it, so
// a bad descriptor leaves the scheduler untouched.
func (s *scheduler) add(sys *System) error {
	specs := flattenSystems(sys, nil)
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return eris.New("system name cannot be empty")
		}
		if (spec.Run == nil) == (spec.ForEach == nil) {
			return eris.Wrapf(ErrSystemCallback, "system %q", spec.Name)
		}
		if _, dup := seen[spec.Name]; dup {
			return eris.Wrapf(ErrDuplicateSystem, "system %q", spec.Name)
		}
		if _, dup := s.byName[spec.Name]; dup {
			return eris.Wrapf(ErrDuplicateSystem, "system %q", spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}

	group := s.group(groupName(sys.Group))
	s.register(group, sys, nil)
	group.dirty = true
	return nil
}

// flattenSystems returns the tree in depth-first registration order.
func flattenSystems(sys *System, acc []*System) []*System {
	acc = append(acc, sys)
	for _, child := range sys.Systems {
		acc = flattenSystems(child, acc)
	}
	return acc
}

func groupName(name string) string {
	if name == "" {
		return defaultGroup
	}
	return name
}

func (s *scheduler) group(name string) *systemGroup {
	if g, ok := s.groupByName[name]; ok {
		return g
	}
	g := &systemGroup{name: name}
	s.groupByName[name] = g
	s.groups = append(s.groups, g)
	return g
}

func (s *scheduler) register(g *systemGroup, spec *System, parent *systemNode) {
	node := &systemNode{
		spec:   spec,
		parent: parent,
		active: !spec.Disabled,
		paused: spec.Paused,
	}
	g.nodes = append(g.nodes, node)
	s.byName[spec.Name] = node
	for _, child := range spec.Systems {
		s.register(g, child, node)
	}
}

// run resolves every dirty group's order, then ticks all groups. Orders
// resolve up front so a configuration error aborts the tick before any
// system has run.
func (s *scheduler) run(delta float64) error {
	for _, g := range s.groups {
		if !g.dirty {
			continue
		}
		sorted, err := g.topoSort()
		if err != nil {
			return err
		}
		g.sorted = sorted
		g.dirty = false
	}
	for _, g := range s.groups {
		for _, node := range g.sorted {
			if !node.runnable() {
				continue
			}
			if err := s.runSystem(node, delta); err != nil {
				return eris.Wrapf(err, "system %s generated an error", node.spec.Name)
			}
		}
	}
	return nil
}

func (s *scheduler) runSystem(node *systemNode, delta float64) error {
	start := time.Now()
	name := node.spec.Name

	ctx := &WorldContext{
		world:  s.world,
		delta:  delta,
		logger: s.world.logger.With().Str("system", name).Logger(),
	}

	if !node.queryBuilt {
		if node.spec.Filter != nil {
			node.query = node.spec.Filter(s.world.Query())
		}
		node.queryBuilt = true
	}

	var matches []Entity
	if node.query != nil {
		matches = node.query.Collect()
	}
	if len(matches) == 0 && !node.spec.ProcessEmpty {
		return nil
	}

	if node.spec.Run != nil {
		if err := node.spec.Run(ctx, matches); err != nil {
			return err
		}
	} else {
		for _, e := range matches {
			if err := node.spec.ForEach(ctx, e); err != nil {
				return err
			}
		}
	}

	statsd.EmitSystemStat(start, name)
	return nil
}

// topoSort orders the group so every DependsOn/Before/After clause and
// parent relation is satisfied. Ready systems drain in registration order,
// which makes the result deterministic.
func (g *systemGroup) topoSort() ([]*systemNode, error) {
	n := len(g.nodes)
	local := make(map[string]int, n)
	for i, node := range g.nodes {
		local[node.spec.Name] = i
	}

	succ := make([][]int, n)
	indeg := make([]int, n)
	addEdge := func(before, after int) {
		succ[before] = append(succ[before], after)
		indeg[after]++
	}

	for i, node := range g.nodes {
		for _, dep := range node.spec.DependsOn {
			j, ok := local[dep]
			if !ok {
				return nil, eris.Wrapf(ErrUnknownSystem,
					"system %q depends on %q in group %q", node.spec.Name, dep, g.name)
			}
			addEdge(j, i)
		}
		for _, dep := range node.spec.After {
			j, ok := local[dep]
			if !ok {
				return nil, eris.Wrapf(ErrUnknownSystem,
					"system %q runs after %q in group %q", node.spec.Name, dep, g.name)
			}
			addEdge(j, i)
		}
		for _, target := range node.spec.Before {
			j, ok := local[target]
			if !ok {
				return nil, eris.Wrapf(ErrUnknownSystem,
					"system %q runs before %q in group %q", node.spec.Name, target, g.name)
			}
			addEdge(i, j)
		}
		if node.parent != nil {
			addEdge(local[node.parent.spec.Name], i)
		}
	}

	sorted := make([]*systemNode, 0, n)
	emitted := make([]bool, n)
	for len(sorted) < n {
		ready := -1
		for i := 0; i < n; i++ {
			if !emitted[i] && indeg[i] == 0 {
				ready = i
				break
			}
		}
		if ready < 0 {
			return nil, g.cycleError(emitted)
		}
		emitted[ready] = true
		sorted = append(sorted, g.nodes[ready])
		for _, j := range succ[ready] {
			indeg[j]--
		}
	}
	return sorted, nil
}

// cycleError names the first system stuck in the cycle.
func (g *systemGroup) cycleError(emitted []bool) error {
	for i, node := range g.nodes {
		if !emitted[i] {
			return eris.Wrapf(ErrCyclicSystems, "group %q, system %q", g.name, node.spec.Name)
		}
	}
	return eris.Wrapf(ErrCyclicSystems, "group %q", g.name)
}

// systemNames returns every system name: groups in registration order,
// systems in scheduling order once resolved.
func (s *scheduler) systemNames() []string {
	var out []string
	for _, g := range s.groups {
		nodes := g.sorted
		if g.dirty || nodes == nil {
			nodes = g.nodes
		}
		for _, node := range nodes {
			out = append(out, node.spec.Name)
		}
	}
	return out
}
