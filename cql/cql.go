// Package cql parses the textual query language used by inspector panels
// and the debug surface. An expression names components with CONTAINS, EXACT
// and ALL, combined with !, & and | plus parentheses:
//
//	CONTAINS(position, velocity) & !CONTAINS(frozen)
//	EXACT(position) | ALL()
//
// Compile lowers an expression to an entity predicate plus the component ids
// it references, so query caches can track the right versions.
package cql

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"

	"github.com/gregrot/mind-fragment-sub002/types"
)

var ErrUnknownComponent = eris.New("expression names an unknown component")

// Resolver maps component names to registered ids. The world state
// implements it.
type Resolver interface {
	ComponentByName(name string) (types.ComponentID, bool)
}

// View is the per-entity read surface a compiled query evaluates against.
type View interface {
	HasComponent(c types.ComponentID, id types.EntityID) bool
	ComponentCount(id types.EntityID) int
}

// grammar

type astOperator int

const (
	opAnd astOperator = iota
	opOr
)

var operatorMap = map[string]astOperator{"&": opAnd, "|": opOr}

// Capture tells the parser how to turn an operator token into astOperator.
func (o *astOperator) Capture(s []string) error {
	if len(s) == 0 {
		return eris.New("invalid operator")
	}
	operator, ok := operatorMap[s[0]]
	if !ok {
		return eris.New("invalid operator")
	}
	*o = operator
	return nil
}

type astComponent struct {
	Name string `@Ident`
}

type astAll struct{}

func (a *astAll) Capture(values []string) error {
	if values[0] == "ALL" && values[1] == "(" && values[2] == ")" {
		*a = astAll{}
	}
	return nil
}

type astNot struct {
	Sub *astValue `"!" @@`
}

type astExact struct {
	Components []*astComponent `"EXACT" "(" (@@ ",")* @@ ")"`
}

type astContains struct {
	Components []*astComponent `"CONTAINS" "(" (@@ ",")* @@ ")"`
}

type astValue struct {
	All      *astAll      `@("ALL" "(" ")")`
	Exact    *astExact    `| @@`
	Contains *astContains `| @@`
	Not      *astNot      `| @@`
	Sub      *astTerm     `| "(" @@ ")"`
}

type astFactor struct {
	Base *astValue `@@`
}

type astOpFactor struct {
	Operator astOperator `@("&" | "|")`
	Factor   *astFactor  `@@`
}

type astTerm struct {
	Left  *astFactor     `@@`
	Right []*astOpFactor `@@*`
}

var parser = participle.MustBuild[astTerm]()

// compiled form

type node interface {
	eval(view View, id types.EntityID) bool
}

type allNode struct{}

func (allNode) eval(View, types.EntityID) bool { return true }

type containsNode struct {
	comps []types.ComponentID
}

func (n containsNode) eval(view View, id types.EntityID) bool {
	for _, c := range n.comps {
		if !view.HasComponent(c, id) {
			return false
		}
	}
	return true
}

type exactNode struct {
	comps []types.ComponentID
}

func (n exactNode) eval(view View, id types.EntityID) bool {
	if view.ComponentCount(id) != len(n.comps) {
		return false
	}
	for _, c := range n.comps {
		if !view.HasComponent(c, id) {
			return false
		}
	}
	return true
}

type notNode struct {
	sub node
}

func (n notNode) eval(view View, id types.EntityID) bool {
	return !n.sub.eval(view, id)
}

type andNode struct{ left, right node }

func (n andNode) eval(view View, id types.EntityID) bool {
	return n.left.eval(view, id) && n.right.eval(view, id)
}

type orNode struct{ left, right node }

func (n orNode) eval(view View, id types.EntityID) bool {
	return n.left.eval(view, id) || n.right.eval(view, id)
}

// Query is one compiled expression.
type Query struct {
	src     string
	root    node
	tracked []types.ComponentID
}

// Match evaluates the expression for one entity.
func (q *Query) Match(view View, id types.EntityID) bool {
	return q.root.eval(view, id)
}

// Components returns the ids the expression references, ascending.
func (q *Query) Components() []types.ComponentID {
	return append([]types.ComponentID(nil), q.tracked...)
}

func (q *Query) String() string { return q.src }

// Compile parses src (through the package parse cache) and resolves every
// component name against the resolver.
func Compile(src string, resolver Resolver) (*Query, error) {
	term, err := parseTerm(src)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot parse query %q", src)
	}
	c := &compiler{resolver: resolver, seen: make(map[types.ComponentID]struct{})}
	root, err := c.term(term)
	if err != nil {
		return nil, err
	}
	return &Query{src: src, root: root, tracked: c.tracked}, nil
}

type compiler struct {
	resolver Resolver
	seen     map[types.ComponentID]struct{}
	tracked  []types.ComponentID
}

func (c *compiler) resolve(names []*astComponent, kind string) ([]types.ComponentID, error) {
	if len(names) == 0 {
		return nil, eris.Errorf("%s cannot have zero parameters", kind)
	}
	dedup := make(map[types.ComponentID]struct{}, len(names))
	comps := make([]types.ComponentID, 0, len(names))
	for _, name := range names {
		id, ok := c.resolver.ComponentByName(name.Name)
		if !ok {
			return nil, eris.Wrapf(ErrUnknownComponent, "component %q", name.Name)
		}
		if _, dup := dedup[id]; dup {
			continue
		}
		dedup[id] = struct{}{}
		comps = append(comps, id)
		if _, tracked := c.seen[id]; !tracked {
			c.seen[id] = struct{}{}
			c.tracked = insertSorted(c.tracked, id)
		}
	}
	return comps, nil
}

func (c *compiler) value(v *astValue) (node, error) {
	switch {
	case v.All != nil:
		return allNode{}, nil
	case v.Exact != nil:
		comps, err := c.resolve(v.Exact.Components, "EXACT")
		if err != nil {
			return nil, err
		}
		return exactNode{comps: comps}, nil
	case v.Contains != nil:
		comps, err := c.resolve(v.Contains.Components, "CONTAINS")
		if err != nil {
			return nil, err
		}
		return containsNode{comps: comps}, nil
	case v.Not != nil:
		sub, err := c.value(v.Not.Sub)
		if err != nil {
			return nil, err
		}
		return notNode{sub: sub}, nil
	case v.Sub != nil:
		return c.term(v.Sub)
	default:
		return nil, eris.New("malformed query expression")
	}
}

func (c *compiler) term(t *astTerm) (node, error) {
	if t.Left == nil {
		return nil, eris.New("not enough values in expression")
	}
	acc, err := c.value(t.Left.Base)
	if err != nil {
		return nil, err
	}
	for _, of := range t.Right {
		right, err := c.value(of.Factor.Base)
		if err != nil {
			return nil, err
		}
		switch of.Operator {
		case opAnd:
			acc = andNode{left: acc, right: right}
		case opOr:
			acc = orNode{left: acc, right: right}
		default:
			return nil, eris.New("invalid operator")
		}
	}
	return acc, nil
}

func insertSorted(ids []types.ComponentID, id types.ComponentID) []types.ComponentID {
	i := 0
	for i < len(ids) && ids[i] < id {
		i++
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func normalize(src string) string {
	return strings.TrimSpace(src)
}
