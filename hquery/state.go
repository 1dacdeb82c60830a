package hquery

import (
	"strings"

	"github.com/midbel/hq/dom"
	"github.com/midbel/hq/environ"
)

// Context is the focus of an evaluation: the context node, its position in
// the node set being visited and the size of that node set.
type Context struct {
	Node          dom.Node
	Position      int
	Size          int
	PreserveSpace bool
}

// State holds everything an evaluation mutates. A State is owned by a single
// run of a query.
type State struct {
	contexts []Context
	vars     *environ.Stack[Value]
	unions   map[dom.Node]int
	builtins environ.Environ[Builtin]

	Tracer
}

func newState(root dom.Node, preserve bool, tracer Tracer) *State {
	if tracer == nil {
		tracer = discardTracer{}
	}
	s := State{
		vars:     environ.NewStack[Value](),
		unions:   make(map[dom.Node]int),
		builtins: builtins,
		Tracer:   tracer,
	}
	s.contexts = append(s.contexts, Context{
		Node:          root,
		Position:      1,
		Size:          1,
		PreserveSpace: preserve,
	})
	return &s
}

func (s *State) Current() Context {
	return s.contexts[len(s.contexts)-1]
}

// push makes node the context node. The returned function restores the
// previous context.
func (s *State) push(node dom.Node, pos, size int) func() {
	ctx := Context{
		Node:          node,
		Position:      pos,
		Size:          size,
		PreserveSpace: s.preserve(),
	}
	s.contexts = append(s.contexts, ctx)
	n := len(s.contexts) - 1
	return func() {
		s.contexts = s.contexts[:n]
	}
}

// across evaluates fn once per node of list, each node in turn being the
// context node, and merges the nodes produced in document order.
func (s *State) across(list []dom.Node, fn func() ([]dom.Node, error)) ([]dom.Node, error) {
	var res []dom.Node
	for i, n := range list {
		pop := s.push(n, i+1, len(list))
		other, err := fn()
		pop()
		if err != nil {
			return nil, err
		}
		res = append(res, other...)
	}
	return sortNodes(res, false), nil
}

func (s *State) scope() func() {
	return s.vars.Scope()
}

func (s *State) define(ident string, value Value) {
	s.Bind(ident, value)
	s.vars.Define(ident, value)
}

func (s *State) resolve(ident string) (Value, error) {
	v, err := s.vars.Resolve(ident)
	if err == nil {
		return v, nil
	}
	if others := suggest(ident, s.vars.Names()); len(others) > 0 {
		return nil, evalErrorf(CodeUndefined, ErrUndefined, "$%s: variable (did you mean $%s?)", ident, strings.Join(others, ", $"))
	}
	return nil, evalErrorf(CodeUndefined, ErrUndefined, "$%s: variable", ident)
}

func (s *State) preserve() bool {
	return s.Current().PreserveSpace
}

func (s *State) stringOf(v Value) string {
	return stringOf(v, s.preserve())
}

func (s *State) numberOf(v Value) Number {
	return numberOf(v, s.preserve())
}

// markUnion records the branch of a union a node comes from. A node keeps
// the first branch it was seen in.
func (s *State) markUnion(list []dom.Node, index int) {
	var count int
	for _, n := range list {
		if _, ok := s.unions[n]; !ok {
			s.unions[n] = index
			count++
		}
	}
	s.Mark(index, count)
}

func (s *State) unionOf(n dom.Node) (int, bool) {
	ix, ok := s.unions[n]
	return ix, ok
}
