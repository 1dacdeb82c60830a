package hquery

import (
	"math"

	"github.com/midbel/hq/dom"
)

type Expr interface {
	eval(*State) (Value, error)
}

type literal string

func (i literal) eval(_ *State) (Value, error) {
	return String(i), nil
}

type number float64

func (n number) eval(_ *State) (Value, error) {
	return Number(n), nil
}

type identifier string

func (i identifier) eval(s *State) (Value, error) {
	return s.resolve(string(i))
}

type sequence struct {
	left  Expr
	right Expr
}

func (q sequence) eval(s *State) (Value, error) {
	left, err := q.left.eval(s)
	if err != nil {
		return nil, err
	}
	right, err := q.right.eval(s)
	if err != nil {
		return nil, err
	}
	var seq Sequence
	seq = append(seq, itemsOf(left)...)
	seq = append(seq, itemsOf(right)...)
	return seq, nil
}

type neg struct {
	expr Expr
}

func (r neg) eval(s *State) (Value, error) {
	v, err := r.expr.eval(s)
	if err != nil {
		return nil, err
	}
	return -s.numberOf(v), nil
}

type binary struct {
	left  Expr
	right Expr
	op    rune
}

func (b binary) eval(s *State) (Value, error) {
	left, err := b.left.eval(s)
	if err != nil {
		return nil, err
	}
	right, err := b.right.eval(s)
	if err != nil {
		return nil, err
	}
	var (
		x = float64(s.numberOf(left))
		y = float64(s.numberOf(right))
	)
	switch b.op {
	case opAdd:
		return Number(x + y), nil
	case opSub:
		return Number(x - y), nil
	case opMul:
		return Number(x * y), nil
	case opDiv:
		if y == 0 {
			return NaN(), nil
		}
		return Number(x / y), nil
	case opMod:
		if y == 0 {
			return NaN(), nil
		}
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return Number(m), nil
	default:
		return nil, evalErrorf(CodeEvalError, ErrType, "unsupported arithmetic operator")
	}
}

type logical struct {
	left  Expr
	right Expr
	op    rune
}

func (i logical) eval(s *State) (Value, error) {
	left, err := i.left.eval(s)
	if err != nil {
		return nil, err
	}
	right, err := i.right.eval(s)
	if err != nil {
		return nil, err
	}
	if i.op == opAnd {
		return Boolean(truth(left) && truth(right)), nil
	}
	return Boolean(truth(left) || truth(right)), nil
}

type rng struct {
	left  Expr
	right Expr
}

func (r rng) eval(s *State) (Value, error) {
	left, err := r.left.eval(s)
	if err != nil {
		return nil, err
	}
	right, err := r.right.eval(s)
	if err != nil {
		return nil, err
	}
	var (
		beg = float64(s.numberOf(left))
		end = float64(s.numberOf(right))
	)
	if math.IsNaN(beg) || math.IsInf(beg, 0) || math.IsNaN(end) || math.IsInf(end, 0) {
		return nil, evalErrorf(CodeEvalError, ErrType, "range bounds should be finite numbers")
	}
	var seq Sequence
	for i := math.Trunc(beg); i <= math.Trunc(end); i++ {
		seq = append(seq, Number(i))
	}
	return seq, nil
}

type ifExpr struct {
	test Expr
	csq  Expr
	alt  Expr
}

func (c ifExpr) eval(s *State) (Value, error) {
	v, err := c.test.eval(s)
	if err != nil {
		return nil, err
	}
	if truth(v) {
		return c.csq.eval(s)
	}
	return c.alt.eval(s)
}

type call struct {
	ident string
	args  []Expr
}

func (c call) eval(s *State) (Value, error) {
	s.Enter(c.ident)
	defer s.Leave(c.ident)

	var args []Value
	for _, a := range c.args {
		v, err := a.eval(s)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	fn, err := s.builtins.Resolve(c.ident)
	if err != nil {
		err = unknownFunctionError{
			Name:   c.ident,
			Others: suggest(c.ident, s.builtins.Names()),
		}
		return nil, evalError(CodeUndefined, err)
	}
	res, err := fn(s, args)
	if err != nil {
		s.Error(c.ident, err)
	}
	return res, err
}

// union merges two node sets. Nodes are tagged with the index of the branch
// they come from so that a decomposition can map them.
type union struct {
	left  Expr
	right Expr
	index int
}

func (u union) eval(s *State) (Value, error) {
	left, err := u.nodes(s, u.left)
	if err != nil {
		return nil, err
	}
	right, err := u.nodes(s, u.right)
	if err != nil {
		return nil, err
	}
	s.markUnion(right, u.index)
	if _, ok := u.left.(union); !ok {
		s.markUnion(left, 0)
	}
	return nodeSet(sortNodes(append(left, right...), false)), nil
}

func (u union) nodes(s *State, e Expr) ([]dom.Node, error) {
	v, err := e.eval(s)
	if err != nil {
		return nil, err
	}
	return nodesOf(v)
}

// decompose maps each item of a union to the expression at the index of the
// union branch it comes from. The item is bound to $_ during the mapping.
type decompose struct {
	expr     Expr
	mappings []Expr
}

func (d decompose) eval(s *State) (Value, error) {
	s.Enter("decompose")
	defer s.Leave("decompose")

	v, err := d.expr.eval(s)
	if err != nil {
		return nil, err
	}
	var res Sequence
	for _, item := range itemsOf(v) {
		n, ok := item.(Node)
		if !ok {
			return nil, evalErrorf(CodeEvalError, ErrType, "decomposition applied to %s not produced by a union", typeName(item))
		}
		ix, ok := s.unionOf(n.Node)
		if !ok {
			return nil, evalErrorf(CodeEvalError, ErrType, "decomposition applied to %s not produced by a union", n.Node)
		}
		if ix >= len(d.mappings) {
			return nil, evalErrorf(CodeEvalError, ErrArgument, "union has more branches than mappings (%d)", len(d.mappings))
		}
		other, err := d.mapItem(s, item, d.mappings[ix])
		if err != nil {
			return nil, err
		}
		res = append(res, itemsOf(other)...)
	}
	return res, nil
}

func (d decompose) mapItem(s *State, item Value, expr Expr) (Value, error) {
	defer s.scope()()
	s.define(implicitVar, Sequence{item})
	return expr.eval(s)
}

const implicitVar = "_"
