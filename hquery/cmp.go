package hquery

import (
	"fmt"
)

type cmpFunc func(*State, Value, Value) bool

// equality operators are picked in this table by the kinds of their operands.
// The operand of lowest kind is always given first.
var equalities = [4][4]cmpFunc{
	KindBoolean: {
		KindBoolean:  eqNative,
		KindSequence: eqBoolean,
		KindNumber:   eqBoolean,
		KindString:   eqBoolean,
	},
	KindSequence: {
		KindSequence: eqSequences,
		KindNumber:   eqSequenceNumber,
		KindString:   eqSequenceString,
	},
	KindNumber: {
		KindNumber: eqNative,
		KindString: eqNumberString,
	},
	KindString: {
		KindString: eqNative,
	},
}

func equals(s *State, left, right Value) (bool, error) {
	var (
		lk = left.Kind()
		rk = right.Kind()
	)
	if lk == KindOther || rk == KindOther {
		return false, mismatch(left, right)
	}
	if lk > rk {
		left, right = right, left
		lk, rk = rk, lk
	}
	fn := equalities[lk][rk]
	if fn == nil {
		return false, mismatch(left, right)
	}
	return fn(s, left, right), nil
}

func mismatch(left, right Value) error {
	err := fmt.Errorf("type mismatch comparing %s and %s for equality: %w", typeName(left), typeName(right), ErrType)
	return evalError(CodeMismatch, err)
}

func eqNative(_ *State, left, right Value) bool {
	return left == right
}

func eqBoolean(_ *State, left, right Value) bool {
	return truth(left) == truth(right)
}

func eqSequences(s *State, left, right Value) bool {
	seen := make(map[string]struct{})
	for _, v := range itemsOf(left) {
		seen[s.stringOf(v)] = struct{}{}
	}
	for _, v := range itemsOf(right) {
		if _, ok := seen[s.stringOf(v)]; ok {
			return true
		}
	}
	return false
}

func eqSequenceNumber(s *State, left, right Value) bool {
	for _, v := range itemsOf(left) {
		if s.numberOf(v) == right.(Number) {
			return true
		}
	}
	return false
}

func eqSequenceString(s *State, left, right Value) bool {
	str := string(right.(String))
	for _, v := range itemsOf(left) {
		if s.stringOf(v) == str {
			return true
		}
	}
	return false
}

func eqNumberString(s *State, left, right Value) bool {
	return left.(Number) == s.numberOf(right)
}

type equality struct {
	left   Expr
	right  Expr
	negate bool
}

func (e equality) eval(s *State) (Value, error) {
	left, err := e.left.eval(s)
	if err != nil {
		return nil, err
	}
	right, err := e.right.eval(s)
	if err != nil {
		return nil, err
	}
	ok, err := equals(s, left, right)
	if err != nil {
		s.Error("equality", err)
		return nil, err
	}
	if e.negate {
		ok = !ok
	}
	return Boolean(ok), nil
}

type relational struct {
	left  Expr
	right Expr
	op    rune
}

func (r relational) eval(s *State) (Value, error) {
	left, err := r.left.eval(s)
	if err != nil {
		return nil, err
	}
	right, err := r.right.eval(s)
	if err != nil {
		return nil, err
	}
	if left.Kind() == KindOther || right.Kind() == KindOther {
		return nil, evalErrorf(CodeMismatch, ErrType, "%s and %s can not be ordered", typeName(left), typeName(right))
	}
	var (
		lseq = left.Kind() == KindSequence
		rseq = right.Kind() == KindSequence
	)
	switch {
	case lseq && rseq:
		for _, x := range itemsOf(left) {
			for _, y := range itemsOf(right) {
				if r.compareNumbers(s.numberOf(x), s.numberOf(y)) {
					return Boolean(true), nil
				}
			}
		}
		return Boolean(false), nil
	case lseq:
		y := s.numberOf(right)
		for _, x := range itemsOf(left) {
			if r.compareNumbers(s.numberOf(x), y) {
				return Boolean(true), nil
			}
		}
		return Boolean(false), nil
	case rseq:
		x := s.numberOf(left)
		for _, y := range itemsOf(right) {
			if r.compareNumbers(x, s.numberOf(y)) {
				return Boolean(true), nil
			}
		}
		return Boolean(false), nil
	default:
		return Boolean(r.compareValues(s, left, right)), nil
	}
}

func (r relational) compareValues(s *State, left, right Value) bool {
	_, lb := left.(Boolean)
	_, rb := right.(Boolean)
	if lb || rb {
		return r.compareNumbers(boolNumber(truth(left)), boolNumber(truth(right)))
	}
	_, ln := left.(Number)
	_, rn := right.(Number)
	if ln || rn {
		return r.compareNumbers(s.numberOf(left), s.numberOf(right))
	}
	var (
		x = s.stringOf(left)
		y = s.stringOf(right)
	)
	switch r.op {
	case opLt:
		return x < y
	case opLe:
		return x <= y
	case opGt:
		return x > y
	case opGe:
		return x >= y
	default:
		return false
	}
}

func (r relational) compareNumbers(x, y Number) bool {
	switch r.op {
	case opLt:
		return x < y
	case opLe:
		return x <= y
	case opGt:
		return x > y
	case opGe:
		return x >= y
	default:
		return false
	}
}

func boolNumber(b bool) Number {
	if b {
		return 1
	}
	return 0
}
