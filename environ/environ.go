package environ

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrUndefined = errors.New("undefined identifier")

type Environ[T any] interface {
	Resolve(string) (T, error)
	Define(string, T)
	Names() []string
}

// Env is a map based environment.
type Env[T any] struct {
	values map[string]T
}

func Empty[T any]() *Env[T] {
	e := Env[T]{
		values: make(map[string]T),
	}
	return &e
}

func (e *Env[T]) Names() []string {
	names := slices.Collect(maps.Keys(e.values))
	slices.Sort(names)
	return names
}

func (e *Env[T]) Define(ident string, value T) {
	e.values[ident] = value
}

func (e *Env[T]) Resolve(ident string) (T, error) {
	value, ok := e.values[ident]
	if ok {
		return value, nil
	}
	var t T
	return t, fmt.Errorf("%s: %w", ident, ErrUndefined)
}

type binding[T any] struct {
	ident string
	value T
}

// Stack keeps bindings in definition order. Resolve walks the stack from the
// most recent binding so that inner definitions shadow outer ones. Scopes
// are delimited with Scope which returns the function restoring the stack.
type Stack[T any] struct {
	values []binding[T]
}

func NewStack[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Names returns the visible identifiers, most recent first.
func (s *Stack[T]) Names() []string {
	var names []string
	for i := len(s.values) - 1; i >= 0; i-- {
		if !slices.Contains(names, s.values[i].ident) {
			names = append(names, s.values[i].ident)
		}
	}
	return names
}

func (s *Stack[T]) Define(ident string, value T) {
	s.values = append(s.values, binding[T]{
		ident: ident,
		value: value,
	})
}

func (s *Stack[T]) Resolve(ident string) (T, error) {
	for i := len(s.values) - 1; i >= 0; i-- {
		if s.values[i].ident == ident {
			return s.values[i].value, nil
		}
	}
	var t T
	return t, fmt.Errorf("%s: %w", ident, ErrUndefined)
}

func (s *Stack[T]) Scope() func() {
	mark := len(s.values)
	return func() {
		clear(s.values[mark:])
		s.values = s.values[:mark]
	}
}
