package hquery

import (
	"github.com/midbel/hq/dom"
)

type Option func(*Query)

func WithPreserveSpace(preserve bool) Option {
	return func(q *Query) {
		q.preserve = preserve
	}
}

func WithTracer(tracer Tracer) Option {
	return func(q *Query) {
		if tracer != nil {
			q.tracer = tracer
		}
	}
}

// Query is a compiled program. It can be run any number of times against any
// document.
type Query struct {
	source   string
	expr     Expr
	preserve bool
	tracer   Tracer
}

func Compile(expr string, preserve bool) (*Query, error) {
	return CompileWith(expr, WithPreserveSpace(preserve))
}

func CompileWith(expr string, options ...Option) (*Query, error) {
	q := Query{
		source: expr,
		tracer: discardTracer{},
	}
	for _, o := range options {
		o(&q)
	}
	cp := NewCompiler(expr)
	cp.Tracer = q.tracer

	e, err := cp.Compile()
	if err != nil {
		return nil, err
	}
	q.expr = e
	return &q, nil
}

// Find compiles expr and runs it against root.
func Find(root dom.Node, expr string) (Value, error) {
	q, err := Compile(expr, false)
	if err != nil {
		return nil, err
	}
	return q.Run(root)
}

func (q *Query) String() string {
	return q.source
}

// Run evaluates the query with the document node of root as context node.
func (q *Query) Run(root dom.Node) (Value, error) {
	s := newState(root.Root(), q.preserve, q.tracer)
	s.Enter("query")
	defer s.Leave("query")

	v, err := q.expr.eval(s)
	if err != nil {
		s.Error("query", err)
		return nil, err
	}
	return v, nil
}
