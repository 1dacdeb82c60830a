package hquery

type binding struct {
	ident string
	expr  Expr
}

// flwor evaluates its global bindings once, then, if it has an iteration
// clause, evaluates the return expression once per item of the iterated
// sequence with the per iteration bindings redefined each time.
type flwor struct {
	globals []binding
	locals  []binding
	ident   string
	iter    Expr
	ret     Expr
}

func (f *flwor) appendLet(b binding) {
	if f.iter == nil {
		f.globals = append(f.globals, b)
	} else {
		f.locals = append(f.locals, b)
	}
}

func (f *flwor) eval(s *State) (Value, error) {
	s.Enter("flwor")
	defer s.Leave("flwor")

	defer s.scope()()
	if err := define(s, f.globals); err != nil {
		return nil, err
	}
	if f.iter == nil {
		return f.ret.eval(s)
	}
	v, err := f.iter.eval(s)
	if err != nil {
		return nil, err
	}
	var res Sequence
	for _, item := range itemsOf(v) {
		other, err := f.visit(s, item)
		if err != nil {
			s.Error("flwor", err)
			return nil, err
		}
		res = append(res, itemsOf(other)...)
	}
	return res, nil
}

func (f *flwor) visit(s *State, item Value) (Value, error) {
	defer s.scope()()
	s.define(f.ident, Sequence{item})
	if err := define(s, f.locals); err != nil {
		return nil, err
	}
	return f.ret.eval(s)
}

func define(s *State, binds []binding) error {
	for _, b := range binds {
		v, err := b.expr.eval(s)
		if err != nil {
			return err
		}
		s.define(b.ident, v)
	}
	return nil
}
