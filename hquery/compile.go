package hquery

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	powLowest = iota
	powSeq
	powDecompose
	powUnion
	powRange
	powFlwor
	powOr
	powAnd
	powEq
	powCmp
	powAdd
	powMul
	powPrefix
	powCall
	powStep
	powNode
	powGroup
)

var bindings = map[rune]int{
	opSeq:       powSeq,
	opDecompose: powDecompose,
	opUnion:     powUnion,
	opRange:     powRange,
	opArrow:     powFlwor,
	opOr:        powOr,
	opAnd:       powAnd,
	opEq:        powEq,
	opNe:        powEq,
	opLt:        powCmp,
	opLe:        powCmp,
	opGt:        powCmp,
	opGe:        powCmp,
	opAdd:       powAdd,
	opSub:       powAdd,
	opMul:       powMul,
	opDiv:       powMul,
	opMod:       powMul,
	funcName:    powCall,
	currLevel:   powStep,
	anyLevel:    powStep,
	begPred:     powStep,
	Name:        powNode,
	kindTest:    powNode,
	currNode:    powNode,
	parentNode:  powNode,
	begGrp:      powGroup,
}

type Compiler struct {
	scan *Scanner
	curr Token
	peek Token

	Tracer

	infix  map[rune]func(Expr) (Expr, error)
	prefix map[rune]func() (Expr, error)
}

func NewCompiler(str string) *Compiler {
	cp := Compiler{
		scan:   Scan(str),
		Tracer: discardTracer{},
	}

	cp.infix = map[rune]func(Expr) (Expr, error){
		opSeq:       cp.compileSequence,
		opDecompose: cp.compileDecompose,
		opUnion:     cp.compileUnion,
		opRange:     cp.compileRange,
		opArrow:     cp.compileArrow,
		opOr:        cp.compileLogical,
		opAnd:       cp.compileLogical,
		opEq:        cp.compileEquality,
		opNe:        cp.compileEquality,
		opLt:        cp.compileRelational,
		opLe:        cp.compileRelational,
		opGt:        cp.compileRelational,
		opGe:        cp.compileRelational,
		opAdd:       cp.compileBinary,
		opSub:       cp.compileBinary,
		opMul:       cp.compileBinary,
		opDiv:       cp.compileBinary,
		opMod:       cp.compileBinary,
		currLevel:   cp.compileStep,
		anyLevel:    cp.compileStep,
		begPred:     cp.compileFilter,
	}
	cp.prefix = map[rune]func() (Expr, error){
		currLevel:   cp.compileRoot,
		anyLevel:    cp.compileDescendantRoot,
		Name:        cp.compileRelative,
		kindTest:    cp.compileRelative,
		axisName:    cp.compileRelative,
		currNode:    cp.compileRelative,
		parentNode:  cp.compileRelative,
		variable:    cp.compileVariable,
		Literal:     cp.compileLiteral,
		Template:    cp.compileTemplate,
		Digit:       cp.compileNumber,
		opSub:       cp.compileReverse,
		opAdd:       cp.compileReverse,
		begGrp:      cp.compileGroup,
		funcName:    cp.compileCall,
		hashKey:     cp.compileKeyValue,
		reserved:    cp.compileFlwor,
		constructor: cp.compileConstructor,
		conditional: cp.compileIf,
	}

	cp.next()
	cp.next()
	return &cp
}

func (c *Compiler) Compile() (Expr, error) {
	c.Enter("compile")
	defer c.Leave("compile")

	expr, err := c.compileExpr(powLowest)
	if err != nil {
		c.Error("compile", err)
		return nil, err
	}
	if !c.done() {
		err = c.errorf(CodeUnexpected, "unexpected token beyond end of query")
		c.Error("compile", err)
		return nil, err
	}
	return expr, nil
}

func (c *Compiler) compileExpr(pow int) (Expr, error) {
	c.Enter("expr")
	defer c.Leave("expr")

	if c.is(Invalid) {
		return nil, invalidToken(c.curr)
	}
	fn, ok := c.prefix[c.curr.Type]
	if !ok {
		return nil, c.errorf(CodeUnexpected, "unexpected token found at beginning of expression")
	}
	left, err := fn()
	if err != nil {
		return nil, err
	}
	for pow < c.power() {
		fn, ok := c.infix[c.curr.Type]
		if !ok {
			return nil, c.errorf(CodeUnexpected, "unexpected token encountered in expression")
		}
		if left, err = fn(left); err != nil {
			return nil, err
		}
	}
	if c.is(Invalid) {
		return nil, invalidToken(c.curr)
	}
	return left, nil
}

func (c *Compiler) compileSequence(left Expr) (Expr, error) {
	c.next()
	right, err := c.compileExpr(powSeq)
	if err != nil {
		return nil, err
	}
	seq := sequence{
		left:  left,
		right: right,
	}
	return seq, nil
}

func (c *Compiler) compileUnion(left Expr) (Expr, error) {
	c.Enter("union")
	defer c.Leave("union")

	var index int
	if u, ok := left.(union); ok {
		index = u.index
	}
	c.next()
	right, err := c.compileExpr(powUnion)
	if err != nil {
		return nil, err
	}
	u := union{
		left:  left,
		right: right,
		index: index + 1,
	}
	return u, nil
}

func (c *Compiler) compileDecompose(left Expr) (Expr, error) {
	c.Enter("decompose")
	defer c.Leave("decompose")
	c.next()

	d := decompose{
		expr: left,
	}
	if c.is(begGrp) {
		c.next()
		for !c.is(endGrp) {
			if c.done() {
				return nil, c.errorf(CodeUnexpected, "missing closing ')' after mappings")
			}
			expr, err := c.compileExpr(powUnion)
			if err != nil {
				return nil, err
			}
			d.mappings = append(d.mappings, expr)
			if c.is(opUnion) {
				c.next()
			}
		}
		c.next()
		return d, nil
	}
	for {
		expr, err := c.compileExpr(powUnion)
		if err != nil {
			return nil, err
		}
		d.mappings = append(d.mappings, expr)
		if !c.is(opUnion) {
			break
		}
		c.next()
	}
	return d, nil
}

func (c *Compiler) compileArrow(left Expr) (Expr, error) {
	c.Enter("arrow")
	defer c.Leave("arrow")
	c.next()

	right, err := c.compileExpr(powSeq)
	if err != nil {
		return nil, err
	}
	f := flwor{
		ident: implicitVar,
		iter:  left,
		ret:   right,
	}
	return &f, nil
}

func (c *Compiler) compileRange(left Expr) (Expr, error) {
	c.next()
	right, err := c.compileExpr(powRange)
	if err != nil {
		return nil, err
	}
	r := rng{
		left:  left,
		right: right,
	}
	return r, nil
}

func (c *Compiler) compileLogical(left Expr) (Expr, error) {
	var (
		op  = c.curr.Type
		pow = c.power()
	)
	c.next()
	right, err := c.compileExpr(pow)
	if err != nil {
		return nil, err
	}
	expr := logical{
		left:  left,
		right: right,
		op:    op,
	}
	return expr, nil
}

func (c *Compiler) compileEquality(left Expr) (Expr, error) {
	negate := c.is(opNe)
	c.next()
	right, err := c.compileExpr(powEq)
	if err != nil {
		return nil, err
	}
	expr := equality{
		left:   left,
		right:  right,
		negate: negate,
	}
	return expr, nil
}

func (c *Compiler) compileRelational(left Expr) (Expr, error) {
	op := c.curr.Type
	c.next()
	right, err := c.compileExpr(powCmp)
	if err != nil {
		return nil, err
	}
	expr := relational{
		left:  left,
		right: right,
		op:    op,
	}
	return expr, nil
}

func (c *Compiler) compileBinary(left Expr) (Expr, error) {
	var (
		op  = c.curr.Type
		pow = c.power()
	)
	c.next()
	right, err := c.compileExpr(pow)
	if err != nil {
		return nil, err
	}
	expr := binary{
		left:  left,
		right: right,
		op:    op,
	}
	return expr, nil
}

func (c *Compiler) compileReverse() (Expr, error) {
	if c.is(opAdd) {
		return nil, c.errorf(CodeUnexpected, "unexpected token found at beginning of expression")
	}
	c.next()
	expr, err := c.compileExpr(powPrefix)
	if err != nil {
		return nil, err
	}
	return neg{expr: expr}, nil
}

func (c *Compiler) compileLiteral() (Expr, error) {
	defer c.next()
	return literal(c.curr.Literal), nil
}

func (c *Compiler) compileNumber() (Expr, error) {
	defer c.next()
	n, err := strconv.ParseFloat(c.curr.Literal, 64)
	if err != nil {
		return nil, c.errorf(CodeGenericError, "invalid number")
	}
	return number(n), nil
}

func (c *Compiler) compileVariable() (Expr, error) {
	defer c.next()
	return identifier(c.curr.Literal), nil
}

func (c *Compiler) compileTemplate() (Expr, error) {
	c.Enter("template")
	defer c.Leave("template")

	expr, err := compileTemplate(c.curr.Literal, c.Tracer)
	if err != nil {
		return nil, err
	}
	c.next()
	return expr, nil
}

func (c *Compiler) compileGroup() (Expr, error) {
	c.Enter("group")
	defer c.Leave("group")
	c.next()

	if c.is(endGrp) {
		return nil, c.errorf(CodeUnexpected, "empty parenthesized expression")
	}
	expr, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if err := c.expect(endGrp, "')' expected"); err != nil {
		return nil, err
	}
	c.next()
	return expr, nil
}

func (c *Compiler) compileCall() (Expr, error) {
	c.Enter("call")
	defer c.Leave("call")

	fn := call{
		ident: c.curr.Literal,
	}
	c.next()
	for !c.is(endGrp) {
		if c.done() {
			return nil, c.errorf(CodeUnexpected, "missing closing ')' in call to %s", fn.ident)
		}
		arg, err := c.compileExpr(powSeq)
		if err != nil {
			return nil, err
		}
		fn.args = append(fn.args, arg)
		if c.is(opSeq) {
			c.next()
		}
	}
	c.next()
	return fn, nil
}

func (c *Compiler) compileKeyValue() (Expr, error) {
	c.Enter("key")
	defer c.Leave("key")

	key := c.curr.Literal
	c.next()
	expr, err := c.compileExpr(powSeq)
	if err != nil {
		return nil, err
	}
	kv := keyEntry{
		key:  key,
		expr: expr,
	}
	return kv, nil
}

func (c *Compiler) compileFlwor() (Expr, error) {
	c.Enter("flwor")
	defer c.Leave("flwor")

	var f flwor
	for c.is(reserved) && f.ret == nil {
		var err error
		switch c.curr.Literal {
		case kwFor:
			err = c.compileFor(&f)
		case kwLet:
			err = c.compileLet(&f)
		case kwReturn:
			c.next()
			f.ret, err = c.compileExpr(powSeq)
		default:
			err = c.errorf(CodeClause, "unexpected reserved word")
		}
		if err != nil {
			return nil, err
		}
	}
	if f.ret == nil {
		return nil, c.errorf(CodeClause, "no return clause at end of flwor")
	}
	return &f, nil
}

func (c *Compiler) compileFor(f *flwor) error {
	if f.iter != nil {
		return c.errorf(CodeClause, "only one for clause allowed")
	}
	c.next()
	if err := c.expect(variable, "variable expected after for"); err != nil {
		return err
	}
	f.ident = c.curr.Literal
	c.next()
	if !c.is(Name) || !strings.EqualFold(c.curr.Literal, kwIn) {
		return c.errorf(CodeClause, "in keyword expected")
	}
	c.next()

	iter, err := c.compileExpr(powLowest)
	if err != nil {
		return err
	}
	f.iter = iter
	return nil
}

func (c *Compiler) compileLet(f *flwor) error {
	c.next()
	for {
		if err := c.expect(variable, "variable expected after let"); err != nil {
			return err
		}
		ident := c.curr.Literal
		c.next()
		if err := c.expect(opAssign, "':=' expected"); err != nil {
			return err
		}
		c.next()
		expr, err := c.compileExpr(powSeq)
		if err != nil {
			return err
		}
		f.appendLet(binding{
			ident: ident,
			expr:  expr,
		})
		if !c.is(opSeq) {
			return nil
		}
		c.next()
	}
}

func (c *Compiler) compileIf() (Expr, error) {
	c.Enter("if")
	defer c.Leave("if")

	if !strings.EqualFold(c.curr.Literal, kwIf) {
		return nil, c.errorf(CodeClause, "else without if")
	}
	c.next()
	if err := c.expect(begGrp, "'(' expected after if"); err != nil {
		return nil, err
	}
	c.next()

	var (
		expr ifExpr
		err  error
	)
	if expr.test, err = c.compileExpr(powLowest); err != nil {
		return nil, err
	}
	if err := c.expect(endGrp, "')' expected after condition"); err != nil {
		return nil, err
	}
	c.next()
	if !c.is(Name) || !strings.EqualFold(c.curr.Literal, kwThen) {
		return nil, c.errorf(CodeClause, "then keyword expected after condition")
	}
	c.next()
	if expr.csq, err = c.compileExpr(powLowest); err != nil {
		return nil, err
	}
	if !c.is(conditional) || !strings.EqualFold(c.curr.Literal, kwElse) {
		return nil, c.errorf(CodeClause, "else keyword expected after then clause")
	}
	c.next()
	if expr.alt, err = c.compileExpr(powLowest); err != nil {
		return nil, err
	}
	return expr, nil
}

func (c *Compiler) compileConstructor() (Expr, error) {
	kind := c.curr.Literal
	c.Enter(kind)
	defer c.Leave(kind)
	c.next()

	switch kind {
	case kwElement, kwAttribute:
		if err := c.expect(Name, "name expected after "+kind); err != nil {
			return nil, err
		}
		name := c.curr.Literal
		c.next()
		content, err := c.compileContent()
		if err != nil {
			return nil, err
		}
		if kind == kwAttribute {
			return attributeCtor{name: name, content: content}, nil
		}
		return elementCtor{name: name, content: content}, nil
	case kwArray:
		content, err := c.compileContent()
		if err != nil {
			return nil, err
		}
		return arrayCtor{content: content}, nil
	case kwHash:
		var h hashCtor
		if c.is(hashFilters) {
			filters, err := parseHashFilters(c.curr.Literal)
			if err != nil {
				return nil, c.errorf(CodeFilter, "%s", err)
			}
			h.filters = filters
			c.next()
		}
		content, err := c.compileContent()
		if err != nil {
			return nil, err
		}
		h.content = content
		return h, nil
	default:
		return nil, c.errorf(CodeUnexpected, "unknown constructor")
	}
}

func (c *Compiler) compileContent() (Expr, error) {
	if err := c.expect(begCurl, "'{' expected"); err != nil {
		return nil, err
	}
	c.next()
	if c.is(endCurl) {
		c.next()
		return nil, nil
	}
	expr, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if err := c.expect(endCurl, "'}' expected"); err != nil {
		return nil, err
	}
	c.next()
	return expr, nil
}

// compileRoot handles a leading slash. A slash alone designates the document
// node; followed by a node test it starts an absolute path.
func (c *Compiler) compileRoot() (Expr, error) {
	c.Enter("root")
	defer c.Leave("root")

	switch c.peek.Type {
	case axisName, currNode, parentNode, Name, kindTest:
	default:
		c.next()
		return root{}, nil
	}
	c.next()
	st, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	p := path{
		steps:    []step{st},
		absolute: true,
	}
	return c.compilePath(p)
}

func (c *Compiler) compileDescendantRoot() (Expr, error) {
	c.Enter("root")
	defer c.Leave("root")
	c.next()

	st, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	p := path{
		steps:    []step{anyStep(), st},
		absolute: true,
	}
	return c.compilePath(p)
}

func (c *Compiler) compileRelative() (Expr, error) {
	c.Enter("path")
	defer c.Leave("path")

	st, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	p := path{
		steps: []step{st},
	}
	return c.compilePath(p)
}

func (c *Compiler) compileStep(left Expr) (Expr, error) {
	c.Enter("step")
	defer c.Leave("step")

	p := path{
		root: left,
	}
	if c.is(anyLevel) {
		p.steps = append(p.steps, anyStep())
	}
	c.next()
	st, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	p.steps = append(p.steps, st)
	return c.compilePath(p)
}

func (c *Compiler) compileFilter(left Expr) (Expr, error) {
	c.Enter("filter")
	defer c.Leave("filter")

	preds, err := c.compilePredicates()
	if err != nil {
		return nil, err
	}
	f := filter{
		expr:  left,
		preds: preds,
	}
	if !c.is(currLevel) && !c.is(anyLevel) {
		return f, nil
	}
	return c.compilePath(path{root: f})
}

func (c *Compiler) compilePath(p path) (Expr, error) {
	for c.is(currLevel) || c.is(anyLevel) {
		if c.is(anyLevel) {
			p.steps = append(p.steps, anyStep())
		}
		c.next()
		st, err := c.compileNodeTest()
		if err != nil {
			return nil, err
		}
		p.steps = append(p.steps, st)
	}
	return p, nil
}

func (c *Compiler) compileNodeTest() (step, error) {
	st := step{
		axis: axisChild,
	}
	withAxis := c.is(axisName)
	if withAxis {
		axis, ok := axisNames[c.curr.Literal]
		if !ok {
			return st, c.errorf(CodeUnexpected, "unknown axis")
		}
		st.axis = axis
		c.next()
	}
	switch c.curr.Type {
	case Name:
		st.test = nameTest(c.curr.Literal)
	case kindTest:
		if st.axis == axisClass {
			return st, c.errorf(CodeUnexpected, "css-class axis requires a name test")
		}
		st.test = kindTestOf(c.curr.Literal)
	case currNode, parentNode:
		if withAxis {
			return st, c.errorf(CodeUnexpected, "axis can not be combined with %s", c.curr.Literal)
		}
		st.axis = axisSelf
		if c.is(parentNode) {
			st.axis = axisParent
		}
		st.test = kindTestOf("node")
	default:
		return st, c.errorf(CodeUnexpected, "node test expected")
	}
	c.next()

	preds, err := c.compilePredicates()
	if err != nil {
		return st, err
	}
	st.preds = preds
	return st, nil
}

func (c *Compiler) compilePredicates() ([]Expr, error) {
	var list []Expr
	for c.is(begPred) {
		c.next()
		expr, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		if err := c.expect(endPred, "']' expected"); err != nil {
			return nil, err
		}
		c.next()
		list = append(list, expr)
	}
	return list, nil
}

func anyStep() step {
	return step{
		axis: axisDescendantOrSelf,
		test: kindTestOf("node"),
	}
}

func (c *Compiler) expect(kind rune, msg string) error {
	if c.is(Invalid) {
		return invalidToken(c.curr)
	}
	if !c.is(kind) {
		return c.errorf(CodeUnexpected, "%s", msg)
	}
	return nil
}

func (c *Compiler) errorf(code, format string, args ...any) error {
	return SyntaxError{
		Code:     code,
		Expr:     c.curr.String(),
		Cause:    fmt.Sprintf(format, args...),
		Position: c.curr.Position,
	}
}

func (c *Compiler) power() int {
	return bindings[c.curr.Type]
}

func (c *Compiler) is(kind rune) bool {
	return c.curr.Type == kind
}

func (c *Compiler) done() bool {
	return c.is(EOF)
}

func (c *Compiler) next() {
	c.curr = c.peek
	c.peek = c.scan.Scan()
}
