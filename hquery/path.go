package hquery

import (
	"fmt"
	"strings"

	"github.com/midbel/hq/dom"
)

type Axis int8

const (
	axisAncestor Axis = iota + 1
	axisAncestorOrSelf
	axisAttribute
	axisChild
	axisDescendant
	axisDescendantOrSelf
	axisFollowing
	axisFollowingSibling
	axisParent
	axisPreceding
	axisPrecedingSibling
	axisSelf
	axisClass
)

var axisNames = map[string]Axis{
	"ancestor":           axisAncestor,
	"ancestor-or-self":   axisAncestorOrSelf,
	"attribute":          axisAttribute,
	"child":              axisChild,
	"descendant":         axisDescendant,
	"descendant-or-self": axisDescendantOrSelf,
	"following":          axisFollowing,
	"following-sibling":  axisFollowingSibling,
	"parent":             axisParent,
	"preceding":          axisPreceding,
	"preceding-sibling":  axisPrecedingSibling,
	"self":               axisSelf,
	"css-class":          axisClass,
}

var axisAbbreviations = map[string]Axis{
	"^":     axisAncestor,
	"^^":    axisAncestorOrSelf,
	"@":     axisAttribute,
	".":     axisClass,
	"class": axisClass,
	"~":     axisDescendant,
	">>":    axisFollowing,
	">":     axisFollowingSibling,
	"<<":    axisPreceding,
	"<":     axisPrecedingSibling,
}

func canonicalAxis(str string) string {
	if a, ok := axisAbbreviations[str]; ok {
		return a.String()
	}
	return str
}

func (a Axis) String() string {
	for name, other := range axisNames {
		if a == other {
			return name
		}
	}
	return "<axis>"
}

func (a Axis) reverse() bool {
	switch a {
	case axisAncestor, axisAncestorOrSelf, axisPreceding, axisPrecedingSibling:
		return true
	default:
		return false
	}
}

func (a Axis) gather(n dom.Node) []dom.Node {
	switch a {
	case axisAncestor:
		return n.Ancestors()
	case axisAncestorOrSelf:
		return append([]dom.Node{n}, n.Ancestors()...)
	case axisAttribute:
		return n.Attributes()
	case axisChild, axisClass:
		switch n.Type() {
		case dom.TypeDocument:
			if el := n.Document().RootElement(); !el.IsZero() {
				return []dom.Node{el}
			}
			return nil
		case dom.TypeElement:
			return n.Children()
		default:
			return nil
		}
	case axisDescendant:
		return n.Descendants()
	case axisDescendantOrSelf:
		return append([]dom.Node{n}, n.Descendants()...)
	case axisFollowing:
		var list []dom.Node
		for ; isContent(n); n = n.Parent() {
			for _, s := range n.FollowingSiblings() {
				list = append(list, s)
				list = append(list, s.Descendants()...)
			}
		}
		return list
	case axisFollowingSibling:
		return n.FollowingSiblings()
	case axisParent:
		if p := n.Parent(); !p.IsZero() {
			return []dom.Node{p}
		}
		return nil
	case axisPreceding:
		var list []dom.Node
		for ; isContent(n); n = n.Parent() {
			for _, s := range n.PrecedingSiblings() {
				list = append(list, s)
				list = append(list, s.Descendants()...)
			}
		}
		return list
	case axisPrecedingSibling:
		return n.PrecedingSiblings()
	case axisSelf:
		return []dom.Node{n}
	default:
		return nil
	}
}

func isContent(n dom.Node) bool {
	switch n.Type() {
	case dom.TypeElement, dom.TypeText, dom.TypeComment:
		return true
	default:
		return false
	}
}

type testKind int8

const (
	testName testKind = iota
	testAny
	testNode
	testText
	testComment
)

type nodeTest struct {
	kind testKind
	name string
}

func nameTest(name string) nodeTest {
	return nodeTest{
		kind: testName,
		name: strings.ToLower(name),
	}
}

func kindTestOf(str string) nodeTest {
	switch str {
	case "node":
		return nodeTest{kind: testNode}
	case "text":
		return nodeTest{kind: testText}
	case "comment":
		return nodeTest{kind: testComment}
	default:
		return nodeTest{kind: testAny}
	}
}

func (t nodeTest) match(n dom.Node, axis Axis) bool {
	switch t.kind {
	case testName:
		if axis == axisClass {
			return n.Type() == dom.TypeElement && n.HasClass(t.name)
		}
		return isPrincipal(n, axis) && strings.EqualFold(n.Name(), t.name)
	case testAny:
		return isPrincipal(n, axis)
	case testNode:
		return !n.IsZero()
	case testText:
		return n.Type() == dom.TypeText
	case testComment:
		return n.Type() == dom.TypeComment
	default:
		return false
	}
}

func isPrincipal(n dom.Node, axis Axis) bool {
	if axis == axisAttribute {
		return n.Type() == dom.TypeAttribute
	}
	return n.Type() == dom.TypeElement
}

func (t nodeTest) String() string {
	switch t.kind {
	case testName:
		return t.name
	case testAny:
		return "*"
	case testNode:
		return "node()"
	case testText:
		return "text()"
	case testComment:
		return "comment()"
	default:
		return "<test>"
	}
}

type step struct {
	axis  Axis
	test  nodeTest
	preds []Expr
}

func (s step) String() string {
	return fmt.Sprintf("%s::%s%s", s.axis, s.test, strings.Repeat("[...]", len(s.preds)))
}

// selectFrom returns the nodes of the step reached from node: the nodes of the
// axis matching the test, filtered by each predicate in turn. The result is
// ordered in the direction of the axis.
func (s step) selectFrom(st *State, node dom.Node) ([]dom.Node, error) {
	var list []dom.Node
	for _, n := range s.axis.gather(node) {
		if s.test.match(n, s.axis) {
			list = append(list, n)
		}
	}
	list = sortNodes(list, s.axis.reverse())
	return applyPredicates(st, list, s.preds)
}

// applyPredicates keeps the nodes of list for which every predicate holds. A
// numeric predicate holds when it equals the position of the node.
func applyPredicates(st *State, list []dom.Node, preds []Expr) ([]dom.Node, error) {
	for _, p := range preds {
		var (
			keep []dom.Node
			size = len(list)
		)
		for i, n := range list {
			pop := st.push(n, i+1, size)
			v, err := p.eval(st)
			pop()
			if err != nil {
				return nil, err
			}
			ok := truth(v)
			if num, isNum := v.(Number); isNum {
				ok = float64(num) == float64(i+1)
			}
			if ok {
				keep = append(keep, n)
			}
		}
		list = keep
	}
	return list, nil
}

// filter applies predicates to the node set produced by an expression as a
// whole, in document order.
type filter struct {
	expr  Expr
	preds []Expr
}

func (f filter) eval(s *State) (Value, error) {
	v, err := f.expr.eval(s)
	if err != nil {
		return nil, err
	}
	list, err := nodesOf(v)
	if err != nil {
		return nil, err
	}
	list, err = applyPredicates(s, sortNodes(list, false), f.preds)
	if err != nil {
		return nil, err
	}
	return nodeSet(list), nil
}

// path is a location path. It starts either at the document root of the
// context node, at the context node itself or at each node produced by an
// expression.
type path struct {
	steps    []step
	absolute bool
	root     Expr
}

func (p path) eval(s *State) (Value, error) {
	s.Enter("path")
	defer s.Leave("path")

	var (
		list []dom.Node
		err  error
	)
	switch {
	case p.absolute:
		pop := s.push(s.Current().Node.Root(), 1, 1)
		list, err = p.evalSteps(s, p.steps)
		pop()
	case p.root != nil:
		var v Value
		if v, err = p.root.eval(s); err != nil {
			break
		}
		var nodes []dom.Node
		if nodes, err = nodesOf(v); err != nil {
			break
		}
		list, err = s.across(nodes, func() ([]dom.Node, error) {
			return p.evalSteps(s, p.steps)
		})
	default:
		list, err = p.evalSteps(s, p.steps)
	}
	if err != nil {
		s.Error("path", err)
		return nil, err
	}
	return nodeSet(sortNodes(list, false)), nil
}

func (p path) evalSteps(s *State, steps []step) ([]dom.Node, error) {
	list, err := steps[0].selectFrom(s, s.Current().Node)
	if err != nil || len(steps) == 1 {
		return list, err
	}
	return s.across(list, func() ([]dom.Node, error) {
		return p.evalSteps(s, steps[1:])
	})
}

func (p path) String() string {
	var str []string
	for _, s := range p.steps {
		str = append(str, s.String())
	}
	prefix := ""
	if p.absolute {
		prefix = "/"
	} else if p.root != nil {
		prefix = "<expr>/"
	}
	return prefix + strings.Join(str, "/")
}

// root is the document node of the context node.
type root struct{}

func (_ root) eval(s *State) (Value, error) {
	return nodeSet([]dom.Node{s.Current().Node.Root()}), nil
}
