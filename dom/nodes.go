package dom

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/net/html"
)

type NodeType int8

const (
	TypeDocument NodeType = 1 << iota
	TypeElement
	TypeComment
	TypeAttribute
	TypeText
)

const TypeNode = TypeDocument | TypeElement | TypeComment | TypeAttribute | TypeText

func (n NodeType) String() string {
	switch n {
	default:
		return "<>"
	case TypeDocument:
		return "document"
	case TypeElement:
		return "element"
	case TypeComment:
		return "comment"
	case TypeAttribute:
		return "attribute"
	case TypeText:
		return "text"
	case TypeNode:
		return "node"
	}
}

const none = -1

type node struct {
	kind  NodeType
	name  string
	value string

	parent int
	first  int
	last   int
	prev   int
	next   int
	attrs  []int
}

// Document is an arena holding every node of a tree. The index of a node in
// the arena is its document order: nodes are appended in a single pre-order
// pass with the attributes of an element placed right after it.
type Document struct {
	nodes []node
	seq   uint64

	source *html.Node
	origin map[*html.Node]int
}

var documents atomic.Uint64

func newDocument() *Document {
	doc := Document{
		seq: documents.Add(1),
	}
	doc.nodes = append(doc.nodes, node{
		kind:   TypeDocument,
		parent: none,
		first:  none,
		last:   none,
		prev:   none,
		next:   none,
	})
	return &doc
}

func (d *Document) Root() Node {
	return Node{
		doc: d,
		id:  0,
	}
}

// RootElement returns the first element child of the document.
func (d *Document) RootElement() Node {
	for _, c := range d.Root().Children() {
		if c.Type() == TypeElement {
			return c
		}
	}
	return Node{}
}

func (d *Document) Len() int {
	return len(d.nodes)
}

func (d *Document) appendNode(parent int, n node) int {
	id := len(d.nodes)
	n.parent = parent
	n.first = none
	n.last = none
	n.prev = none
	n.next = none
	if parent != none {
		p := &d.nodes[parent]
		if p.last == none {
			p.first = id
		} else {
			d.nodes[p.last].next = id
			n.prev = p.last
		}
		p.last = id
	}
	d.nodes = append(d.nodes, n)
	return id
}

func (d *Document) appendAttr(owner int, name, value string) int {
	id := len(d.nodes)
	d.nodes = append(d.nodes, node{
		kind:   TypeAttribute,
		name:   name,
		value:  value,
		parent: owner,
		first:  none,
		last:   none,
		prev:   none,
		next:   none,
	})
	if owner != none {
		d.nodes[owner].attrs = append(d.nodes[owner].attrs, id)
	}
	return id
}

// Node is a handle on a node stored in a Document. The zero Node refers to
// nothing. Node values are comparable and can be used as map keys.
type Node struct {
	doc *Document
	id  int
}

func (n Node) IsZero() bool {
	return n.doc == nil
}

func (n Node) Document() *Document {
	return n.doc
}

func (n Node) Type() NodeType {
	if n.IsZero() {
		return 0
	}
	return n.get().kind
}

// Name returns the tag name of an element or the name of an attribute.
func (n Node) Name() string {
	if n.IsZero() {
		return ""
	}
	return n.get().name
}

// Value returns the content of text, comment and attribute nodes.
func (n Node) Value() string {
	if n.IsZero() {
		return ""
	}
	return n.get().value
}

func (n Node) Index() int {
	return n.id
}

func (n Node) Parent() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.at(n.get().parent)
}

func (n Node) FirstChild() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.at(n.get().first)
}

func (n Node) LastChild() Node {
	if n.IsZero() {
		return Node{}
	}
	return n.at(n.get().last)
}

func (n Node) NextSibling() Node {
	if n.IsZero() || n.Type() == TypeAttribute {
		return Node{}
	}
	return n.at(n.get().next)
}

func (n Node) PrevSibling() Node {
	if n.IsZero() || n.Type() == TypeAttribute {
		return Node{}
	}
	return n.at(n.get().prev)
}

// Root returns the document node of the arena n belongs to.
func (n Node) Root() Node {
	if n.IsZero() {
		return n
	}
	return n.doc.Root()
}

func (n Node) Children() []Node {
	var list []Node
	for c := n.FirstChild(); !c.IsZero(); c = c.NextSibling() {
		list = append(list, c)
	}
	return list
}

// Attributes returns the attribute nodes of an element ordered by their
// lower cased name.
func (n Node) Attributes() []Node {
	if n.Type() != TypeElement {
		return nil
	}
	var list []Node
	for _, id := range n.get().attrs {
		list = append(list, n.at(id))
	}
	return list
}

func (n Node) Attr(name string) (string, bool) {
	for _, a := range n.Attributes() {
		if strings.EqualFold(a.Name(), name) {
			return a.Value(), true
		}
	}
	return "", false
}

func (n Node) HasClass(name string) bool {
	str, ok := n.Attr("class")
	if !ok {
		return false
	}
	return slices.ContainsFunc(strings.Fields(str), func(c string) bool {
		return strings.EqualFold(c, name)
	})
}

// Descendants returns every node below n in document order. Attributes are
// not part of the result.
func (n Node) Descendants() []Node {
	var list []Node
	for c := n.FirstChild(); !c.IsZero(); c = c.NextSibling() {
		list = append(list, c)
		list = append(list, c.Descendants()...)
	}
	return list
}

// Ancestors returns the ancestors of n from its parent up to the document.
func (n Node) Ancestors() []Node {
	var list []Node
	for p := n.Parent(); !p.IsZero(); p = p.Parent() {
		list = append(list, p)
	}
	return list
}

func (n Node) FollowingSiblings() []Node {
	var list []Node
	for c := n.NextSibling(); !c.IsZero(); c = c.NextSibling() {
		list = append(list, c)
	}
	return list
}

// PrecedingSiblings returns the siblings before n, nearest first.
func (n Node) PrecedingSiblings() []Node {
	var list []Node
	for c := n.PrevSibling(); !c.IsZero(); c = c.PrevSibling() {
		list = append(list, c)
	}
	return list
}

// Texts returns the content of every text node below n in document order.
func (n Node) Texts() []string {
	if n.Type() == TypeText {
		return []string{n.Value()}
	}
	var list []string
	for _, c := range n.Descendants() {
		if c.Type() == TypeText {
			list = append(list, c.Value())
		}
	}
	return list
}

// Before reports whether n comes before other in document order. Nodes of
// distinct documents are ordered by the creation of their document.
func (n Node) Before(other Node) bool {
	if n.doc != other.doc {
		if n.doc == nil || other.doc == nil {
			return n.doc == nil
		}
		return n.doc.seq < other.doc.seq
	}
	return n.id < other.id
}

func (n Node) Compare(other Node) int {
	switch {
	case n == other:
		return 0
	case n.Before(other):
		return -1
	default:
		return 1
	}
}

func (n Node) String() string {
	switch n.Type() {
	case TypeDocument:
		return "document()"
	case TypeElement:
		return fmt.Sprintf("element(%s)", n.Name())
	case TypeAttribute:
		return fmt.Sprintf("attribute(%s=%q)", n.Name(), n.Value())
	case TypeText:
		return fmt.Sprintf("text(%q)", n.Value())
	case TypeComment:
		return fmt.Sprintf("comment(%q)", n.Value())
	default:
		return "<none>"
	}
}

func (n Node) get() *node {
	return &n.doc.nodes[n.id]
}

func (n Node) at(id int) Node {
	if id == none {
		return Node{}
	}
	return Node{
		doc: n.doc,
		id:  id,
	}
}
