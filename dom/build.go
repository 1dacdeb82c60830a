package dom

import (
	"slices"
	"strings"
)

// Builder assembles a synthetic element. Content is recorded first and the
// element is materialized by Build in a new arena so that its document order
// stays a pre-order traversal.
type Builder struct {
	name  string
	attrs [][2]string
	parts []Node
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
	}
}

// SetAttr defines an attribute on the element, replacing any attribute with
// the same name.
func (b *Builder) SetAttr(name, value string) {
	ix := slices.IndexFunc(b.attrs, func(a [2]string) bool {
		return strings.EqualFold(a[0], name)
	})
	if ix >= 0 {
		b.attrs[ix][1] = value
		return
	}
	b.attrs = append(b.attrs, [2]string{name, value})
}

// AppendNode adds a deep copy of n as the last child of the element.
func (b *Builder) AppendNode(n Node) {
	if n.IsZero() {
		return
	}
	b.parts = append(b.parts, n)
}

func (b *Builder) AppendText(str string) {
	b.parts = append(b.parts, newText(str))
}

func (b *Builder) Build() Node {
	doc := newDocument()
	id := doc.appendNode(0, node{
		kind: TypeElement,
		name: b.name,
	})
	attrs := slices.Clone(b.attrs)
	slices.SortStableFunc(attrs, func(a, b [2]string) int {
		return strings.Compare(strings.ToLower(a[0]), strings.ToLower(b[0]))
	})
	for _, a := range attrs {
		doc.appendAttr(id, a[0], a[1])
	}
	for _, n := range b.parts {
		doc.copyNode(id, n)
	}
	return doc.Root().at(id)
}

// NewAttribute creates a detached attribute node.
func NewAttribute(name, value string) Node {
	doc := newDocument()
	return doc.Root().at(doc.appendAttr(none, name, value))
}

// newText creates a detached text node.
func newText(str string) Node {
	doc := newDocument()
	id := doc.appendNode(0, node{
		kind:  TypeText,
		value: str,
	})
	return doc.Root().at(id)
}

func (d *Document) copyNode(parent int, n Node) int {
	if n.Type() == TypeAttribute {
		return d.appendAttr(parent, n.Name(), n.Value())
	}
	src := n.get()
	id := d.appendNode(parent, node{
		kind:  src.kind,
		name:  src.name,
		value: src.value,
	})
	for _, a := range n.Attributes() {
		d.appendAttr(id, a.Name(), a.Value())
	}
	for _, c := range n.Children() {
		d.copyNode(id, c)
	}
	return id
}
