package dom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

var ErrParse = errors.New("parse error")

type ParseError struct {
	File  string
	Cause error
}

func (e ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("html: %s", e.Cause)
	}
	return fmt.Sprintf("html(%s): %s", e.File, e.Cause)
}

func (e ParseError) Unwrap() error {
	return ErrParse
}

func ParseFile(file string) (*Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc, err := Parse(r)
	if err != nil {
		var perr ParseError
		if errors.As(err, &perr) {
			perr.File = file
			return nil, perr
		}
	}
	return doc, err
}

func ParseString(str string) (*Document, error) {
	return Parse(strings.NewReader(str))
}

// Parse reads an HTML document and loads it in a new arena. Doctype nodes
// are dropped.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, ParseError{
			Cause: err,
		}
	}
	doc := newDocument()
	doc.source = root
	doc.origin = make(map[*html.Node]int)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		doc.load(0, c)
	}
	return doc, nil
}

func (d *Document) load(parent int, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		id := d.appendNode(parent, node{
			kind: TypeElement,
			name: n.Data,
		})
		d.origin[n] = id
		attrs := slices.Clone(n.Attr)
		slices.SortStableFunc(attrs, func(a, b html.Attribute) int {
			return strings.Compare(strings.ToLower(a.Key), strings.ToLower(b.Key))
		})
		for _, a := range attrs {
			d.appendAttr(id, a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.load(id, c)
		}
	case html.TextNode:
		d.appendNode(parent, node{
			kind:  TypeText,
			value: n.Data,
		})
	case html.CommentNode:
		d.appendNode(parent, node{
			kind:  TypeComment,
			value: n.Data,
		})
	default:
	}
}
