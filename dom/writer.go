package dom

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/atom"
)

type WriterOptions uint64

const (
	OptionCompact WriterOptions = 1 << iota
	OptionNoComment
)

func (w WriterOptions) Compact() bool {
	return w&OptionCompact > 0
}

func (w WriterOptions) NoComment() bool {
	return w&OptionNoComment > 0
}

// Writer serializes nodes either as they appear in the source (compact) or
// pretty printed with every tag and text on its own line.
type Writer struct {
	writer *bufio.Writer

	Indent string
	WriterOptions
	lines int
}

func WriteNode(node Node, pretty bool) string {
	var buf bytes.Buffer

	ws := NewWriter(&buf)
	if !pretty {
		ws.WriterOptions |= OptionCompact
	}
	ws.Write(node)
	return buf.String()
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		writer: bufio.NewWriter(w),
		Indent: " ",
	}
}

func (w *Writer) Write(node Node) error {
	w.lines = 0
	if err := w.writeNode(node, 0); err != nil {
		return err
	}
	return w.writer.Flush()
}

func (w *Writer) writeNode(node Node, depth int) error {
	switch node.Type() {
	case TypeDocument:
		for _, c := range node.Children() {
			if err := w.writeNode(c, depth); err != nil {
				return err
			}
		}
		return nil
	case TypeElement:
		return w.writeElement(node, depth)
	case TypeText:
		return w.writeText(node, depth)
	case TypeComment:
		return w.writeComment(node, depth)
	case TypeAttribute:
		w.writeAttribute(node)
		return nil
	default:
		return fmt.Errorf("node: unknown type (%s)", node.Type())
	}
}

func (w *Writer) writeElement(node Node, depth int) error {
	w.writeNL()
	prefix := w.getIndent(depth)
	w.writer.WriteString(prefix)
	w.writer.WriteRune(langle)
	w.writer.WriteString(node.Name())
	for _, a := range node.Attributes() {
		w.writer.WriteRune(' ')
		w.writeAttribute(a)
	}
	if isVoid(node.Name()) && node.FirstChild().IsZero() {
		w.writer.WriteRune(slash)
		w.writer.WriteRune(rangle)
		return nil
	}
	w.writer.WriteRune(rangle)
	for _, c := range node.Children() {
		if err := w.writeNode(c, depth+1); err != nil {
			return err
		}
	}
	w.writeNL()
	w.writer.WriteString(prefix)
	w.writer.WriteRune(langle)
	w.writer.WriteRune(slash)
	w.writer.WriteString(node.Name())
	w.writer.WriteRune(rangle)
	return nil
}

func (w *Writer) writeText(node Node, depth int) error {
	str := node.Value()
	if !w.Compact() {
		str = strings.TrimSpace(str)
		if str == "" {
			return nil
		}
		w.writeNL()
		w.writer.WriteString(w.getIndent(depth))
	}
	if !isRawText(node.Parent().Name()) {
		str = escapeText(str, false)
	}
	_, err := w.writer.WriteString(str)
	return err
}

func (w *Writer) writeComment(node Node, depth int) error {
	if w.NoComment() {
		return nil
	}
	w.writeNL()
	w.writer.WriteString(w.getIndent(depth))
	w.writer.WriteRune(langle)
	w.writer.WriteRune(bang)
	w.writer.WriteRune(dash)
	w.writer.WriteRune(dash)
	w.writer.WriteString(node.Value())
	w.writer.WriteRune(dash)
	w.writer.WriteRune(dash)
	w.writer.WriteRune(rangle)
	return nil
}

func (w *Writer) writeAttribute(attr Node) {
	w.writer.WriteString(attr.Name())
	w.writer.WriteRune(equal)
	w.writer.WriteRune(quote)
	w.writer.WriteString(escapeText(attr.Value(), true))
	w.writer.WriteRune(quote)
}

func (w *Writer) writeNL() {
	if w.Compact() {
		return
	}
	if w.lines > 0 {
		w.writer.WriteRune('\n')
	}
	w.lines++
}

func (w *Writer) getIndent(depth int) string {
	if w.Compact() {
		return ""
	}
	return strings.Repeat(w.Indent, depth)
}

func isVoid(name string) bool {
	switch atom.Lookup([]byte(name)) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	default:
		return false
	}
}

// isRawText reports whether the content of the element is written as is.
func isRawText(name string) bool {
	switch atom.Lookup([]byte(name)) {
	case atom.Script, atom.Style, atom.Xmp, atom.Iframe, atom.Noembed, atom.Noframes, atom.Plaintext:
		return true
	default:
		return false
	}
}

func escapeText(str string, attr bool) string {
	var buf bytes.Buffer
	for i := 0; i < len(str); {
		r, z := utf8.DecodeRuneInString(str[i:])
		i += z

		switch {
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == '&':
			buf.WriteString("&amp;")
		case r == '"' && attr:
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

const (
	langle = '<'
	rangle = '>'
	slash  = '/'
	bang   = '!'
	dash   = '-'
	equal  = '='
	quote  = '"'
)
