package json

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Writer struct {
	ws *bufio.Writer

	Indent string
	Pretty bool

	level int
}

func NewWriter(w io.Writer) *Writer {
	ws := Writer{
		ws:     bufio.NewWriter(w),
		Indent: "  ",
	}
	return &ws
}

// Encode returns the compact json representation of value.
func Encode(value any) (string, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(value); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (w *Writer) Write(value any) error {
	defer func() {
		w.reset()
		w.ws.Flush()
	}()
	return w.writeValue(value)
}

func (w *Writer) writeValue(value any) error {
	switch v := value.(type) {
	case *Object:
		return w.writeObject(v)
	case []any:
		return w.writeArray(v)
	default:
		return w.writeLiteral(value)
	}
}

func (w *Writer) writeObject(value *Object) error {
	if value.Len() == 0 {
		w.ws.WriteString("{}")
		return nil
	}
	w.enter()

	w.ws.WriteRune('{')
	w.writeNL()
	for i, k := range value.Keys() {
		if i > 0 {
			w.ws.WriteRune(',')
			w.writeNL()
		}
		w.writePrefix()
		w.writeKey(k)
		v, _ := value.Get(k)
		if err := w.writeValue(v); err != nil {
			return err
		}
	}
	w.leave()
	w.writeNL()
	w.writePrefix()
	w.ws.WriteRune('}')
	return nil
}

func (w *Writer) writeArray(value []any) error {
	if len(value) == 0 {
		w.ws.WriteString("[]")
		return nil
	}
	w.enter()

	w.ws.WriteRune('[')
	w.writeNL()
	for i := range value {
		if i > 0 {
			w.ws.WriteRune(',')
			w.writeNL()
		}
		w.writePrefix()
		if err := w.writeValue(value[i]); err != nil {
			return err
		}
	}
	w.leave()
	w.writeNL()
	w.writePrefix()
	w.ws.WriteRune(']')
	return nil
}

func (w *Writer) writeLiteral(value any) error {
	if value == nil {
		w.ws.WriteString("null")
		return nil
	}
	switch v := value.(type) {
	case bool:
		w.ws.WriteString(strconv.FormatBool(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			w.ws.WriteString("null")
			break
		}
		w.ws.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	case int64:
		w.ws.WriteString(strconv.FormatInt(v, 10))
	case int:
		w.ws.WriteString(strconv.Itoa(v))
	case string:
		w.writeString(v)
	default:
		return fmt.Errorf("%T: unsupported json type", value)
	}
	return nil
}

func (w *Writer) writeKey(key string) {
	w.writeString(key)
	w.ws.WriteRune(':')
	if w.Pretty {
		w.ws.WriteRune(' ')
	}
}

func (w *Writer) writeString(value string) {
	w.ws.WriteRune('"')
	for i := 0; i < len(value); {
		r, z := utf8.DecodeRuneInString(value[i:])
		i += z
		switch r {
		case '"':
			w.ws.WriteString(`\"`)
		case '\\':
			w.ws.WriteString(`\\`)
		case '\n':
			w.ws.WriteString(`\n`)
		case '\r':
			w.ws.WriteString(`\r`)
		case '\t':
			w.ws.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(w.ws, `\u%04x`, r)
				break
			}
			w.ws.WriteRune(r)
		}
	}
	w.ws.WriteRune('"')
}

func (w *Writer) writePrefix() {
	if !w.Pretty || w.level == 0 {
		return
	}
	space := strings.Repeat(w.Indent, w.level)
	w.ws.WriteString(space)
}

func (w *Writer) writeNL() {
	if !w.Pretty {
		return
	}
	w.ws.WriteRune('\n')
}

func (w *Writer) enter() {
	w.level++
}

func (w *Writer) leave() {
	w.level--
}

func (w *Writer) reset() {
	w.level = 0
}
