package hquery

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/midbel/hq/dom"
	"github.com/midbel/hq/json"
)

type Kind int8

const (
	KindBoolean Kind = iota
	KindSequence
	KindNumber
	KindString
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindSequence:
		return "sequence"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "object"
	}
}

// Value is the result of evaluating an expression. Its concrete type is one of
// Boolean, Number, String, Sequence, Node, *Hash, *Array or a hash entry.
type Value interface {
	Kind() Kind
}

type Boolean bool

func (_ Boolean) Kind() Kind {
	return KindBoolean
}

func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

type Number float64

func NaN() Number {
	return Number(math.NaN())
}

func (_ Number) Kind() Kind {
	return KindNumber
}

func (n Number) String() string {
	return formatNumber(float64(n))
}

type String string

func (_ String) Kind() Kind {
	return KindString
}

func (s String) String() string {
	return string(s)
}

// Sequence is a flat list of items. A sequence made only of nodes is a node
// set and is kept sorted in document order without duplicates.
type Sequence []Value

func (_ Sequence) Kind() Kind {
	return KindSequence
}

// Node is a single tree node. It behaves as a node set of one item.
type Node struct {
	dom.Node
}

func (_ Node) Kind() Kind {
	return KindSequence
}

type Hash struct {
	obj *json.Object
}

func (_ *Hash) Kind() Kind {
	return KindOther
}

// Format returns the json text of the hash, one member per line indented
// with indent. An empty indent gives the compact form.
func (h *Hash) Format(indent string) string {
	return formatJSON(h.obj, indent)
}

func (h *Hash) String() string {
	str, _ := json.Encode(h.obj)
	return str
}

type Array struct {
	list []any
}

func (_ *Array) Kind() Kind {
	return KindOther
}

func (a *Array) Format(indent string) string {
	return formatJSON(a.list, indent)
}

func (a *Array) String() string {
	str, _ := json.Encode(a.list)
	return str
}

func formatJSON(value any, indent string) string {
	var (
		buf strings.Builder
		ws  = json.NewWriter(&buf)
	)
	ws.Pretty = indent != ""
	ws.Indent = indent
	ws.Write(value)
	return buf.String()
}

type keyValue struct {
	key   string
	value Value
}

func (_ keyValue) Kind() Kind {
	return KindOther
}

func nodeSet(list []dom.Node) Sequence {
	seq := make(Sequence, 0, len(list))
	for _, n := range list {
		seq = append(seq, Node{Node: n})
	}
	return seq
}

// sortNodes removes duplicates from list and orders it by document order,
// last node first when reverse is set.
func sortNodes(list []dom.Node, reverse bool) []dom.Node {
	slices.SortFunc(list, func(a, b dom.Node) int {
		if reverse {
			return b.Compare(a)
		}
		return a.Compare(b)
	})
	return slices.Compact(list)
}

func itemsOf(v Value) []Value {
	switch v := v.(type) {
	case Sequence:
		return v
	case nil:
		return nil
	default:
		return []Value{v}
	}
}

func isNodeSet(v Value) bool {
	switch v := v.(type) {
	case Node:
		return true
	case Sequence:
		for i := range v {
			if _, ok := v[i].(Node); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func nodesOf(v Value) ([]dom.Node, error) {
	switch v := v.(type) {
	case Node:
		return []dom.Node{v.Node}, nil
	case Sequence:
		list := make([]dom.Node, 0, len(v))
		for i := range v {
			n, ok := v[i].(Node)
			if !ok {
				return nil, evalErrorf(CodeNodeSet, ErrNodeSet, "%s found in node set", typeName(v[i]))
			}
			list = append(list, n.Node)
		}
		return list, nil
	default:
		return nil, evalErrorf(CodeNodeSet, ErrNodeSet, "%s used as node set", typeName(v))
	}
}

func typeName(v Value) string {
	switch v := v.(type) {
	case Node:
		return v.Type().String()
	case *Hash:
		return "hash"
	case *Array:
		return "array"
	case keyValue:
		return "hash entry"
	case nil:
		return "null"
	default:
		return v.Kind().String()
	}
}

func truth(v Value) bool {
	switch v := v.(type) {
	case Boolean:
		return bool(v)
	case Number:
		return v != 0 && !math.IsNaN(float64(v))
	case String:
		return v != ""
	case Sequence:
		return len(v) > 0
	case nil:
		return false
	default:
		return true
	}
}

func parseNumber(str string) Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return NaN()
	}
	return Number(f)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

var blanks = regexp.MustCompile(`[\s\x{a0}]+`)

func normalizeSpace(str string) string {
	return strings.TrimSpace(blanks.ReplaceAllString(str, " "))
}

func nodeString(n dom.Node, preserve bool) string {
	switch n.Type() {
	case dom.TypeElement, dom.TypeDocument:
		str := strings.Join(n.Texts(), "")
		if preserve {
			return str
		}
		return normalizeSpace(str)
	default:
		return n.Value()
	}
}

func stringOf(v Value, preserve bool) string {
	switch v := v.(type) {
	case String:
		return string(v)
	case Number:
		return v.String()
	case Boolean:
		return v.String()
	case Node:
		return nodeString(v.Node, preserve)
	case Sequence:
		if isNodeSet(v) {
			if len(v) == 0 {
				return ""
			}
			return stringOf(v[0], preserve)
		}
		var buf strings.Builder
		for i := range v {
			buf.WriteString(stringOf(v[i], preserve))
		}
		return buf.String()
	case *Hash:
		return v.String()
	case *Array:
		return v.String()
	case keyValue:
		return stringOf(v.value, preserve)
	default:
		return ""
	}
}

func numberOf(v Value, preserve bool) Number {
	switch v := v.(type) {
	case Number:
		return v
	case Boolean:
		if v {
			return 1
		}
		return 0
	case String:
		return parseNumber(string(v))
	case Node, Sequence:
		return parseNumber(stringOf(v, preserve))
	default:
		return NaN()
	}
}

// Items returns the items of v. A value that is not a sequence is its own
// single item.
func Items(v Value) []Value {
	return itemsOf(v)
}

// StringValue returns the string value of v.
func StringValue(v Value, preserve bool) string {
	return stringOf(v, preserve)
}
