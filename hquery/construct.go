package hquery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/midbel/hq/dom"
	"github.com/midbel/hq/json"
)

// contentOf evaluates the content expression of a constructor. A constructor
// without content yields no items.
func contentOf(s *State, expr Expr) ([]Value, error) {
	if expr == nil {
		return nil, nil
	}
	v, err := expr.eval(s)
	if err != nil {
		return nil, err
	}
	return itemsOf(v), nil
}

func badContent(ctor string, v Value) error {
	return evalErrorf(CodeEvalError, ErrType, "%s can not be used as content of %s constructor", typeName(v), ctor)
}

type elementCtor struct {
	name    string
	content Expr
}

func (e elementCtor) eval(s *State) (Value, error) {
	s.Enter("element")
	defer s.Leave("element")

	items, err := contentOf(s, e.content)
	if err != nil {
		return nil, err
	}
	b := dom.NewBuilder(e.name)
	for _, v := range items {
		switch v := v.(type) {
		case Node:
			switch v.Type() {
			case dom.TypeElement, dom.TypeText:
				b.AppendNode(v.Node)
			case dom.TypeAttribute:
				b.SetAttr(v.Name(), v.Value())
			default:
				return nil, badContent("element", v)
			}
		case String, Number, Boolean:
			b.AppendText(s.stringOf(v))
		default:
			return nil, badContent("element", v)
		}
	}
	return Sequence{Node{Node: b.Build()}}, nil
}

type attributeCtor struct {
	name    string
	content Expr
}

func (a attributeCtor) eval(s *State) (Value, error) {
	items, err := contentOf(s, a.content)
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, v := range items {
		switch v := v.(type) {
		case Node:
			if t := v.Type(); t != dom.TypeElement && t != dom.TypeAttribute {
				return nil, badContent("attribute", v)
			}
			parts = append(parts, s.stringOf(v))
		case String, Number, Boolean:
			parts = append(parts, s.stringOf(v))
		default:
			return nil, badContent("attribute", v)
		}
	}
	attr := dom.NewAttribute(a.name, strings.Join(parts, " "))
	return Node{Node: attr}, nil
}

type arrayCtor struct {
	content Expr
}

func (a arrayCtor) eval(s *State) (Value, error) {
	items, err := contentOf(s, a.content)
	if err != nil {
		return nil, err
	}
	arr := Array{
		list: []any{},
	}
	for _, v := range items {
		switch v := v.(type) {
		case Node:
			if t := v.Type(); t != dom.TypeElement && t != dom.TypeText {
				return nil, badContent("array", v)
			}
			arr.list = append(arr.list, s.stringOf(v))
		case String:
			arr.list = append(arr.list, string(v))
		case Number, Boolean:
			arr.list = append(arr.list, nativeOf(v))
		case *Hash, *Array:
			arr.list = append(arr.list, nativeOf(v))
		default:
			return nil, badContent("array", v)
		}
	}
	return &arr, nil
}

// keyEntry builds a single key: value pair of a hash.
type keyEntry struct {
	key  string
	expr Expr
}

func (k keyEntry) eval(s *State) (Value, error) {
	v, err := k.expr.eval(s)
	if err != nil {
		return nil, err
	}
	kv := keyValue{
		key:   k.key,
		value: v,
	}
	return kv, nil
}

type hashCtor struct {
	content Expr
	filters []hashFilter
}

func (h hashCtor) eval(s *State) (Value, error) {
	s.Enter("hash")
	defer s.Leave("hash")

	items, err := contentOf(s, h.content)
	if err != nil {
		return nil, err
	}
	obj := json.NewObject()
	for _, v := range items {
		switch v := v.(type) {
		case keyValue:
			obj.Set(v.key, entryOf(s, v.value))
		case Node:
			switch v.Type() {
			case dom.TypeElement:
				appendEntry(obj, v.Name(), s.stringOf(v))
			case dom.TypeText:
				appendText(obj, v.Value())
			default:
				return nil, badContent("hash", v)
			}
		case String:
			appendText(obj, string(v))
		default:
			return nil, badContent("hash", v)
		}
		for _, f := range h.filters {
			f(obj)
		}
	}
	return &Hash{obj: obj}, nil
}

func entryOf(s *State, v Value) any {
	if seq, ok := v.(Sequence); ok && len(seq) == 1 {
		v = seq[0]
	}
	switch v.(type) {
	case Number, Boolean, *Hash, *Array:
		return nativeOf(v)
	default:
		return s.stringOf(v)
	}
}

func appendEntry(obj *json.Object, key, value string) {
	prev, ok := obj.Get(key)
	if !ok {
		obj.Set(key, value)
		return
	}
	if list, ok := prev.([]any); ok {
		obj.Set(key, append(list, value))
		return
	}
	obj.Set(key, []any{prev, value})
}

const textKey = "text"

func appendText(obj *json.Object, str string) {
	prev, ok := obj.Get(textKey)
	if p, isStr := prev.(string); ok && isStr && p != "" {
		str = p + " " + str
	}
	obj.Set(textKey, str)
}

func nativeOf(v Value) any {
	switch v := v.(type) {
	case Number:
		return float64(v)
	case Boolean:
		return bool(v)
	case *Hash:
		return v.obj
	case *Array:
		return v.list
	default:
		return nil
	}
}

type hashFilter func(*json.Object)

var (
	arrayFilterPattern  = regexp.MustCompile(`^a:(([a-zA-Z]\w*,?)+):`)
	mapFilterPattern    = regexp.MustCompile(`^m:(([a-zA-Z]\w*>[a-zA-Z]\w*,?)+):`)
	numberFilterPattern = regexp.MustCompile(`^n:(([a-zA-Z]\w*,?)+):`)
)

// parseHashFilters decodes the filter clause of a hash constructor, a
// concatenation of a:names:, n:names: and m:old>new,...: clauses.
func parseHashFilters(str string) ([]hashFilter, error) {
	var list []hashFilter
	for str != "" {
		if m := arrayFilterPattern.FindStringSubmatch(str); m != nil {
			list = append(list, arrayFilter(splitNames(m[1])))
			str = str[len(m[0]):]
			continue
		}
		if m := mapFilterPattern.FindStringSubmatch(str); m != nil {
			list = append(list, mapFilter(splitNames(m[1])))
			str = str[len(m[0]):]
			continue
		}
		if m := numberFilterPattern.FindStringSubmatch(str); m != nil {
			list = append(list, numberFilter(splitNames(m[1])))
			str = str[len(m[0]):]
			continue
		}
		return nil, fmt.Errorf("malformed filter %q in hash constructor", str)
	}
	return list, nil
}

func splitNames(str string) []string {
	var list []string
	for _, n := range strings.Split(str, ",") {
		if n != "" {
			list = append(list, n)
		}
	}
	return list
}

func arrayFilter(names []string) hashFilter {
	return func(obj *json.Object) {
		for _, n := range names {
			v, ok := obj.Get(n)
			if !ok {
				continue
			}
			if _, ok := v.([]any); !ok {
				obj.Set(n, []any{v})
			}
		}
	}
}

func numberFilter(names []string) hashFilter {
	return func(obj *json.Object) {
		for _, n := range names {
			v, ok := obj.Get(n)
			if !ok {
				continue
			}
			list, ok := v.([]any)
			if !ok {
				obj.Set(n, toNumber(v))
				continue
			}
			nums := make([]any, 0, len(list))
			for _, v := range list {
				nums = append(nums, toNumber(v))
			}
			obj.Set(n, nums)
		}
	}
}

func mapFilter(mappings []string) hashFilter {
	return func(obj *json.Object) {
		for _, m := range mappings {
			old, to, _ := strings.Cut(m, ">")
			obj.Rename(old, to)
		}
	}
}

func toNumber(v any) any {
	switch v := v.(type) {
	case float64:
		return v
	case bool:
		if v {
			return float64(1)
		}
		return float64(0)
	case string:
		return float64(parseNumber(v))
	default:
		return float64(NaN())
	}
}
