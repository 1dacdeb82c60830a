package json

import (
	"slices"
)

// Object is a json object remembering the order in which its keys were
// first defined.
type Object struct {
	keys   []string
	values map[string]any
}

func NewObject() *Object {
	return &Object{
		values: make(map[string]any),
	}
}

func (o *Object) Len() int {
	return len(o.keys)
}

func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set defines or replaces the value of key. A replaced key keeps its
// original position.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool {
		return k == key
	})
}

// Rename moves the value of key under a new name. The renamed entry takes the
// position of the previous one. An existing entry named to is replaced.
func (o *Object) Rename(key, to string) {
	value, ok := o.values[key]
	if !ok || key == to {
		return
	}
	o.Delete(to)
	ix := slices.Index(o.keys, key)
	o.keys[ix] = to
	delete(o.values, key)
	o.values[to] = value
}

