package dom

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
)

var ErrSelector = errors.New("invalid selector")

// Select returns the elements of a parsed document matching the CSS
// selector, in document order.
func (d *Document) Select(selector string) ([]Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSelector, err)
	}
	if d.source == nil {
		return nil, fmt.Errorf("%w: document was not parsed from html", ErrSelector)
	}
	var list []Node
	for _, n := range sel.MatchAll(d.source) {
		id, ok := d.origin[n]
		if !ok {
			continue
		}
		list = append(list, d.Root().at(id))
	}
	return list, nil
}
