package dom_test

import (
	"testing"

	"github.com/midbel/hq/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<html><body>
<div id="main" class="one two" Data-X="y">
  <p>first</p>
  <!-- note -->
  <p>second <b>bold</b></p>
</div>
</body></html>`

func parseSample(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(sample)
	require.NoError(t, err)
	return doc
}

func TestParseStructure(t *testing.T) {
	doc := parseSample(t)

	root := doc.RootElement()
	require.False(t, root.IsZero())
	assert.Equal(t, "html", root.Name())
	assert.Equal(t, dom.TypeDocument, root.Parent().Type())

	var names []string
	for _, c := range root.Children() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"head", "body"}, names)
}

func TestAttributesAreSortedByLowerName(t *testing.T) {
	doc := parseSample(t)

	var div dom.Node
	for _, n := range doc.Root().Descendants() {
		if n.Name() == "div" {
			div = n
			break
		}
	}
	require.False(t, div.IsZero())

	var names []string
	for _, a := range div.Attributes() {
		names = append(names, a.Name())
		assert.Equal(t, div, a.Parent())
		assert.True(t, div.Before(a))
	}
	assert.Equal(t, []string{"class", "data-x", "id"}, names)

	v, ok := div.Attr("ID")
	assert.True(t, ok)
	assert.Equal(t, "main", v)
	assert.True(t, div.HasClass("two"))
	assert.False(t, div.HasClass("three"))
}

func TestDocumentOrderIsPreOrder(t *testing.T) {
	doc := parseSample(t)

	all := doc.Root().Descendants()
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Before(all[i]), "%s before %s", all[i-1], all[i])
	}
	for _, n := range all {
		for _, a := range n.Attributes() {
			assert.True(t, n.Before(a))
			if next := n.FirstChild(); !next.IsZero() {
				assert.True(t, a.Before(next))
			}
		}
	}
}

func TestSiblingsAndAncestors(t *testing.T) {
	doc := parseSample(t)

	var paras []dom.Node
	for _, n := range doc.Root().Descendants() {
		if n.Name() == "p" {
			paras = append(paras, n)
		}
	}
	require.Len(t, paras, 2)

	prev := paras[1].PrecedingSiblings()
	require.NotEmpty(t, prev)
	assert.Equal(t, dom.TypeText, prev[0].Type())
	assert.Contains(t, prev, paras[0])

	next := paras[0].FollowingSiblings()
	assert.Contains(t, next, paras[1])

	ancestors := paras[0].Ancestors()
	require.NotEmpty(t, ancestors)
	assert.Equal(t, "div", ancestors[0].Name())
	assert.Equal(t, dom.TypeDocument, ancestors[len(ancestors)-1].Type())

	assert.Equal(t, []string{"second ", "bold"}, paras[1].Texts())
}

func TestBuilder(t *testing.T) {
	doc := parseSample(t)

	var b dom.Node
	for _, n := range doc.Root().Descendants() {
		if n.Name() == "b" {
			b = n
		}
	}
	builder := dom.NewBuilder("test")
	builder.SetAttr("z", "1")
	builder.SetAttr("a", "2")
	builder.SetAttr("Z", "3")
	builder.AppendText("hello")
	builder.AppendNode(b)

	el := builder.Build()
	assert.Equal(t, "test", el.Name())
	assert.Equal(t, `<test a="2" z="3">hello<b>bold</b></test>`, dom.WriteNode(el, false))

	children := el.Children()
	require.Len(t, children, 2)
	assert.NotEqual(t, b, children[1])
	assert.NotEqual(t, b.Document(), children[1].Document())
}

func TestWritePretty(t *testing.T) {
	builder := dom.NewBuilder("moe")
	builder.AppendNode(dom.NewBuilder("larry").Build())

	inner := dom.NewBuilder("curly")
	inner.AppendText("Hey, Moe!")
	builder.AppendNode(inner.Build())

	want := "<moe>\n <larry>\n </larry>\n <curly>\n  Hey, Moe!\n </curly>\n</moe>"
	assert.Equal(t, want, dom.WriteNode(builder.Build(), true))
}

func TestWriteEscape(t *testing.T) {
	builder := dom.NewBuilder("p")
	builder.SetAttr("title", `a "b" & c`)
	builder.AppendText("1 < 2")
	builder.AppendNode(dom.NewBuilder("br").Build())

	want := `<p title="a &quot;b&quot; &amp; c">1 &lt; 2<br/></p>`
	assert.Equal(t, want, dom.WriteNode(builder.Build(), false))
}

func TestWriteRawText(t *testing.T) {
	doc, err := dom.ParseString(`<head><script>if (a < b && c > d) {}</script><style>p > b { color: red }</style></head><p>a &lt; b</p>`)
	require.NoError(t, err)

	want := `<html><head><script>if (a < b && c > d) {}</script><style>p > b { color: red }</style></head><body><p>a &lt; b</p></body></html>`
	assert.Equal(t, want, dom.WriteNode(doc.RootElement(), false))
}

func TestSelect(t *testing.T) {
	doc, err := dom.ParseString(`<div>one</div><div>two</div><p class="x">three</p>`)
	require.NoError(t, err)

	tests := []struct {
		Selector string
		Want     []string
	}{
		{Selector: "div:nth-of-type(2)", Want: []string{"<div>\n two\n</div>"}},
		{Selector: "div", Want: []string{"<div>\n one\n</div>", "<div>\n two\n</div>"}},
		{Selector: "p.x", Want: []string{"<p class=\"x\">\n three\n</p>"}},
		{Selector: "span", Want: nil},
	}
	for _, tt := range tests {
		list, err := doc.Select(tt.Selector)
		require.NoError(t, err, tt.Selector)
		var got []string
		for _, n := range list {
			got = append(got, dom.WriteNode(n, true))
		}
		assert.Equal(t, tt.Want, got, tt.Selector)
	}

	_, err = doc.Select("div[")
	assert.ErrorIs(t, err, dom.ErrSelector)

	_, err = dom.NewBuilder("div").Build().Document().Select("div")
	assert.ErrorIs(t, err, dom.ErrSelector)
}
