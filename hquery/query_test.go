package hquery

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/midbel/hq/dom"
)

type queryCase struct {
	Body     string
	Expr     string
	Expected []string
}

func runQuery(body, expr string, preserve bool) ([]string, error) {
	doc, err := dom.ParseString("<html><body>" + body + "</body></html>")
	if err != nil {
		return nil, err
	}
	q, err := Compile(expr, preserve)
	if err != nil {
		return nil, err
	}
	v, err := q.Run(doc.Root())
	if err != nil {
		return nil, err
	}
	return render(v, preserve), nil
}

func render(v Value, preserve bool) []string {
	var list []string
	for _, item := range itemsOf(v) {
		n, ok := item.(Node)
		switch {
		case ok && n.Type() == dom.TypeElement:
			list = append(list, dom.WriteNode(n.Node, true))
		case ok && n.Type() == dom.TypeText:
			list = append(list, n.Value())
		default:
			list = append(list, stringOf(item, preserve))
		}
	}
	return list
}

func testQueries(t *testing.T, tests []queryCase) {
	t.Helper()
	for _, c := range tests {
		got, err := runQuery(c.Body, c.Expr, false)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Expr, err)
			continue
		}
		if len(got) != len(c.Expected) {
			t.Errorf("%s: number of results mismatched! want %d, got %d (%q)", c.Expr, len(c.Expected), len(got), got)
			continue
		}
		if !slices.Equal(got, c.Expected) {
			t.Errorf("%s: results mismatched! want %q, got %q", c.Expr, c.Expected, got)
		}
	}
}

const (
	paragraphs = `<p>one</p><p>two</p><p>three</p>`
	classified = `<div id="a" class="Foo bar"><p>one</p><span>two</span></div>`
)

func TestLocationPaths(t *testing.T) {
	tests := []queryCase{
		{Body: paragraphs, Expr: "//p/text()", Expected: []string{"one", "two", "three"}},
		{Body: paragraphs, Expr: "/html/body/p[2]/text()", Expected: []string{"two"}},
		{Body: paragraphs, Expr: "//p[last()]/text()", Expected: []string{"three"}},
		{Body: paragraphs, Expr: "//p[position() > 1]/text()", Expected: []string{"two", "three"}},
		{Body: paragraphs, Expr: "//p[even()]/text()", Expected: []string{"two"}},
		{Body: paragraphs, Expr: "//p[odd()]/text()", Expected: []string{"one", "three"}},
		{Body: paragraphs, Expr: "//p[. = 'two']/text()", Expected: []string{"two"}},
		{Body: paragraphs, Expr: "(//p)[1]/text()", Expected: []string{"one"}},
		{Body: paragraphs, Expr: "//p[1]/following-sibling::p/text()", Expected: []string{"two", "three"}},
		{Body: paragraphs, Expr: "//p[3]/preceding-sibling::p[1]/text()", Expected: []string{"two"}},
		{Body: paragraphs, Expr: "//p[3]/preceding-sibling::p/text()", Expected: []string{"one", "two"}},
		{Body: paragraphs, Expr: "count(//p)", Expected: []string{"3"}},
		{Body: paragraphs, Expr: "count(/)", Expected: []string{"1"}},
		{Body: classified, Expr: "//p/parent::div/@id", Expected: []string{"a"}},
		{Body: classified, Expr: "count(//span/ancestor::*)", Expected: []string{"3"}},
		{Body: classified, Expr: "/html/body/class::foo/@id", Expected: []string{"a"}},
		{Body: classified, Expr: "//div[class('bar')]/@id", Expected: []string{"a"}},
		{Body: classified, Expr: "//p/following::*/text()", Expected: []string{"two"}},
		{Body: classified, Expr: "//span/preceding::text()", Expected: []string{"one"}},
		{Body: classified, Expr: "//@class", Expected: []string{"Foo bar"}},
		{Body: classified, Expr: "//div/@*", Expected: []string{"Foo bar", "a"}},
		{Body: classified, Expr: "count(//p/..)", Expected: []string{"1"}},
		{Body: classified, Expr: "//p/self::p/text()", Expected: []string{"one"}},
		{Body: classified, Expr: "//div/descendant::text()", Expected: []string{"one", "two"}},
		{Body: classified, Expr: "count(//div/child::node())", Expected: []string{"2"}},
		{Body: classified, Expr: "//div/~::span/text()", Expected: []string{"two"}},
	}
	testQueries(t, tests)
}

func TestOperators(t *testing.T) {
	tests := []queryCase{
		{Expr: "6div2", Expected: []string{"3"}},
		{Expr: `number("84")div2`, Expected: []string{"42"}},
		{Expr: "1 + 2 * 3", Expected: []string{"7"}},
		{Expr: "(1 + 2) * 3", Expected: []string{"9"}},
		{Expr: "7 mod 3", Expected: []string{"1"}},
		{Expr: "-7 mod 3", Expected: []string{"2"}},
		{Expr: "0.5 + 0.25", Expected: []string{"0.75"}},
		{Expr: "string(2 div 0)", Expected: []string{"NaN"}},
		{Expr: "string(-0)", Expected: []string{"0"}},
		{Expr: "1 to 3", Expected: []string{"1", "2", "3"}},
		{Expr: "1, 'two', true()", Expected: []string{"1", "two", "true"}},
		{Expr: `"1" = 1`, Expected: []string{"true"}},
		{Expr: "1 != 1", Expected: []string{"false"}},
		{Expr: "1 < 2", Expected: []string{"true"}},
		{Expr: `"a" < "b"`, Expected: []string{"true"}},
		{Expr: "true() = 1", Expected: []string{"true"}},
		{Expr: "false() or 1 and 0", Expected: []string{"false"}},
		{Body: paragraphs, Expr: `//p = "two"`, Expected: []string{"true"}},
		{Body: paragraphs, Expr: `//p > 1`, Expected: []string{"false"}},
		{Body: "<div><span>one</span><span>two</span></div><div><span>two</span><span>three</span></div>", Expr: "(//div)[1]/span = (//div)[2]/span", Expected: []string{"true"}},
		{Body: "<div><span>one</span></div><div><span>three</span></div>", Expr: "(//div)[1]/span = (//div)[2]/span", Expected: []string{"false"}},
		{Expr: `string(number("42.0"))`, Expected: []string{"42"}},
		{Expr: `number(true()) + number(false())`, Expected: []string{"1"}},
		{Expr: `boolean(0 div 0)`, Expected: []string{"false"}},
		{Expr: `if (0.001) then "foo" else "bar"`, Expected: []string{"foo"}},
		{Expr: `if (//nothing) then "foo" else "bar"`, Expected: []string{"bar"}},
	}
	testQueries(t, tests)
}

func TestFunctions(t *testing.T) {
	tests := []queryCase{
		{Expr: `tokenize("Moe:Larry:..Curly", ":\.*")`, Expected: []string{"Moe", "Larry", "Curly"}},
		{Expr: `concat("a", "b", 1)`, Expected: []string{"ab1"}},
		{Expr: `upper-case("hello")`, Expected: []string{"HELLO"}},
		{Expr: `lower-case("HeLLo")`, Expected: []string{"hello"}},
		{Expr: `normalize-space("  a   b  ")`, Expected: []string{"a b"}},
		{Expr: `string-length("hello")`, Expected: []string{"5"}},
		{Expr: `starts-with("hello", "he")`, Expected: []string{"true"}},
		{Expr: `matches("Hello", "^hel", "i")`, Expected: []string{"true"}},
		{Expr: `matches("Hello", "^hel")`, Expected: []string{"false"}},
		{Expr: `matches("a b", "a b", "x")`, Expected: []string{"false"}},
		{Expr: `replace("abc", "b", "x")`, Expected: []string{"axc"}},
		{Expr: `replace("abc", "(b)", "[\1]")`, Expected: []string{"a[b]c"}},
		{Expr: `not(boolean(""))`, Expected: []string{"true"}},
		{Body: paragraphs, Expr: `string-join(//p, ", ")`, Expected: []string{"one, two, three"}},
		{Body: paragraphs, Expr: `string(//p)`, Expected: []string{"one"}},
		{Body: paragraphs, Expr: `//p[string-length() = 3]/text()`, Expected: []string{"one", "two"}},
		{Body: paragraphs, Expr: `//p[starts-with(normalize-space(), "t")]/text()`, Expected: []string{"two", "three"}},
	}
	testQueries(t, tests)
}

func TestFlwor(t *testing.T) {
	scoping := strings.Join([]string{
		"let $x := 2",
		"let $z := $x",
		"for $_ in (1, $x)",
		"let $y := $_",
		"let $x := $_",
		"return ($x, $z, $x = $y)",
	}, " ")
	tests := []queryCase{
		{Expr: `let $foo := "bar" return $foo`, Expected: []string{"bar"}},
		{Expr: `let $hello := "hello, " let $whole-phrase := concat($hello, "world!") return $whole-phrase`, Expected: []string{"hello, world!"}},
		{Expr: `for $x in (1 to 2) let $y := concat("Thing ", string($x)) return $y`, Expected: []string{"Thing 1", "Thing 2"}},
		{Expr: scoping, Expected: []string{"1", "2", "true", "2", "2", "true"}},
		{Expr: "let $x := 2 for $_ in (1, $x) let $x := $_ return ($x)", Expected: []string{"1", "2"}},
		{Expr: "let $x := 2 return (for $_ in (1, 3) let $x := $_ return $x, $x)", Expected: []string{"1", "3", "2"}},
		{Body: paragraphs, Expr: "for $x in //p return $x/text()", Expected: []string{"one", "two", "three"}},
		{Body: paragraphs, Expr: "//p -> string($_)", Expected: []string{"one", "two", "three"}},
	}
	testQueries(t, tests)
}

func TestUnionDecomposition(t *testing.T) {
	const (
		headings = `<h1>heading</h1><p>content</p><h1>another heading</h1>`
		nested   = `<div>div1</div><p>p1</p><div><p>p2</p></div>`
	)
	tests := []queryCase{
		{Body: headings, Expr: `(//h1 | //p) => ("fizz" | "buzz")`, Expected: []string{"fizz", "buzz", "fizz"}},
		{Body: headings, Expr: "(//h1 | //p) => `h1 $_` | `p $_`", Expected: []string{"h1 heading", "p content", "h1 another heading"}},
		{Body: nested, Expr: `(//p | /html/body/div | /html/body//*) => "one" | "two" | "three"`, Expected: []string{"two", "one", "two", "one"}},
		{Body: headings, Expr: "count(//h1 | //p | //h1)", Expected: []string{"3"}},
	}
	testQueries(t, tests)
}

func TestConstructors(t *testing.T) {
	tests := []queryCase{
		{Expr: `element foo { "bar" }`, Expected: []string{"<foo>\n bar\n</foo>"}},
		{Expr: `element div { attribute id { "x" }, "text" }`, Expected: []string{"<div id=\"x\">\n text\n</div>"}},
		{Body: "<p>one</p>", Expr: "element ul { //p }", Expected: []string{"<ul>\n <p>\n  one\n </p>\n</ul>"}},
		{Expr: `attribute class { "a", "b" }`, Expected: []string{"a b"}},
		{Body: "<p>one</p><div>two</div>", Expr: "hash { /html/body/* }", Expected: []string{`{"p":"one","div":"two"}`}},
		{Body: paragraphs, Expr: "hash { /html/body/* }", Expected: []string{`{"p":["one","two","three"]}`}},
		{Body: "<h1>zero</h1><p>one</p>", Expr: "hash {a:h1:} { /html/body/* }", Expected: []string{`{"h1":["zero"],"p":"one"}`}},
		{Body: "<p>20</p><div>20</div><h1>20.20</h1>", Expr: "hash {n:div,h1:} { /html/body/* }", Expected: []string{`{"p":"20","div":20,"h1":20.2}`}},
		{Body: "<p>foo</p><div>bar</div>", Expr: "hash {m:p>paragraph,div>other:} { /html/body/* }", Expected: []string{`{"paragraph":"foo","other":"bar"}`}},
		{Body: "<p>vidi</p>", Expr: `hash { "veni", //p/text(), "vici" }`, Expected: []string{`{"text":"veni vidi vici"}`}},
		{Expr: `hash { title: "foo", count: 2, ok: true() }`, Expected: []string{`{"title":"foo","count":2,"ok":true}`}},
		{Expr: `hash { inner: hash { a: 1 }, list: array { 1, 2 } }`, Expected: []string{`{"inner":{"a":1},"list":[1,2]}`}},
		{Expr: `array { 1, "two", true() }`, Expected: []string{`[1,"two",true]`}},
		{Body: paragraphs, Expr: "array { //p }", Expected: []string{`["one","two","three"]`}},
		{Expr: "array {}", Expected: []string{`[]`}},
	}
	testQueries(t, tests)
}

func TestTemplates(t *testing.T) {
	tests := []queryCase{
		{Expr: "let $foo := \"bar\" return `foo is $foo`", Expected: []string{"foo is bar"}},
		{Expr: "let $foo := (1 to 3) return `${j:, :$foo}`", Expected: []string{"1, 2, 3"}},
		{Expr: "`${tru:8:...:'hello world again'}`", Expected: []string{"hello..."}},
		{Expr: "`${rr:o:0::'foo'}`", Expected: []string{"f00"}},
		{Body: paragraphs, Expr: "`${j:, ://p}`", Expected: []string{"one, two, three"}},
		{Expr: "`${rr:O:0:i:j:-:('foo', 'bor')}`", Expected: []string{"f00-b0r"}},
		{Expr: "`a&amp;b`", Expected: []string{"a&b"}},
		{Body: paragraphs, Expr: "`count: ${count(//p)}`", Expected: []string{"count: 3"}},
	}
	testQueries(t, tests)
}

func TestPreserveSpace(t *testing.T) {
	const body = "<p>  a   b  </p>"
	got, err := runQuery(body, "string(//p)", false)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 1 || got[0] != "a b" {
		t.Errorf("normalized string mismatched! want %q, got %q", "a b", got)
	}
	got, err = runQuery(body, "string(//p)", true)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 1 || got[0] != "  a   b  " {
		t.Errorf("preserved string mismatched! want %q, got %q", "  a   b  ", got)
	}
}

func TestEvaluationErrors(t *testing.T) {
	tests := []struct {
		Expr string
		Err  error
	}{
		{Expr: `count("a")`, Err: ErrNodeSet},
		{Expr: `"a" | "b"`, Err: ErrNodeSet},
		{Expr: "$undefined", Err: ErrUndefined},
		{Expr: "foo-bar()", Err: ErrUndefined},
		{Expr: "count()", Err: ErrArgument},
		{Expr: `matches("a", "a", "q")`, Err: ErrArgument},
		{Expr: "string-length(1)", Err: ErrType},
		{Expr: "hash { 1 }", Err: ErrType},
		{Expr: "hash { a: 1 } = 1", Err: ErrType},
		{Expr: "hash { a: 1 } < 1", Err: ErrType},
		{Expr: "2 >= array { 1, 2 }", Err: ErrType},
		{Expr: "//p > hash { a: 1 }", Err: ErrType},
		{Expr: "1 => 'one'", Err: ErrType},
	}
	for _, c := range tests {
		_, err := runQuery(paragraphs, c.Expr, false)
		if err == nil {
			t.Errorf("%s: expected error but got none", c.Expr)
			continue
		}
		var eerr EvaluationError
		if !errors.As(err, &eerr) {
			t.Errorf("%s: EvaluationError expected, got %T (%s)", c.Expr, err, err)
			continue
		}
		if !errors.Is(err, c.Err) {
			t.Errorf("%s: error mismatched! want %s, got %s", c.Expr, c.Err, err)
		}
	}
}

func TestUnknownFunctionSuggestion(t *testing.T) {
	_, err := runQuery("", "cuont(//p)", false)
	if err == nil {
		t.Fatalf("expected error but got none")
	}
	var uerr unknownFunctionError
	if !errors.As(err, &uerr) {
		t.Fatalf("unknown function error expected, got %T", err)
	}
	if uerr.Name != "cuont" {
		t.Errorf("function name mismatched! want cuont, got %s", uerr.Name)
	}
	for _, n := range uerr.Others {
		if _, err := builtins.Resolve(n); err != nil {
			t.Errorf("%s: suggested function is not defined", n)
		}
	}
}

func TestUnknownVariableSuggestion(t *testing.T) {
	tests := []struct {
		Expr string
		Hint string
	}{
		{Expr: "let $name := 1 return $nme", Hint: "did you mean $name?"},
		{Expr: "for $item in (1, 2) return $iten", Hint: "did you mean $item?"},
		{Expr: "let $x := 1 return $undefined", Hint: ""},
	}
	for _, c := range tests {
		_, err := runQuery("", c.Expr, false)
		if !errors.Is(err, ErrUndefined) {
			t.Errorf("%s: undefined error expected, got %v", c.Expr, err)
			continue
		}
		if c.Hint == "" {
			if strings.Contains(err.Error(), "did you mean") {
				t.Errorf("%s: unexpected suggestion in %q", c.Expr, err)
			}
			continue
		}
		if !strings.Contains(err.Error(), c.Hint) {
			t.Errorf("%s: hint %q missing from %q", c.Expr, c.Hint, err)
		}
	}
}

func TestTracer(t *testing.T) {
	tests := []struct {
		Expr  string
		Event string
	}{
		{Expr: "//p", Event: "msg=enter expression=path"},
		{Expr: "let $n := count(//p) return $n", Event: "msg=bind variable=n type=number items=1"},
		{Expr: "for $p in //p return $p", Event: "msg=bind variable=p type=sequence items=1"},
		{Expr: "//p[1] | //p", Event: "msg=union branch=1 nodes=3"},
		{Expr: "//p[1] | //p", Event: "msg=union branch=0 nodes=0"},
		{Expr: "`${count(//p)} items`", Event: `result="3 items"`},
		{Expr: "count(1)", Event: "level=ERROR msg=failure"},
	}
	doc, err := dom.ParseString(paragraphs)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, c := range tests {
		var buf bytes.Buffer
		q, err := CompileWith(c.Expr, WithTracer(TraceWriter(&buf)))
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Expr, err)
			continue
		}
		q.Run(doc.Root())
		if !strings.Contains(buf.String(), c.Event) {
			t.Errorf("%s: event %q not traced in\n%s", c.Expr, c.Event, buf.String())
		}
	}
}

func TestFind(t *testing.T) {
	doc, err := dom.ParseString(classified)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	v, err := Find(doc.Root(), "//span")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	list, err := nodesOf(v)
	if err != nil {
		t.Fatalf("node set expected: %s", err)
	}
	if len(list) != 1 || list[0].Name() != "span" {
		t.Errorf("span expected, got %v", list)
	}
	other, err := Find(list[0], "string(.)")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s := stringOf(other, false); s != "onetwo" {
		t.Errorf("query should start from the document node, got %q", s)
	}
}
