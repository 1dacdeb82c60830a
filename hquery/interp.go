package hquery

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	chunkPattern    = regexp.MustCompile(`(\$\{[^\}]+\})|(\$[a-zA-Z_]\w*)|([^\$]+)`)
	joinPattern     = regexp.MustCompile(`^j:([^:]*):`)
	replacePattern  = regexp.MustCompile(`^rr:([^:]+):([^:]*):([i]*):`)
	truncatePattern = regexp.MustCompile(`^tru:(\d+):([^:]*):`)
	backrefPattern  = regexp.MustCompile(`\\(\d+)`)
)

// template is an interpolated string. Each chunk is reduced to its string
// value and the results are concatenated.
type template struct {
	source string
	chunks []Expr
}

func (t template) eval(s *State) (Value, error) {
	var buf strings.Builder
	for _, c := range t.chunks {
		v, err := c.eval(s)
		if err != nil {
			return nil, err
		}
		buf.WriteString(s.stringOf(v))
	}
	s.Interpolate(t.source, buf.String())
	return String(buf.String()), nil
}

func compileTemplate(str string, tracer Tracer) (Expr, error) {
	tpl := template{
		source: str,
	}
	for _, m := range chunkPattern.FindAllStringSubmatch(str, -1) {
		var (
			expr Expr
			err  error
		)
		switch {
		case m[1] != "":
			expr, err = compileEmbedded(m[1][2:len(m[1])-1], tracer)
		case m[2] != "":
			expr = identifier(m[2][1:])
		default:
			expr = literal(html.UnescapeString(m[3]))
		}
		if err != nil {
			return nil, err
		}
		tpl.chunks = append(tpl.chunks, expr)
	}
	return tpl, nil
}

// compileEmbedded compiles the content of a ${...} chunk: a run of filters
// followed by the expression they are applied to, first filter first.
func compileEmbedded(str string, tracer Tracer) (Expr, error) {
	var filters []func(Expr) Expr
	for {
		if m := joinPattern.FindStringSubmatch(str); m != nil {
			delim := html.UnescapeString(m[1])
			filters = append(filters, func(e Expr) Expr {
				return joinFilter{expr: e, delim: delim}
			})
			str = str[len(m[0]):]
			continue
		}
		if m := replacePattern.FindStringSubmatch(str); m != nil {
			re, err := compileRegex(html.UnescapeString(m[1]), m[3])
			if err != nil {
				return nil, syntaxError(m[0], err.Error(), Position{})
			}
			repl := backrefPattern.ReplaceAllString(html.UnescapeString(m[2]), "$${$1}")
			filters = append(filters, func(e Expr) Expr {
				return replaceFilter{expr: e, re: re, repl: repl}
			})
			str = str[len(m[0]):]
			continue
		}
		if m := truncatePattern.FindStringSubmatch(str); m != nil {
			size, _ := strconv.Atoi(m[1])
			suffix := html.UnescapeString(m[2])
			filters = append(filters, func(e Expr) Expr {
				return truncateFilter{expr: e, size: size, suffix: suffix}
			})
			str = str[len(m[0]):]
			continue
		}
		break
	}
	cp := NewCompiler(str)
	cp.Tracer = tracer
	expr, err := cp.Compile()
	if err != nil {
		return nil, err
	}
	for _, f := range filters {
		expr = f(expr)
	}
	return expr, nil
}

type joinFilter struct {
	expr  Expr
	delim string
}

func (j joinFilter) eval(s *State) (Value, error) {
	v, err := j.expr.eval(s)
	if err != nil {
		return nil, err
	}
	var list []string
	for _, item := range itemsOf(v) {
		list = append(list, s.stringOf(item))
	}
	return String(strings.Join(list, j.delim)), nil
}

type replaceFilter struct {
	expr Expr
	re   *regexp.Regexp
	repl string
}

func (r replaceFilter) eval(s *State) (Value, error) {
	v, err := r.expr.eval(s)
	if err != nil {
		return nil, err
	}
	return mapStrings(s, v, func(str string) string {
		return r.re.ReplaceAllString(str, r.repl)
	}), nil
}

type truncateFilter struct {
	expr   Expr
	size   int
	suffix string
}

func (t truncateFilter) eval(s *State) (Value, error) {
	v, err := t.expr.eval(s)
	if err != nil {
		return nil, err
	}
	return mapStrings(s, v, func(str string) string {
		return truncate(str, t.size, t.suffix)
	}), nil
}

// mapStrings applies fn to the string value of each item of a sequence or to
// the string value of a single item.
func mapStrings(s *State, v Value, fn func(string) string) Value {
	seq, ok := v.(Sequence)
	if !ok {
		return String(fn(s.stringOf(v)))
	}
	res := make(Sequence, 0, len(seq))
	for _, item := range seq {
		res = append(res, String(fn(s.stringOf(item))))
	}
	return res
}

func truncate(str string, size int, suffix string) string {
	runes := []rune(str)
	if len(runes) > size {
		str = string(runes[:size])
		if ix := strings.LastIndexByte(str, ' '); ix >= 0 {
			str = str[:ix]
		}
		str += suffix
	}
	return strings.ReplaceAll(str, "\n", `\n`)
}
