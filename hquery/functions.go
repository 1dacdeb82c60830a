package hquery

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/midbel/distance"
	"github.com/midbel/hq/environ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Builtin func(*State, []Value) (Value, error)

var builtins environ.Environ[Builtin]

func init() {
	funcs := map[string]Builtin{
		"boolean":         checkArity(callBoolean, 1, 1),
		"false":           checkArity(callFalse, 0, 0),
		"not":             checkArity(callNot, 1, 1),
		"true":            checkArity(callTrue, 0, 0),
		"count":           checkArity(callCount, 1, 1),
		"last":            checkArity(callLast, 0, 0),
		"position":        checkArity(callPosition, 0, 0),
		"number":          checkArity(callNumber, 1, 1),
		"concat":          checkArity(callConcat, 0, -1),
		"normalize-space": checkArity(callNormalizeSpace, 0, 1),
		"starts-with":     checkArity(callStartsWith, 2, 2),
		"string":          checkArity(callString, 0, 1),
		"string-length":   checkArity(callStringLength, 0, 1),
		"class":           checkArity(callClass, 1, 2),
		"even":            checkArity(callEven, 0, 0),
		"odd":             checkArity(callOdd, 0, 0),
		"lower-case":      checkArity(callLowerCase, 1, 1),
		"upper-case":      checkArity(callUpperCase, 1, 1),
		"matches":         checkArity(callMatches, 1, 3),
		"replace":         checkArity(callReplace, 3, 4),
		"string-join":     checkArity(callStringJoin, 1, 2),
		"tokenize":        checkArity(callTokenize, 2, 3),
	}
	env := environ.Empty[Builtin]()
	for name, fn := range funcs {
		env.Define(name, fn)
	}
	builtins = env
}

// Functions returns the names of the functions available to queries.
func Functions() []string {
	return builtins.Names()
}

// checkArity rejects calls with less than min or more than max arguments. A
// negative max accepts any number of arguments.
func checkArity(fn Builtin, min, max int) Builtin {
	return func(s *State, args []Value) (Value, error) {
		if len(args) < min || (max >= 0 && len(args) > max) {
			err := fmt.Errorf("%d argument(s) given: %w", len(args), ErrArgument)
			return nil, evalError(CodeArgument, err)
		}
		return fn(s, args)
	}
}

func suggest(name string, names []string) []string {
	return distance.Levenshtein(name, names)
}

// contextOr returns the first argument or the context node when the function
// is called without argument.
func contextOr(s *State, args []Value) Value {
	if len(args) == 0 {
		return Node{Node: s.Current().Node}
	}
	return args[0]
}

func callBoolean(_ *State, args []Value) (Value, error) {
	return Boolean(truth(args[0])), nil
}

func callFalse(_ *State, _ []Value) (Value, error) {
	return Boolean(false), nil
}

func callTrue(_ *State, _ []Value) (Value, error) {
	return Boolean(true), nil
}

func callNot(_ *State, args []Value) (Value, error) {
	return Boolean(!truth(args[0])), nil
}

func callCount(_ *State, args []Value) (Value, error) {
	list, err := nodesOf(args[0])
	if err != nil {
		return nil, err
	}
	return Number(len(list)), nil
}

func callLast(s *State, _ []Value) (Value, error) {
	return Number(s.Current().Size), nil
}

func callPosition(s *State, _ []Value) (Value, error) {
	return Number(s.Current().Position), nil
}

func callEven(s *State, _ []Value) (Value, error) {
	return Boolean(s.Current().Position%2 == 0), nil
}

func callOdd(s *State, _ []Value) (Value, error) {
	return Boolean(s.Current().Position%2 == 1), nil
}

func callNumber(s *State, args []Value) (Value, error) {
	return s.numberOf(args[0]), nil
}

func callConcat(s *State, args []Value) (Value, error) {
	var buf strings.Builder
	for _, a := range args {
		buf.WriteString(s.stringOf(a))
	}
	return String(buf.String()), nil
}

func callNormalizeSpace(s *State, args []Value) (Value, error) {
	str := s.stringOf(contextOr(s, args))
	return String(normalizeSpace(str)), nil
}

func callStartsWith(s *State, args []Value) (Value, error) {
	ok := strings.HasPrefix(s.stringOf(args[0]), s.stringOf(args[1]))
	return Boolean(ok), nil
}

func callString(s *State, args []Value) (Value, error) {
	return String(s.stringOf(contextOr(s, args))), nil
}

func callStringLength(s *State, args []Value) (Value, error) {
	if len(args) == 0 {
		str := s.stringOf(contextOr(s, args))
		return Number(utf8.RuneCountInString(str)), nil
	}
	str, ok := args[0].(String)
	if !ok {
		return nil, evalErrorf(CodeArgument, ErrType, "string-length: string expected, got %s", typeName(args[0]))
	}
	return Number(utf8.RuneCountInString(string(str))), nil
}

func callClass(s *State, args []Value) (Value, error) {
	node := s.Current().Node
	if len(args) == 2 {
		list, err := nodesOf(args[0])
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return Boolean(false), nil
		}
		node, args = list[0], args[1:]
	}
	return Boolean(node.HasClass(s.stringOf(args[0]))), nil
}

func callLowerCase(s *State, args []Value) (Value, error) {
	str := cases.Lower(language.Und).String(s.stringOf(args[0]))
	return String(str), nil
}

func callUpperCase(s *State, args []Value) (Value, error) {
	str := cases.Upper(language.Und).String(s.stringOf(args[0]))
	return String(str), nil
}

func callMatches(s *State, args []Value) (Value, error) {
	var input Value
	if len(args) == 1 {
		input = contextOr(s, nil)
	} else {
		input, args = args[0], args[1:]
	}
	re, err := regexArgs(s, args)
	if err != nil {
		return nil, err
	}
	return Boolean(re.MatchString(s.stringOf(input))), nil
}

func callReplace(s *State, args []Value) (Value, error) {
	flags := args[3:]
	re, err := regexArgs(s, append([]Value{args[1]}, flags...))
	if err != nil {
		return nil, err
	}
	repl := backrefPattern.ReplaceAllString(s.stringOf(args[2]), "$${$1}")
	return String(re.ReplaceAllString(s.stringOf(args[0]), repl)), nil
}

func callTokenize(s *State, args []Value) (Value, error) {
	re, err := regexArgs(s, args[1:])
	if err != nil {
		return nil, err
	}
	var seq Sequence
	for _, str := range re.Split(s.stringOf(args[0]), -1) {
		seq = append(seq, String(str))
	}
	return seq, nil
}

func callStringJoin(s *State, args []Value) (Value, error) {
	var delim string
	if len(args) == 2 {
		delim = s.stringOf(args[1])
	}
	var list []string
	for _, item := range itemsOf(args[0]) {
		list = append(list, s.stringOf(item))
	}
	return String(strings.Join(list, delim)), nil
}

// regexArgs compiles a pattern argument with its optional flags argument.
func regexArgs(s *State, args []Value) (*regexp.Regexp, error) {
	var flags string
	if len(args) > 1 {
		flags = s.stringOf(args[1])
	}
	re, err := compileRegex(s.stringOf(args[0]), flags)
	if err != nil {
		return nil, evalError(CodeArgument, err)
	}
	return re, nil
}

// compileRegex compiles pattern with the given flags: i (case insensitive), m
// (multi line), s (dot matches new line) and x (unescaped whitespace outside
// of character classes is ignored).
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var mods []rune
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !slices.Contains(mods, f) {
				mods = append(mods, f)
			}
		case 'x':
			pattern = stripBlanks(pattern)
		default:
			return nil, fmt.Errorf("%c: unexpected regular expression flag: %w", f, ErrArgument)
		}
	}
	if len(mods) > 0 {
		pattern = "(?" + string(mods) + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrArgument)
	}
	return re, nil
}

func stripBlanks(pattern string) string {
	var (
		buf     strings.Builder
		escaped bool
		inClass bool
	)
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case !inClass && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			continue
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
