package hquery

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

const (
	kwFor       = "for"
	kwLet       = "let"
	kwReturn    = "return"
	kwIn        = "in"
	kwIf        = "if"
	kwThen      = "then"
	kwElse      = "else"
	kwArray     = "array"
	kwAttribute = "attribute"
	kwElement   = "element"
	kwHash      = "hash"
	kwDiv       = "div"
	kwMod       = "mod"
	kwTo        = "to"
	kwAnd       = "and"
	kwOr        = "or"
)

const (
	EOF rune = -(1 + iota)
	Name
	Literal
	Template
	Digit
	Invalid
)

const (
	currNode rune = -(iota + 1000)
	parentNode
	axisName
	kindTest
	variable
	funcName
	hashKey
	hashFilters
	currLevel
	anyLevel
	begPred
	endPred
	begGrp
	endGrp
	begCurl
	endCurl
	opAssign
	opArrow
	opDecompose
	opRange
	opUnion
	opSeq
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opEq
	opNe
	opGt
	opGe
	opLt
	opLe
	opAnd
	opOr
	reserved
	constructor
	conditional
)

type Token struct {
	Literal string
	Type    rune
	Position
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "<eof>"
	case Name:
		return fmt.Sprintf("name(%s)", t.Literal)
	case Literal:
		return fmt.Sprintf("literal(%s)", t.Literal)
	case Template:
		return fmt.Sprintf("template(%s)", t.Literal)
	case Digit:
		return fmt.Sprintf("number(%s)", t.Literal)
	case Invalid:
		return fmt.Sprintf("invalid(%s)", t.Literal)
	case currNode:
		return "<context-node>"
	case parentNode:
		return "<parent-node>"
	case axisName:
		return fmt.Sprintf("axis(%s)", t.Literal)
	case kindTest:
		return fmt.Sprintf("kind(%s)", t.Literal)
	case variable:
		return fmt.Sprintf("variable(%s)", t.Literal)
	case funcName:
		return fmt.Sprintf("call(%s)", t.Literal)
	case hashKey:
		return fmt.Sprintf("key(%s)", t.Literal)
	case hashFilters:
		return fmt.Sprintf("filters(%s)", t.Literal)
	case currLevel:
		return "<slash>"
	case anyLevel:
		return "<double-slash>"
	case begPred:
		return "<begin-predicate>"
	case endPred:
		return "<end-predicate>"
	case begGrp:
		return "<begin-group>"
	case endGrp:
		return "<end-group>"
	case begCurl:
		return "<begin-curly>"
	case endCurl:
		return "<end-curly>"
	case opAssign:
		return "<assignment>"
	case opArrow:
		return "<arrow>"
	case opDecompose:
		return "<decompose>"
	case opRange:
		return "<range>"
	case opUnion:
		return "<union>"
	case opSeq:
		return "<sequence>"
	case opAdd:
		return "<add>"
	case opSub:
		return "<subtract>"
	case opMul:
		return "<multiply>"
	case opDiv:
		return "<divide>"
	case opMod:
		return "<modulo>"
	case opEq:
		return "<equal>"
	case opNe:
		return "<not-equal>"
	case opGt:
		return "<greater-than>"
	case opGe:
		return "<greater-eq>"
	case opLt:
		return "<lesser-than>"
	case opLe:
		return "<lesser-eq>"
	case opAnd:
		return "<and>"
	case opOr:
		return "<or>"
	case reserved:
		return fmt.Sprintf("reserved(%s)", t.Literal)
	case constructor:
		return fmt.Sprintf("constructor(%s)", t.Literal)
	case conditional:
		return fmt.Sprintf("conditional(%s)", t.Literal)
	default:
		return "<unknown>"
	}
}

var (
	axisPattern     = regexp.MustCompile(`^(ancestor-or-self|ancestor|attribute|child|descendant-or-self|descendant|following-sibling|following|parent|preceding-sibling|preceding|self|css-class|class|\^\^|\^|@|\.|~|>>|>|<<|<)::`)
	numberPattern   = regexp.MustCompile(`^\d[\d.]*`)
	variablePattern = regexp.MustCompile(`^\$([\p{L}\p{N}_][\p{L}\p{N}_-]*)`)
	kindPattern     = regexp.MustCompile(`^(node|text|comment)\(\)`)
	funcPattern     = regexp.MustCompile(`^([a-z][a-z-]*[a-z])\(`)
	filtersPattern  = regexp.MustCompile(`^\{([a-z]{1,3}(?::[^:]*)*:)\}`)
	hashKeyPattern  = regexp.MustCompile(`^([\p{L}\p{N}_]+)\s*:`)
	namePattern     = regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_-]*`)
)

// Scanner splits an expression into tokens. Several lexemes are ambiguous and
// are resolved with the type of the previously emitted token.
type Scanner struct {
	input  string
	offset int
	prev   rune

	Position
}

func Scan(str string) *Scanner {
	scan := Scanner{
		input: str,
	}
	scan.Line = 1
	scan.Column = 1
	return &scan
}

// Tokenize returns every token of expr up to, and excluding, the end of input.
func Tokenize(expr string) ([]Token, error) {
	var (
		scan = Scan(expr)
		list []Token
	)
	for {
		tok := scan.Scan()
		switch tok.Type {
		case EOF:
			return list, nil
		case Invalid:
			return list, invalidToken(tok)
		default:
			list = append(list, tok)
		}
	}
}

func (s *Scanner) Scan() Token {
	s.skipBlank()

	var tok Token
	tok.Position = s.Position
	if s.done() {
		tok.Type = EOF
		return tok
	}
	s.scan(&tok)
	if tok.Type != Invalid {
		s.prev = tok.Type
	}
	return tok
}

func (s *Scanner) scan(tok *Token) {
	rest := s.input[s.offset:]
	if s.scanSlash(tok, rest) {
		return
	}
	if m := axisPattern.FindStringSubmatch(rest); m != nil {
		s.emit(tok, axisName, canonicalAxis(m[1]), len(m[0]))
		return
	}
	if s.scanPunct(tok, rest) {
		return
	}
	if m := numberPattern.FindString(rest); m != "" {
		s.emit(tok, Digit, m, len(m))
		return
	}
	if s.scanOperator(tok, rest) {
		return
	}
	if m := variablePattern.FindStringSubmatch(rest); m != nil {
		s.emit(tok, variable, m[1], len(m[0]))
		return
	}
	if strings.HasPrefix(rest, ":=") {
		s.emit(tok, opAssign, ":=", 2)
		return
	}
	if s.scanWord(tok, rest) {
		return
	}
	if m := funcPattern.FindStringSubmatch(rest); m != nil {
		s.emit(tok, funcName, m[1], len(m[0]))
		return
	}
	switch rest[0] {
	case lparen:
		s.emit(tok, begGrp, "(", 1)
		return
	case lcurly:
		if m := filtersPattern.FindStringSubmatch(rest); m != nil {
			s.emit(tok, hashFilters, m[1], len(m[0]))
			return
		}
		s.emit(tok, begCurl, "{", 1)
		return
	case rcurly:
		s.emit(tok, endCurl, "}", 1)
		return
	}
	if m := hashKeyPattern.FindStringSubmatch(rest); m != nil {
		s.emit(tok, hashKey, m[1], len(m[0]))
		return
	}
	if m := namePattern.FindString(rest); m != "" {
		s.emit(tok, Name, m, len(m))
		return
	}
	tok.Type = Invalid
	tok.Literal = rest
	s.advance(len(rest))
}

func (s *Scanner) scanSlash(tok *Token, rest string) bool {
	switch {
	case strings.HasPrefix(rest, "//"):
		s.emit(tok, anyLevel, "//", 2)
	case rest[0] == slash:
		s.emit(tok, currLevel, "/", 1)
	case rest[0] == lsquare:
		s.emit(tok, begPred, "[", 1)
	case rest[0] == rsquare:
		s.emit(tok, endPred, "]", 1)
	default:
		return false
	}
	return true
}

func (s *Scanner) scanPunct(tok *Token, rest string) bool {
	switch {
	case strings.HasPrefix(rest, ".."):
		s.emit(tok, parentNode, "..", 2)
	case rest[0] == dot:
		s.emit(tok, currNode, ".", 1)
	case rest[0] == rparen:
		s.emit(tok, endGrp, ")", 1)
	case strings.HasPrefix(rest, "=>"):
		s.emit(tok, opDecompose, "=>", 2)
	case strings.HasPrefix(rest, "!="):
		s.emit(tok, opNe, "!=", 2)
	case rest[0] == equal:
		s.emit(tok, opEq, "=", 1)
	case rest[0] == backtick:
		s.scanQuoted(tok, rest, Template)
	case rest[0] == quote || rest[0] == apos:
		s.scanQuoted(tok, rest, Literal)
	default:
		return false
	}
	return true
}

func (s *Scanner) scanQuoted(tok *Token, rest string, kind rune) {
	end := strings.IndexByte(rest[1:], rest[0])
	if end < 0 {
		tok.Type = Invalid
		tok.Literal = rest
		s.advance(len(rest))
		return
	}
	str := rest[1 : end+1]
	if kind == Literal {
		str = html.UnescapeString(str)
	}
	s.emit(tok, kind, str, end+2)
}

func (s *Scanner) scanOperator(tok *Token, rest string) bool {
	switch {
	case rest[0] == comma:
		s.emit(tok, opSeq, ",", 1)
	case rest[0] == arobase:
		s.emit(tok, axisName, axisAttribute.String(), 1)
	case rest[0] == star:
		if s.afterValue() {
			s.emit(tok, opMul, "*", 1)
		} else {
			s.emit(tok, kindTest, "*", 1)
		}
	case strings.HasPrefix(rest, "->"):
		s.emit(tok, opArrow, "->", 2)
	case rest[0] == plus:
		s.emit(tok, opAdd, "+", 1)
	case rest[0] == dash:
		s.emit(tok, opSub, "-", 1)
	case strings.HasPrefix(rest, "<="):
		s.emit(tok, opLe, "<=", 2)
	case rest[0] == langle:
		s.emit(tok, opLt, "<", 1)
	case strings.HasPrefix(rest, ">="):
		s.emit(tok, opGe, ">=", 2)
	case rest[0] == rangle:
		s.emit(tok, opGt, ">", 1)
	case rest[0] == pipe:
		s.emit(tok, opUnion, "|", 1)
	default:
		return false
	}
	return true
}

func (s *Scanner) scanWord(tok *Token, rest string) bool {
	if w := matchWord(rest, isWord, kwFor, kwLet, kwReturn); w != "" {
		s.emit(tok, s.nameOr(reserved), w, len(w))
		return true
	}
	if w := matchWord(rest, isWord, kwArray, kwAttribute, kwElement, kwHash); w != "" {
		s.emit(tok, s.nameOr(constructor), w, len(w))
		return true
	}
	if m := kindPattern.FindStringSubmatch(rest); m != nil {
		s.emit(tok, kindTest, m[1], len(m[0]))
		return true
	}
	if w := matchWord(rest, unicode.IsLetter, kwDiv, kwMod); w != "" {
		kind := opDiv
		if w == kwMod {
			kind = opMod
		}
		s.emit(tok, s.valueOr(kind), w, len(w))
		return true
	}
	if w := matchWord(rest, unicode.IsLetter, kwAnd, kwOr); w != "" {
		kind := opAnd
		if w == kwOr {
			kind = opOr
		}
		if s.prev == 0 || s.afterStep() {
			kind = Name
		}
		s.emit(tok, kind, w, len(w))
		return true
	}
	if w := matchWord(rest, unicode.IsLetter, kwIf, kwElse); w != "" {
		s.emit(tok, s.nameOr(conditional), w, len(w))
		return true
	}
	if w := matchWord(rest, unicode.IsLetter, kwTo); w != "" {
		s.emit(tok, s.valueOr(opRange), w, len(w))
		return true
	}
	return false
}

// nameOr returns kind unless the previous token introduces a step in which
// case the word is a name test.
func (s *Scanner) nameOr(kind rune) rune {
	if s.afterStep() {
		return Name
	}
	return kind
}

// valueOr returns kind when the previous token produces a value and a name
// test otherwise.
func (s *Scanner) valueOr(kind rune) rune {
	if s.afterValue() {
		return kind
	}
	return Name
}

func (s *Scanner) afterStep() bool {
	switch s.prev {
	case axisName, currLevel, anyLevel:
		return true
	default:
		return false
	}
}

func (s *Scanner) afterValue() bool {
	switch s.prev {
	case endPred, endGrp, Digit, Name, variable:
		return true
	default:
		return false
	}
}

func (s *Scanner) emit(tok *Token, kind rune, literal string, size int) {
	tok.Type = kind
	tok.Literal = literal
	s.advance(size)
}

func (s *Scanner) advance(size int) {
	for _, r := range s.input[s.offset : s.offset+size] {
		if r == nl {
			s.Line++
			s.Column = 1
		} else {
			s.Column++
		}
	}
	s.offset += size
}

func (s *Scanner) skipBlank() {
	for !s.done() {
		r, z := utf8.DecodeRuneInString(s.input[s.offset:])
		if !unicode.IsSpace(r) {
			break
		}
		s.advance(z)
	}
}

func (s *Scanner) done() bool {
	return s.offset >= len(s.input)
}

func matchWord(str string, accept func(rune) bool, words ...string) string {
	for _, w := range words {
		if !strings.HasPrefix(str, w) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(str[len(w):])
		if r == utf8.RuneError || !accept(r) {
			return w
		}
	}
	return ""
}

func isWord(r rune) bool {
	return r == underscore || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func invalidToken(tok Token) error {
	cause := "unexpected character sequence"
	if r := tok.Literal[0]; r == quote || r == apos || r == backtick {
		cause = "unterminated string"
	}
	return syntaxError(tok.Literal, cause, tok.Position)
}

const (
	nl         = '\n'
	slash      = '/'
	lsquare    = '['
	rsquare    = ']'
	lparen     = '('
	rparen     = ')'
	lcurly     = '{'
	rcurly     = '}'
	dot        = '.'
	equal      = '='
	backtick   = '`'
	quote      = '"'
	apos       = '\''
	comma      = ','
	arobase    = '@'
	star       = '*'
	plus       = '+'
	dash       = '-'
	langle     = '<'
	rangle     = '>'
	pipe       = '|'
	underscore = '_'
)
