package hquery

import (
	"errors"
	"testing"
)

func TestScanner(t *testing.T) {
	tests := []struct {
		Expr   string
		Tokens []Token
	}{
		{
			Expr: "//p[1]",
			Tokens: []Token{
				{Literal: "//", Type: anyLevel},
				{Literal: "p", Type: Name},
				{Literal: "[", Type: begPred},
				{Literal: "1", Type: Digit},
				{Literal: "]", Type: endPred},
			},
		},
		{
			Expr: "/html/body/*",
			Tokens: []Token{
				{Literal: "/", Type: currLevel},
				{Literal: "html", Type: Name},
				{Literal: "/", Type: currLevel},
				{Literal: "body", Type: Name},
				{Literal: "/", Type: currLevel},
				{Literal: "*", Type: kindTest},
			},
		},
		{
			Expr: "6div2 * 3",
			Tokens: []Token{
				{Literal: "6", Type: Digit},
				{Literal: "div", Type: opDiv},
				{Literal: "2", Type: Digit},
				{Literal: "*", Type: opMul},
				{Literal: "3", Type: Digit},
			},
		},
		{
			Expr: "7 mod 2 and //p",
			Tokens: []Token{
				{Literal: "7", Type: Digit},
				{Literal: "mod", Type: opMod},
				{Literal: "2", Type: Digit},
				{Literal: "and", Type: opAnd},
				{Literal: "//", Type: anyLevel},
				{Literal: "p", Type: Name},
			},
		},
		{
			Expr: "//div/div",
			Tokens: []Token{
				{Literal: "//", Type: anyLevel},
				{Literal: "div", Type: Name},
				{Literal: "/", Type: currLevel},
				{Literal: "div", Type: Name},
			},
		},
		{
			Expr: "and or and",
			Tokens: []Token{
				{Literal: "and", Type: Name},
				{Literal: "or", Type: opOr},
				{Literal: "and", Type: opAnd},
			},
		},
		{
			Expr: "1 to 3",
			Tokens: []Token{
				{Literal: "1", Type: Digit},
				{Literal: "to", Type: opRange},
				{Literal: "3", Type: Digit},
			},
		},
		{
			Expr: "@id | ^::div | class::foo | >>::p",
			Tokens: []Token{
				{Literal: "attribute", Type: axisName},
				{Literal: "id", Type: Name},
				{Literal: "|", Type: opUnion},
				{Literal: "ancestor", Type: axisName},
				{Literal: "div", Type: Name},
				{Literal: "|", Type: opUnion},
				{Literal: "css-class", Type: axisName},
				{Literal: "foo", Type: Name},
				{Literal: "|", Type: opUnion},
				{Literal: "following", Type: axisName},
				{Literal: "p", Type: Name},
			},
		},
		{
			Expr: "let $x := 1 return $x",
			Tokens: []Token{
				{Literal: "let", Type: reserved},
				{Literal: "x", Type: variable},
				{Literal: ":=", Type: opAssign},
				{Literal: "1", Type: Digit},
				{Literal: "return", Type: reserved},
				{Literal: "x", Type: variable},
			},
		},
		{
			Expr: "/for/let",
			Tokens: []Token{
				{Literal: "/", Type: currLevel},
				{Literal: "for", Type: Name},
				{Literal: "/", Type: currLevel},
				{Literal: "let", Type: Name},
			},
		},
		{
			Expr: "hash {a:p:} {title: //title}",
			Tokens: []Token{
				{Literal: "hash", Type: constructor},
				{Literal: "a:p:", Type: hashFilters},
				{Literal: "{", Type: begCurl},
				{Literal: "title", Type: hashKey},
				{Literal: "//", Type: anyLevel},
				{Literal: "title", Type: Name},
				{Literal: "}", Type: endCurl},
			},
		},
		{
			Expr: "if (1) then 'a&amp;b' else `x $y`",
			Tokens: []Token{
				{Literal: "if", Type: conditional},
				{Literal: "(", Type: begGrp},
				{Literal: "1", Type: Digit},
				{Literal: ")", Type: endGrp},
				{Literal: "then", Type: Name},
				{Literal: "a&b", Type: Literal},
				{Literal: "else", Type: conditional},
				{Literal: "x $y", Type: Template},
			},
		},
		{
			Expr: "string-join(text(), ',') => -> !=",
			Tokens: []Token{
				{Literal: "string-join", Type: funcName},
				{Literal: "text", Type: kindTest},
				{Literal: ",", Type: opSeq},
				{Literal: ",", Type: Literal},
				{Literal: ")", Type: endGrp},
				{Literal: "=>", Type: opDecompose},
				{Literal: "->", Type: opArrow},
				{Literal: "!=", Type: opNe},
			},
		},
	}
	for _, c := range tests {
		got, err := Tokenize(c.Expr)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Expr, err)
			continue
		}
		if len(got) != len(c.Tokens) {
			t.Errorf("%s: number of tokens mismatched! want %d, got %d", c.Expr, len(c.Tokens), len(got))
			continue
		}
		for i := range got {
			if got[i].Type != c.Tokens[i].Type || got[i].Literal != c.Tokens[i].Literal {
				t.Errorf("%s: token mismatched at %d! want %s, got %s", c.Expr, i, c.Tokens[i], got[i])
			}
		}
	}
}

func TestScannerPosition(t *testing.T) {
	got, err := Tokenize("//p\n  | //div")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	last := got[len(got)-1]
	if last.Line != 2 || last.Column != 7 {
		t.Errorf("position mismatched! want 2:7, got %s", last.Position)
	}
}

func TestScannerInvalid(t *testing.T) {
	tests := []string{
		`"unterminated`,
		"`unterminated",
		"//p ; //div",
	}
	for _, str := range tests {
		_, err := Tokenize(str)
		if err == nil {
			t.Errorf("%s: expected error but got none", str)
			continue
		}
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("%s: syntax error expected, got %s", str, err)
		}
	}
}
