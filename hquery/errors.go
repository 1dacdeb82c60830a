package hquery

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeGenericError = "HQST0001"
	CodeUnexpected   = "HQST0002"
	CodeClause       = "HQST0003"
	CodeFilter       = "HQST0004"
	CodeEvalError    = "HQDY0001"
	CodeUndefined    = "HQDY0002"
	CodeArgument     = "HQDY0003"
	CodeNodeSet      = "HQDY0004"
	CodeMismatch     = "HQDY0005"
)

var (
	ErrSyntax    = errors.New("invalid syntax")
	ErrType      = errors.New("invalid type")
	ErrUndefined = errors.New("undefined")
	ErrArgument  = errors.New("invalid argument(s)")
	ErrNodeSet   = errors.New("node set expected")
)

type SyntaxError struct {
	Code  string
	Expr  string
	Cause string
	Position
}

func syntaxError(expr, cause string, pos Position) error {
	return SyntaxError{
		Code:     CodeGenericError,
		Expr:     expr,
		Cause:    cause,
		Position: pos,
	}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Expr, e.Cause)
}

func (e SyntaxError) Unwrap() error {
	return ErrSyntax
}

type EvaluationError struct {
	Code  string
	Cause error
}

func evalError(code string, err error) error {
	return EvaluationError{
		Code:  code,
		Cause: err,
	}
}

func evalErrorf(code string, err error, format string, args ...any) error {
	return evalError(code, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

func (e EvaluationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Cause)
}

func (e EvaluationError) Unwrap() error {
	return e.Cause
}

type unknownFunctionError struct {
	Name   string
	Others []string
}

func (e unknownFunctionError) Error() string {
	if len(e.Others) == 0 {
		return fmt.Sprintf("%s: unknown function", e.Name)
	}
	return fmt.Sprintf("%s: unknown function (did you mean %s?)", e.Name, strings.Join(e.Others, ", "))
}

func (e unknownFunctionError) Unwrap() error {
	return ErrUndefined
}
