package core

import (
	"errors"
	"fmt"
	"strings"
)

// Load-time failures. Execution never starts when one of these is reported.
var (
	ErrDuplicateDeclaration           = errors.New("duplicate declaration")
	ErrUnknownType                    = errors.New("unknown type")
	ErrMissingInterfaceImplementation = errors.New("missing interface implementation")
	ErrInvalidDeclaration             = errors.New("invalid declaration")
	ErrUnknownSymbol                  = errors.New("unknown symbol")
)

// Resolution failures, reported for the offending call site.
var (
	ErrNoMatchingOverload = errors.New("no matching overload")
	ErrAmbiguousOverload  = errors.New("ambiguous overload")
)

// Runtime failures. Output emitted before the failure is kept.
var (
	ErrStackOverflow         = errors.New("stack overflow")
	ErrNullReceiver          = errors.New("null receiver")
	ErrArithmetic            = errors.New("arithmetic error")
	ErrStepQuotaExceeded     = errors.New("step quota exceeded")
	ErrInstanceQuotaExceeded = errors.New("instance quota exceeded")
)

type LoadError struct {
	Err     error
	Type    string
	Member  string
	Pos     Position
	Message string
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	writePosition(&b, e.Pos)
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErrorf(kind error, pos Position, format string, args ...any) *LoadError {
	return &LoadError{Err: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

type ResolutionError struct {
	Err        error
	Type       string
	Method     string
	ArgTypes   []string
	Candidates []string
	Pos        Position
}

func (e *ResolutionError) Arity() int {
	return len(e.ArgTypes)
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	call := e.Type + "." + signatureKey(e.Method, e.ArgTypes)
	if e.Method == constructorName {
		call = "new " + e.Type + "(" + strings.Join(e.ArgTypes, ",") + ")"
	}
	switch {
	case errors.Is(e.Err, ErrAmbiguousOverload):
		fmt.Fprintf(&b, "ambiguous call %s matches %d signatures: %s", call, len(e.Candidates), strings.Join(e.Candidates, ", "))
	default:
		fmt.Fprintf(&b, "no overload matches %s with %d argument(s)", call, e.Arity())
		if len(e.Candidates) > 0 {
			fmt.Fprintf(&b, "; candidates: %s", strings.Join(e.Candidates, ", "))
		}
	}
	writePosition(&b, e.Pos)
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func writePosition(b *strings.Builder, pos Position) {
	switch {
	case pos.Line > 0 && pos.Column > 0:
		fmt.Fprintf(b, " (line %d, column %d)", pos.Line, pos.Column)
	case pos.Line > 0:
		fmt.Fprintf(b, " (line %d)", pos.Line)
	}
}
