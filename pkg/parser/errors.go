package parser

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// ParseError represents a parsing error with position information.
// Parse errors are recoverable: the parser records them and keeps going.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func newParseError(pos token.Position, msg string) *ParseError {
	return &ParseError{Line: pos.Line, Column: pos.Column, Message: msg}
}

// Common error messages
const (
	ErrUnexpectedToken      = "unexpected token %s, expected %s"
	ErrUnexpectedExpr       = "unexpected token in expression: %s"
	ErrUnterminatedString   = "unterminated string literal"
	ErrUnterminatedIdent    = "unterminated quoted identifier"
	ErrUnterminatedComment  = "unterminated block comment"
	ErrIllegalCharacter     = "illegal character %q"
	ErrInvalidUTF8          = "invalid UTF-8 byte %#x"
	ErrExpectedObjectName   = "expected object name"
	ErrExpectedStatement    = "unexpected %s at start of statement"
	ErrExpectedAlias        = "expected alias after AS"
	ErrMaxNestingExceeded   = "nesting exceeds %d levels"
	ErrMissingDerivedAlias  = "derived table requires an alias"
	ErrExpectedSetAssign    = "expected assignment in SET clause"
	ErrExpectedProcBodyWord = "expected AS before procedure body"
)
