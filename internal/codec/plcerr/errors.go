// Package plcerr defines the failure kinds shared by the value codec layers.
//
// Every failure is a typed error carrying the context needed to diagnose it
// without re-parsing (token text, requested width, remaining capacity). Each
// typed error unwraps to one of the sentinel kinds below, so callers can
// branch with errors.Is and inspect details with errors.As.
package plcerr

import (
	"errors"
	"fmt"
)

// Failure kinds.
var (
	// ErrInvalidAddressSyntax indicates a malformed address or type token.
	ErrInvalidAddressSyntax = errors.New("codec: invalid address syntax")

	// ErrUnknownDatapointType indicates a datapoint type identifier with no table entry.
	ErrUnknownDatapointType = errors.New("codec: unknown datapoint type")

	// ErrUnknownRegisterType indicates a register type name with no table entry.
	ErrUnknownRegisterType = errors.New("codec: unknown register type")

	// ErrBufferUnderflow indicates too few bits remain for the requested width.
	ErrBufferUnderflow = errors.New("codec: buffer underflow")

	// ErrValueKindMismatch indicates a value variant that does not match the expected kind.
	ErrValueKindMismatch = errors.New("codec: value kind mismatch")

	// ErrValueOutOfRange indicates a value that cannot be represented without loss.
	ErrValueOutOfRange = errors.New("codec: value out of range")
)

// SyntaxError reports a token that failed to parse.
type SyntaxError struct {
	Token string
	Pos   int // byte offset into Token where parsing stopped
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %q at position %d: %s", ErrInvalidAddressSyntax, e.Token, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrInvalidAddressSyntax }

// UnknownError reports a table miss for a register type or datapoint type.
type UnknownError struct {
	Kind  error // ErrUnknownDatapointType or ErrUnknownRegisterType
	Token string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Token)
}

func (e *UnknownError) Unwrap() error { return e.Kind }

// UnderflowError reports a read or write that would run past the buffer end.
type UnderflowError struct {
	Op        string // "read" or "write"
	Requested uint64 // bits
	Remaining uint64 // bits
}

func (e *UnderflowError) Error() string {
	if e.Requested == 0 {
		return fmt.Sprintf("%v: zero-width %s", ErrBufferUnderflow, e.Op)
	}
	return fmt.Sprintf("%v: %s of %d bits with %d bits remaining", ErrBufferUnderflow, e.Op, e.Requested, e.Remaining)
}

func (e *UnderflowError) Unwrap() error { return ErrBufferUnderflow }

// KindError reports a value whose variant does not match what was asked for.
type KindError struct {
	Want string
	Got  string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%v: want %s, got %s", ErrValueKindMismatch, e.Want, e.Got)
}

func (e *KindError) Unwrap() error { return ErrValueKindMismatch }

// RangeError reports a value that does not fit its target representation.
type RangeError struct {
	Value  string
	Target string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %s does not fit %s", ErrValueOutOfRange, e.Value, e.Target)
}

func (e *RangeError) Unwrap() error { return ErrValueOutOfRange }

// Syntax returns a *SyntaxError for token at pos.
func Syntax(token string, pos int, format string, args ...any) error {
	return &SyntaxError{Token: token, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Range returns a *RangeError describing value and the representation it missed.
func Range(value any, target string) error {
	return &RangeError{Value: fmt.Sprint(value), Target: target}
}
