package codec

import (
	"errors"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// Failure kinds surfaced by descriptor parsing, decoding and encoding.
// They alias the shared plcerr sentinels so callers need only this package
// for errors.Is checks.
var (
	ErrInvalidAddressSyntax = plcerr.ErrInvalidAddressSyntax
	ErrUnknownDatapointType = plcerr.ErrUnknownDatapointType
	ErrUnknownRegisterType  = plcerr.ErrUnknownRegisterType
	ErrBufferUnderflow      = plcerr.ErrBufferUnderflow
	ErrValueKindMismatch    = plcerr.ErrValueKindMismatch
	ErrValueOutOfRange      = plcerr.ErrValueOutOfRange
)

var (
	// ErrDuplicateRule indicates two table entries with the same key.
	ErrDuplicateRule = errors.New("codec: duplicate rule")

	// ErrInvalidRule indicates a table entry without a width or handlers.
	ErrInvalidRule = errors.New("codec: invalid rule")

	// ErrInvalidDescriptor indicates a descriptor whose layout cannot hold
	// its rule, such as a stride narrower than the value width.
	ErrInvalidDescriptor = errors.New("codec: invalid descriptor")
)
