package bitbuf

import (
	"errors"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// ErrBufferUnderflow is returned (wrapped in *plcerr.UnderflowError) when a
// read or a fixed-capacity write would run past the end of the buffer.
var ErrBufferUnderflow = plcerr.ErrBufferUnderflow

var (
	// ErrInvalidWidth indicates a field width above 64 bits.
	ErrInvalidWidth = errors.New("bitbuf: invalid field width")

	// ErrUnknownByteOrder indicates an unrecognised byte order name.
	ErrUnknownByteOrder = errors.New("bitbuf: unknown byte order")
)
