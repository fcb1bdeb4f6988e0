package bitbuf

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/icza/bitio"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// maxFieldBits is the widest field a single read or write can address.
const maxFieldBits = 64

// ReadBuffer is a bit cursor over a fixed byte sequence.
//
// Every successful read advances the position by exactly the requested
// width. A read that would pass the end fails with *plcerr.UnderflowError and
// leaves the position unchanged.
type ReadBuffer struct {
	r     *bitio.Reader
	pos   uint64
	total uint64
	order ByteOrder
}

// NewReadBuffer returns a ReadBuffer positioned at bit 0 of data.
// The buffer reads from data directly; callers must not modify it while the
// buffer is in use.
func NewReadBuffer(data []byte, opts ...Option) *ReadBuffer {
	o := buildOptions(opts)
	return &ReadBuffer{
		r:     bitio.NewReader(bytes.NewReader(data)),
		total: uint64(len(data)) * 8, //nolint:gosec // len is never negative
		order: o.order,
	}
}

// Pos returns the current bit position.
func (b *ReadBuffer) Pos() uint64 { return b.pos }

// Len returns the total number of bits in the buffer.
func (b *ReadBuffer) Len() uint64 { return b.total }

// Remaining returns the number of unread bits.
func (b *ReadBuffer) Remaining() uint64 { return b.total - b.pos }

// ByteOrder returns the byte order applied to multi-byte fields.
func (b *ReadBuffer) ByteOrder() ByteOrder { return b.order }

// check validates a request for bits more bits.
func (b *ReadBuffer) check(bits uint64) error {
	if bits == 0 || bits > b.Remaining() {
		return &plcerr.UnderflowError{Op: "read", Requested: bits, Remaining: b.Remaining()}
	}
	return nil
}

// ReadBit reads a single bit.
func (b *ReadBuffer) ReadBit() (bool, error) {
	if err := b.check(1); err != nil {
		return false, err
	}
	v, err := b.r.ReadBool()
	if err != nil {
		return false, b.ioError(1, err)
	}
	b.pos++
	return v, nil
}

// ReadUint reads an unsigned integer of the given width (1 to 64 bits).
//
// Byte-multiple widths of 16 bits or more are reassembled according to the
// buffer's byte order; all other widths are read most significant bit first.
func (b *ReadBuffer) ReadUint(bits uint8) (uint64, error) {
	if bits > maxFieldBits {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	if err := b.check(uint64(bits)); err != nil {
		return 0, err
	}

	if !b.order.reorders(bits) {
		v, err := b.r.ReadBits(bits)
		if err != nil {
			return 0, b.ioError(uint64(bits), err)
		}
		b.pos += uint64(bits)
		return v, nil
	}

	var raw [8]byte
	n := int(bits / 8)
	for i := 0; i < n; i++ {
		v, err := b.r.ReadBits(8)
		if err != nil {
			return 0, b.ioError(uint64(bits), err)
		}
		raw[i] = byte(v)
	}
	b.order.permute(raw[:n])
	b.pos += uint64(bits)

	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(raw[i])
	}
	return v, nil
}

// ReadInt reads a two's-complement signed integer of the given width,
// sign-extending from the top bit of the field.
func (b *ReadBuffer) ReadInt(bits uint8) (int64, error) {
	v, err := b.ReadUint(bits)
	if err != nil {
		return 0, err
	}
	return signExtend(v, bits), nil
}

// ReadFloat32 reads an IEEE-754 single precision value.
func (b *ReadBuffer) ReadFloat32() (float32, error) {
	v, err := b.ReadUint(32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// ReadFloat64 reads an IEEE-754 double precision value.
func (b *ReadBuffer) ReadFloat64() (float64, error) {
	v, err := b.ReadUint(64)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBytes reads n raw bytes starting at the current bit position, which
// need not be byte aligned. Raw bytes are never reordered. n <= 0 reads
// nothing.
func (b *ReadBuffer) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	bits := uint64(n) * 8
	if err := b.check(bits); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(b.r, out); err != nil {
		return nil, b.ioError(bits, err)
	}
	b.pos += bits
	return out, nil
}

// Skip advances the position by bits without interpreting them.
func (b *ReadBuffer) Skip(bits uint64) error {
	if bits == 0 {
		return nil
	}
	if err := b.check(bits); err != nil {
		return err
	}
	for left := bits; left > 0; {
		step := min(left, maxFieldBits)
		if _, err := b.r.ReadBits(uint8(step)); err != nil {
			return b.ioError(bits, err)
		}
		b.pos += step
		left -= step
	}
	return nil
}

// ioError converts an unexpected reader failure into an underflow report.
// The bounds check makes this unreachable for well-formed buffers.
func (b *ReadBuffer) ioError(bits uint64, err error) error {
	return fmt.Errorf("%w (%w)", &plcerr.UnderflowError{Op: "read", Requested: bits, Remaining: b.Remaining()}, err)
}

// signExtend interprets the low bits of v as a two's-complement number.
func signExtend(v uint64, bits uint8) int64 {
	if bits >= maxFieldBits {
		return int64(v) //nolint:gosec // reinterpretation is the point
	}
	if v&(1<<(bits-1)) != 0 {
		v |= ^uint64(0) << bits
	}
	return int64(v) //nolint:gosec // reinterpretation is the point
}
