package bitbuf

import (
	"bytes"
	"fmt"
	"math"

	"github.com/icza/bitio"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// WriteBuffer is a bit cursor that appends fields to a growing byte
// sequence, or to a fixed-capacity one when built WithCapacity.
type WriteBuffer struct {
	out   *bytes.Buffer
	w     *bitio.Writer
	pos   uint64
	limit uint64 // bits, 0 means unbounded
	order ByteOrder
}

// NewWriteBuffer returns an empty WriteBuffer.
func NewWriteBuffer(opts ...Option) *WriteBuffer {
	o := buildOptions(opts)
	out := new(bytes.Buffer)
	b := &WriteBuffer{
		out:   out,
		w:     bitio.NewWriter(out),
		order: o.order,
	}
	if o.capacity > 0 {
		b.limit = uint64(o.capacity) * 8 //nolint:gosec // checked positive
		out.Grow(o.capacity)
	}
	return b
}

// Pos returns the number of bits written so far.
func (b *WriteBuffer) Pos() uint64 { return b.pos }

// ByteOrder returns the byte order applied to multi-byte fields.
func (b *WriteBuffer) ByteOrder() ByteOrder { return b.order }

// check validates a request for bits more bits. A growable buffer has no
// meaningful remaining capacity and reports zero.
func (b *WriteBuffer) check(bits uint64) error {
	if bits == 0 || (b.limit > 0 && bits > b.remaining()) {
		return &plcerr.UnderflowError{Op: "write", Requested: bits, Remaining: b.remaining()}
	}
	return nil
}

func (b *WriteBuffer) remaining() uint64 {
	if b.limit == 0 {
		return 0
	}
	return b.limit - b.pos
}

// WriteBit writes a single bit.
func (b *WriteBuffer) WriteBit(v bool) error {
	if err := b.check(1); err != nil {
		return err
	}
	if err := b.w.WriteBool(v); err != nil {
		return fmt.Errorf("bitbuf: write bit: %w", err)
	}
	b.pos++
	return nil
}

// WriteUint writes v as an unsigned integer of the given width. It fails with
// *plcerr.RangeError when v needs more than bits bits.
func (b *WriteBuffer) WriteUint(bits uint8, v uint64) error {
	if bits > maxFieldBits {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	if bits < maxFieldBits && bits > 0 && v>>bits != 0 {
		return plcerr.Range(v, fmt.Sprintf("uint%d", bits))
	}
	if err := b.check(uint64(bits)); err != nil {
		return err
	}

	if !b.order.reorders(bits) {
		if err := b.w.WriteBits(v, bits); err != nil {
			return fmt.Errorf("bitbuf: write %d bits: %w", bits, err)
		}
		b.pos += uint64(bits)
		return nil
	}

	var raw [8]byte
	n := int(bits / 8)
	for i := n - 1; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	b.order.permute(raw[:n])
	for i := 0; i < n; i++ {
		if err := b.w.WriteBits(uint64(raw[i]), 8); err != nil {
			return fmt.Errorf("bitbuf: write %d bits: %w", bits, err)
		}
	}
	b.pos += uint64(bits)
	return nil
}

// WriteInt writes v as a two's-complement integer of the given width. It
// fails with *plcerr.RangeError when v is outside the signed range of bits.
func (b *WriteBuffer) WriteInt(bits uint8, v int64) error {
	if bits > maxFieldBits {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	if bits == 0 {
		return b.check(0)
	}
	if bits < maxFieldBits {
		lo := int64(-1) << (bits - 1)
		hi := -lo - 1
		if v < lo || v > hi {
			return plcerr.Range(v, fmt.Sprintf("int%d", bits))
		}
	}
	mask := ^uint64(0)
	if bits < maxFieldBits {
		mask = 1<<bits - 1
	}
	return b.WriteUint(bits, uint64(v)&mask) //nolint:gosec // reinterpretation is the point
}

// WriteFloat32 writes an IEEE-754 single precision value.
func (b *WriteBuffer) WriteFloat32(v float32) error {
	return b.WriteUint(32, uint64(math.Float32bits(v)))
}

// WriteFloat64 writes an IEEE-754 double precision value.
func (b *WriteBuffer) WriteFloat64(v float64) error {
	return b.WriteUint(64, math.Float64bits(v))
}

// WriteBytes writes p at the current bit position without reordering.
func (b *WriteBuffer) WriteBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	bits := uint64(len(p)) * 8
	if err := b.check(bits); err != nil {
		return err
	}
	if _, err := b.w.Write(p); err != nil {
		return fmt.Errorf("bitbuf: write bytes: %w", err)
	}
	b.pos += bits
	return nil
}

// WritePadding writes bits zero bits.
func (b *WriteBuffer) WritePadding(bits uint64) error {
	if bits == 0 {
		return nil
	}
	if err := b.check(bits); err != nil {
		return err
	}
	for left := bits; left > 0; {
		step := min(left, maxFieldBits)
		if err := b.w.WriteBits(0, uint8(step)); err != nil {
			return fmt.Errorf("bitbuf: write padding: %w", err)
		}
		b.pos += step
		left -= step
	}
	return nil
}

// Bytes pads the final partial byte with zero bits and returns a copy of
// everything written. Later writes continue after the padding.
func (b *WriteBuffer) Bytes() ([]byte, error) {
	if b.pos%8 != 0 {
		skipped, err := b.w.Align()
		if err != nil {
			return nil, fmt.Errorf("bitbuf: align: %w", err)
		}
		b.pos += uint64(skipped)
	}
	return bytes.Clone(b.out.Bytes()), nil
}
