// Package codec turns protocol byte layouts into typed values and back.
//
// A Descriptor, produced by a protocol address parser, names a rule in a
// Table and describes how elements are laid out. The Codec positions a
// bit buffer over the payload, applies the rule once per element and wraps
// arrays in a LIST. Decoding and encoding are synchronous and pure: every
// call owns its buffer, so independent calls may run concurrently.
package codec

import (
	"fmt"

	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// Codec decodes and encodes values using an immutable rule table.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	table *Table
}

// New returns a Codec over table.
func New(table *Table) *Codec {
	return &Codec{table: table}
}

// Table returns the codec's rule table.
func (c *Codec) Table() *Table { return c.table }

// Rule returns the rule a descriptor selects, checking that the descriptor's
// layout can hold it.
func (c *Codec) Rule(d Descriptor) (Rule, error) {
	rule, ok := c.table.Lookup(Key{Family: d.Family, Format: d.Format})
	if !ok {
		kind := ErrUnknownDatapointType
		if d.Family == FamilyModbus {
			kind = ErrUnknownRegisterType
		}
		return Rule{}, &plcerr.UnknownError{Kind: kind, Token: d.Format}
	}
	if d.ElementBits() < uint64(rule.Width) {
		return Rule{}, fmt.Errorf("%w: %s stride %d narrower than %d-bit rule",
			ErrInvalidDescriptor, d.Format, d.ElementBits(), rule.Width)
	}
	return rule, nil
}

// Decode decodes data according to d. A scalar descriptor yields a scalar
// value; an array descriptor yields a LIST of exactly d.Count elements.
func (c *Codec) Decode(data []byte, d Descriptor) (values.Value, error) {
	if d.BitOrder == LSBFirst {
		data = reverseBits(data)
	}
	return c.DecodeFrom(bitbuf.NewReadBuffer(data, bitbuf.WithByteOrder(d.ByteOrder)), d)
}

// DecodeFrom decodes from the current position of rb. The buffer's own byte
// order applies; d.ByteOrder and d.BitOrder are only honoured by Decode.
func (c *Codec) DecodeFrom(rb *bitbuf.ReadBuffer, d Descriptor) (values.Value, error) {
	rule, err := c.Rule(d)
	if err != nil {
		return values.Value{}, err
	}
	if err := rb.Skip(uint64(d.BitOffset)); err != nil {
		return values.Value{}, err
	}

	if !d.IsArray() {
		return decodeElement(rb, rule, d)
	}

	elems := make([]values.Value, d.Count)
	for i := range elems {
		v, err := decodeElement(rb, rule, d)
		if err != nil {
			return values.Value{}, fmt.Errorf("element %d of %s: %w", i, d.Token, err)
		}
		elems[i] = v
	}
	return values.List(elems...), nil
}

func decodeElement(rb *bitbuf.ReadBuffer, rule Rule, d Descriptor) (values.Value, error) {
	if pad := d.ElementBits() - uint64(rule.Width); pad > 0 {
		if err := rb.Skip(pad); err != nil {
			return values.Value{}, err
		}
	}
	v, err := rule.Decode(rb, d)
	if err != nil {
		return values.Value{}, err
	}
	if d.Transform != nil && !v.IsNull() {
		return d.Transform.Apply(v)
	}
	return v, nil
}

// Encode encodes v according to d and returns the payload, zero-padded to a
// whole byte. An array descriptor requires a LIST of exactly d.Count
// elements.
func (c *Codec) Encode(v values.Value, d Descriptor) ([]byte, error) {
	wb := bitbuf.NewWriteBuffer(bitbuf.WithByteOrder(d.ByteOrder))
	if err := c.EncodeTo(wb, v, d); err != nil {
		return nil, err
	}
	out, err := wb.Bytes()
	if err != nil {
		return nil, err
	}
	if d.BitOrder == LSBFirst {
		out = reverseBits(out)
	}
	return out, nil
}

// EncodeTo appends v to wb according to d. The buffer's own byte order
// applies.
func (c *Codec) EncodeTo(wb *bitbuf.WriteBuffer, v values.Value, d Descriptor) error {
	rule, err := c.Rule(d)
	if err != nil {
		return err
	}
	if err := wb.WritePadding(uint64(d.BitOffset)); err != nil {
		return err
	}

	if !d.IsArray() {
		if v.Kind() == values.KindList && d.Kind != values.KindList {
			return &plcerr.KindError{Want: d.Kind.String(), Got: values.KindList.String()}
		}
		return encodeElement(wb, rule, v, d)
	}

	elems, err := v.AsList()
	if err != nil {
		return err
	}
	if len(elems) != d.Count {
		return rangeErr(fmt.Sprintf("list of %d", len(elems)), fmt.Sprintf("%d elements", d.Count))
	}
	for i, e := range elems {
		if err := encodeElement(wb, rule, e, d); err != nil {
			return fmt.Errorf("element %d of %s: %w", i, d.Token, err)
		}
	}
	return nil
}

func encodeElement(wb *bitbuf.WriteBuffer, rule Rule, v values.Value, d Descriptor) error {
	if v.IsNull() {
		if !rule.Nullable {
			return &plcerr.KindError{Want: d.Kind.String(), Got: values.KindNull.String()}
		}
	} else {
		if want := d.Kind; want != values.KindNull && !v.Kind().AssignableTo(want) {
			return &plcerr.KindError{Want: want.String(), Got: v.Kind().String()}
		}
		if d.Transform != nil {
			raw, err := d.Transform.Invert(v, rule.Kind)
			if err != nil {
				return err
			}
			v = raw
		}
		if !v.Kind().AssignableTo(rule.Kind) {
			return &plcerr.KindError{Want: rule.Kind.String(), Got: v.Kind().String()}
		}
	}

	if pad := d.ElementBits() - uint64(rule.Width); pad > 0 {
		if err := wb.WritePadding(pad); err != nil {
			return err
		}
	}
	return rule.Encode(wb, v, d)
}

// reverseBits returns a copy of data with the bit order of every byte
// reversed, converting between LSB-first and MSB-first packing.
func reverseBits(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		b = b>>4 | b<<4
		b = (b&0xCC)>>2 | (b&0x33)<<2
		b = (b&0xAA)>>1 | (b&0x55)<<1
		out[i] = b
	}
	return out
}
