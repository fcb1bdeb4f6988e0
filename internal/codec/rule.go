package codec

import (
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// DecodeFunc reads one element from rb. The buffer is positioned after any
// element padding; the function must consume exactly the rule's Width.
type DecodeFunc func(rb *bitbuf.ReadBuffer, d Descriptor) (values.Value, error)

// EncodeFunc writes one element to wb, consuming exactly the rule's Width.
// v has already been checked against the rule's Kind.
type EncodeFunc func(wb *bitbuf.WriteBuffer, v values.Value, d Descriptor) error

// Rule is the bit layout and conversion for one datapoint or data type.
type Rule struct {
	// Kind is the variant Decode produces and Encode accepts.
	Kind values.Kind

	// Width is the number of bits one element consumes.
	Width uint16

	// Nullable marks rules whose layout has an explicit invalid-value
	// pattern; Decode may return Null and Encode accepts it.
	Nullable bool

	Decode DecodeFunc
	Encode EncodeFunc
}

// Key selects a rule.
type Key struct {
	Family Family
	Format string
}

func (k Key) String() string { return k.Family.String() + "/" + k.Format }

// Entry is one row of a rule table.
type Entry struct {
	Key  Key
	Rule Rule
}

// Table is an immutable rule lookup built once at start-up. Adding a datapoint
// type means adding an Entry; neither the buffers nor the Codec loop change.
type Table struct {
	rules map[Key]Rule
}

// NewTable merges entry sets into a Table. Duplicate keys and rules with no
// width or handlers are rejected.
func NewTable(sets ...[]Entry) (*Table, error) {
	rules := make(map[Key]Rule)
	for _, set := range sets {
		for _, e := range set {
			if _, dup := rules[e.Key]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, e.Key)
			}
			if e.Rule.Width == 0 || e.Rule.Decode == nil || e.Rule.Encode == nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidRule, e.Key)
			}
			rules[e.Key] = e.Rule
		}
	}
	return &Table{rules: rules}, nil
}

// MustTable is NewTable for package-level tables. It panics on error.
func MustTable(sets ...[]Entry) *Table {
	t, err := NewTable(sets...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the rule for key.
func (t *Table) Lookup(key Key) (Rule, bool) {
	r, ok := t.rules[key]
	return r, ok
}

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// Keys returns every key, sorted by family then format.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.rules))
	for k := range t.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		return keys[i].Format < keys[j].Format
	})
	return keys
}

// ─── Common rule builders ───────────────────────────────────────────

// BitRule reads and writes a single bit as BOOL.
func BitRule() Rule {
	return Rule{
		Kind:  values.KindBool,
		Width: 1,
		Decode: func(rb *bitbuf.ReadBuffer, _ Descriptor) (values.Value, error) {
			b, err := rb.ReadBit()
			if err != nil {
				return values.Value{}, err
			}
			return values.Bool(b), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ Descriptor) error {
			b, err := v.AsBool()
			if err != nil {
				return err
			}
			return wb.WriteBit(b)
		},
	}
}

// UnsignedRule reads and writes an unsigned integer of bits width as kind k.
func UnsignedRule(k values.Kind, bits uint8) Rule {
	return Rule{
		Kind:  k,
		Width: uint16(bits),
		Decode: func(rb *bitbuf.ReadBuffer, _ Descriptor) (values.Value, error) {
			u, err := rb.ReadUint(bits)
			if err != nil {
				return values.Value{}, err
			}
			return values.Unsigned(k, u)
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ Descriptor) error {
			u, err := v.AsUint64()
			if err != nil {
				return err
			}
			return wb.WriteUint(bits, u)
		},
	}
}

// SignedRule reads and writes a two's-complement integer of bits width as
// kind k.
func SignedRule(k values.Kind, bits uint8) Rule {
	return Rule{
		Kind:  k,
		Width: uint16(bits),
		Decode: func(rb *bitbuf.ReadBuffer, _ Descriptor) (values.Value, error) {
			i, err := rb.ReadInt(bits)
			if err != nil {
				return values.Value{}, err
			}
			return values.Signed(k, i)
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ Descriptor) error {
			i, err := v.AsInt64()
			if err != nil {
				return err
			}
			return wb.WriteInt(bits, i)
		},
	}
}

// Float32Rule reads and writes an IEEE-754 single as FLOAT.
func Float32Rule() Rule {
	return Rule{
		Kind:  values.KindFloat,
		Width: 32,
		Decode: func(rb *bitbuf.ReadBuffer, _ Descriptor) (values.Value, error) {
			f, err := rb.ReadFloat32()
			if err != nil {
				return values.Value{}, err
			}
			return values.Float(f), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ Descriptor) error {
			f, err := v.AsFloat64()
			if err != nil {
				return err
			}
			f32, err := ToFloat32(f)
			if err != nil {
				return err
			}
			return wb.WriteFloat32(f32)
		},
	}
}

// Float64Rule reads and writes an IEEE-754 double as DOUBLE.
func Float64Rule() Rule {
	return Rule{
		Kind:  values.KindDouble,
		Width: 64,
		Decode: func(rb *bitbuf.ReadBuffer, _ Descriptor) (values.Value, error) {
			f, err := rb.ReadFloat64()
			if err != nil {
				return values.Value{}, err
			}
			return values.Double(f), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ Descriptor) error {
			f, err := v.AsFloat64()
			if err != nil {
				return err
			}
			return wb.WriteFloat64(f)
		},
	}
}

// RawRule reads and writes n whole bytes as RAW. Encoding requires exactly
// n bytes.
func RawRule(n int) Rule {
	return Rule{
		Kind:  values.KindRaw,
		Width: uint16(n * 8), //nolint:gosec // rule widths are small constants
		Decode: func(rb *bitbuf.ReadBuffer, _ Descriptor) (values.Value, error) {
			b, err := rb.ReadBytes(n)
			if err != nil {
				return values.Value{}, err
			}
			return values.Raw(b), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ Descriptor) error {
			b, err := v.AsBytes()
			if err != nil {
				return err
			}
			if len(b) != n {
				return rangeErr(fmt.Sprintf("%d bytes", len(b)), fmt.Sprintf("%d bytes", n))
			}
			return wb.WriteBytes(b)
		},
	}
}
