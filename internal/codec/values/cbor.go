package values

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// encMode and decMode are the CBOR modes for value envelopes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create value CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create value CBOR decoder mode: %v", err))
	}
}

// envelope is the CBOR form of a Value: the kind name plus a payload whose
// shape depends on the kind. Integer keys keep it compact.
type envelope struct {
	Kind    string          `cbor:"1,keyasint"`
	Payload cbor.RawMessage `cbor:"2,keyasint,omitempty"`
}

type fieldEnvelope struct {
	Name  string `cbor:"1,keyasint"`
	Value Value  `cbor:"2,keyasint"`
}

// MarshalCBOR encodes v as a kind-tagged envelope that decodes back to an
// equal Value, including struct field order and the exact integer kind.
func (v Value) MarshalCBOR() ([]byte, error) {
	payload, err := v.cborPayload()
	if err != nil {
		return nil, err
	}
	env := envelope{Kind: v.kind.String()}
	if payload != nil {
		env.Payload, err = encMode.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("values: marshal %s payload: %w", v.kind, err)
		}
	}
	return encMode.Marshal(env)
}

func (v Value) cborPayload() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindList:
		return v.list, nil
	case KindStruct:
		fields := make([]fieldEnvelope, len(v.fields))
		for i, f := range v.fields {
			fields[i] = fieldEnvelope{Name: f.Name, Value: f.Value}
		}
		return fields, nil
	default:
		return v.Native(), nil
	}
}

// UnmarshalCBOR decodes an envelope produced by MarshalCBOR.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("values: unmarshal envelope: %w", err)
	}
	k, err := ParseKind(env.Kind)
	if err != nil {
		return err
	}
	if k == KindNull {
		*v = Null()
		return nil
	}
	if len(env.Payload) == 0 {
		return fmt.Errorf("values: %s envelope without payload", k)
	}

	out, err := decodePayload(k, env.Payload)
	if err != nil {
		return fmt.Errorf("values: unmarshal %s payload: %w", k, err)
	}
	*v = out
	return nil
}

func decodePayload(k Kind, raw cbor.RawMessage) (Value, error) {
	switch {
	case k == KindBool:
		var b bool
		if err := decMode.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case k.IsSigned():
		var i int64
		if err := decMode.Unmarshal(raw, &i); err != nil {
			return Value{}, err
		}
		return Signed(k, i)
	case k.IsInteger():
		var u uint64
		if err := decMode.Unmarshal(raw, &u); err != nil {
			return Value{}, err
		}
		return Unsigned(k, u)
	case k == KindFloat:
		var f float32
		if err := decMode.Unmarshal(raw, &f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case k == KindDouble:
		var f float64
		if err := decMode.Unmarshal(raw, &f); err != nil {
			return Value{}, err
		}
		return Double(f), nil
	case k == KindString:
		var s string
		if err := decMode.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case k == KindDateTime:
		var t time.Time
		if err := decMode.Unmarshal(raw, &t); err != nil {
			return Value{}, err
		}
		return DateTime(t), nil
	case k == KindRaw:
		var b []byte
		if err := decMode.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return Raw(b), nil
	case k == KindList:
		var elems []Value
		if err := decMode.Unmarshal(raw, &elems); err != nil {
			return Value{}, err
		}
		return List(elems...), nil
	case k == KindStruct:
		var fields []fieldEnvelope
		if err := decMode.Unmarshal(raw, &fields); err != nil {
			return Value{}, err
		}
		out := make([]Field, len(fields))
		for i, f := range fields {
			out[i] = F(f.Name, f.Value)
		}
		return Struct(out...)
	default:
		return Value{}, fmt.Errorf("unsupported kind %s", k)
	}
}

// EncodeCBOR encodes v with the package's canonical encoder mode.
func EncodeCBOR(v Value) ([]byte, error) {
	return encMode.Marshal(v)
}

// DecodeCBOR decodes an envelope produced by EncodeCBOR or MarshalCBOR.
func DecodeCBOR(data []byte) (Value, error) {
	var v Value
	if err := decMode.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}
