package codec

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// Transform maps raw rule values to engineering values and back.
type Transform interface {
	// Kind is the variant Apply produces.
	Kind() values.Kind

	// Apply converts a decoded raw value.
	Apply(v values.Value) (values.Value, error)

	// Invert converts an engineering value into a raw value assignable to
	// the rule kind target.
	Invert(v values.Value, target values.Kind) (values.Value, error)
}

// Linear scales a raw number by Num/Den and adds Offset. The multiplication
// happens before the division so that full-scale raw values map exactly,
// e.g. 255*100/255 is exactly 100.
type Linear struct {
	Num    float64
	Den    float64
	Offset float64
}

// Kind implements Transform.
func (Linear) Kind() values.Kind { return values.KindDouble }

// Apply implements Transform.
func (l Linear) Apply(v values.Value) (values.Value, error) {
	raw, err := v.AsFloat64()
	if err != nil {
		return values.Value{}, err
	}
	return values.Double(raw*l.Num/l.Den + l.Offset), nil
}

// Invert implements Transform. Integer targets are rounded to the nearest
// whole raw value; range is checked by the rule that writes it.
func (l Linear) Invert(v values.Value, target values.Kind) (values.Value, error) {
	eng, err := v.AsFloat64()
	if err != nil {
		return values.Value{}, err
	}
	raw := (eng - l.Offset) * l.Den / l.Num
	if !target.IsInteger() {
		return values.Double(raw), nil
	}
	r := math.Round(raw)
	if math.IsNaN(r) || r < math.MinInt64 || r >= math.MaxInt64 {
		return values.Value{}, plcerr.Range(eng, fmt.Sprintf("%s after scaling", target))
	}
	return values.Long(int64(r)), nil
}

// ToFloat32 narrows f to float32, failing when a finite f overflows.
func ToFloat32(f float64) (float32, error) {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, plcerr.Range(f, "float32")
	}
	return float32(f), nil
}

func rangeErr(value, target string) error {
	return &plcerr.RangeError{Value: value, Target: target}
}
