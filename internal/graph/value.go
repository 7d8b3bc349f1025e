package graph

import "fmt"

// Kind discriminates the two value shapes a plotted node can produce.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindArray:
		return "Array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the tagged variant resolved from the dynamic value a server returns.
// Scalar holds a single float64 sample; Array holds a full numeric array.
type Value struct {
	kind   Kind
	scalar float64
	array  []float64
}

func Scalar(v float64) Value { return Value{kind: KindScalar, scalar: v} }

func Array(vs []float64) Value { return Value{kind: KindArray, array: vs} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Scalar() float64 { return v.scalar }

func (v Value) Array() []float64 { return v.array }

// Coerce converts a raw variant value into a Value. All Go numeric widths map
// to Scalar; slices of numerics map to Array. Anything else is an error.
func Coerce(raw interface{}) (Value, error) {
	if raw == nil {
		return Value{}, fmt.Errorf("nil value")
	}
	if f, ok := toFloat(raw); ok {
		return Scalar(f), nil
	}
	switch vs := raw.(type) {
	case []float64:
		out := make([]float64, len(vs))
		copy(out, vs)
		return Array(out), nil
	case []float32:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []int8:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []int16:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []int32:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []int64:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []int:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []uint16:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []uint32:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []uint64:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return Array(out), nil
	case []interface{}:
		out := make([]float64, len(vs))
		for i, v := range vs {
			f, ok := toFloat(v)
			if !ok {
				return Value{}, fmt.Errorf("array element %d is %T, not numeric", i, v)
			}
			out[i] = f
		}
		return Array(out), nil
	default:
		return Value{}, fmt.Errorf("cannot coerce %T to a numeric value", raw)
	}
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
