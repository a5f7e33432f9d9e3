package value

import (
	"fmt"
	"math/big"
	"time"
)

// FromGo converts a plain Go value into a Value.
//
// Supported inputs are nil, bool, all integer and float types, string,
// *big.Int, time.Time (rendered as RFC 3339), []any, map[string]any and
// values of this package. Non-negative integers become Unsigned, negative ones
// Integer, mirroring the JSON classification rules.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case float32:
		return Float(t), nil
	case float64:
		return Float(t), nil
	case int:
		return fromInt64(int64(t)), nil
	case int8:
		return fromInt64(int64(t)), nil
	case int16:
		return fromInt64(int64(t)), nil
	case int32:
		return fromInt64(int64(t)), nil
	case int64:
		return fromInt64(t), nil
	case uint:
		return NewUnsigned(uint64(t)), nil
	case uint8:
		return NewUnsigned(uint64(t)), nil
	case uint16:
		return NewUnsigned(uint64(t)), nil
	case uint32:
		return NewUnsigned(uint64(t)), nil
	case uint64:
		return NewUnsigned(t), nil
	case *big.Int:
		return FromBig(t)
	case string:
		return String(t), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []any:
		out := make(Array, 0, len(t))
		for i, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, ev)
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(t))
		for k, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported go type %T", v)
	}
}

// MustFromGo is like FromGo but panics on error
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}

// MustMap builds a Map from plain Go values and panics on error
func MustMap(m map[string]any) Map {
	return MustFromGo(m).(Map)
}

// FromBig classifies an arbitrary precision integer: non-negative values
// become Unsigned, negative values Integer.
func FromBig(i *big.Int) (Value, error) {
	if i.Sign() >= 0 {
		return UnsignedFromBig(i)
	}
	return IntegerFromBig(i)
}

func fromInt64(i int64) Value {
	if i >= 0 {
		return NewUnsigned(uint64(i))
	}
	return NewInteger(i)
}
