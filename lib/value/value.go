package value

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Kind
// --------------------------------------------------------------------------

// Kind identifies the variant of a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindFloat
	KindInteger
	KindUnsigned
	KindString
	KindMap
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindInteger:
		return "integer"
	case KindUnsigned:
		return "unsigned"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Value Interface
// --------------------------------------------------------------------------

// Value is the closed set of dynamic values. It cannot be implemented outside
// of this package.
type Value interface {
	// Kind returns the variant of the value
	Kind() Kind
	// String returns the textual rendering used by LooseEqual
	String() string

	isValue()
}

// Null is the absent value
type Null struct{}

// Bool is a boolean value
type Bool bool

// Float is a 64-bit floating point value
type Float float64

// String is a text value
type String string

// Map maps unique string keys to values. A record in a store is a Map.
type Map map[string]Value

// Array is an ordered list of values
type Array []Value

// Integer is a signed integer in the range of a 128-bit two's complement number
type Integer struct{ v *big.Int }

// Unsigned is an unsigned integer in the range of a 128-bit number
type Unsigned struct{ v *big.Int }

var (
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Float) Kind() Kind    { return KindFloat }
func (String) Kind() Kind   { return KindString }
func (Map) Kind() Kind      { return KindMap }
func (Array) Kind() Kind    { return KindArray }
func (Integer) Kind() Kind  { return KindInteger }
func (Unsigned) Kind() Kind { return KindUnsigned }

func (Null) isValue()     {}
func (Bool) isValue()     {}
func (Float) isValue()    {}
func (String) isValue()   {}
func (Map) isValue()      {}
func (Array) isValue()    {}
func (Integer) isValue()  {}
func (Unsigned) isValue() {}

// --------------------------------------------------------------------------
// Integer Constructors
// --------------------------------------------------------------------------

// NewInteger creates an Integer from an int64
func NewInteger(i int64) Integer {
	return Integer{v: big.NewInt(i)}
}

// IntegerFromBig creates an Integer from a big.Int. It fails if i does not fit
// into 128 signed bits.
func IntegerFromBig(i *big.Int) (Integer, error) {
	if i.Cmp(minInt128) < 0 || i.Cmp(maxInt128) > 0 {
		return Integer{}, fmt.Errorf("integer %s out of 128-bit range", i)
	}
	return Integer{v: new(big.Int).Set(i)}, nil
}

// NewUnsigned creates an Unsigned from an uint64
func NewUnsigned(u uint64) Unsigned {
	return Unsigned{v: new(big.Int).SetUint64(u)}
}

// UnsignedFromBig creates an Unsigned from a big.Int. It fails if u is negative
// or does not fit into 128 bits.
func UnsignedFromBig(u *big.Int) (Unsigned, error) {
	if u.Sign() < 0 || u.Cmp(maxUint128) > 0 {
		return Unsigned{}, fmt.Errorf("unsigned %s out of 128-bit range", u)
	}
	return Unsigned{v: new(big.Int).Set(u)}, nil
}

// Big returns a copy of the underlying big.Int
func (i Integer) Big() *big.Int {
	return new(big.Int).Set(i.big())
}

// Int64 returns the value as int64, ok is false if it does not fit
func (i Integer) Int64() (int64, bool) {
	b := i.big()
	return b.Int64(), b.IsInt64()
}

func (i Integer) big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return i.v
}

// Big returns a copy of the underlying big.Int
func (u Unsigned) Big() *big.Int {
	return new(big.Int).Set(u.big())
}

// Uint64 returns the value as uint64, ok is false if it does not fit
func (u Unsigned) Uint64() (uint64, bool) {
	b := u.big()
	return b.Uint64(), b.IsUint64()
}

// Int64 returns the value as int64, ok is false if it does not fit
func (u Unsigned) Int64() (int64, bool) {
	b := u.big()
	return b.Int64(), b.IsInt64()
}

func (u Unsigned) big() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return u.v
}

// --------------------------------------------------------------------------
// Rendering
// --------------------------------------------------------------------------

func (Null) String() string { return "null" }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (f Float) String() string {
	switch {
	case math.IsNaN(float64(f)):
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

func (s String) String() string { return string(s) }

func (i Integer) String() string { return i.big().String() }

func (u Unsigned) String() string { return u.big().String() }

func (m Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(k))
		sb.WriteString(": ")
		sb.WriteString(nested(m[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (a Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(nested(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// nested renders a value inside a container, strings are quoted there
func nested(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return Render(v)
}

// Render returns the textual rendering of v, a nil Value renders as null
func Render(v Value) string {
	if v == nil {
		return Null{}.String()
	}
	return v.String()
}

// Keys returns the keys of the map in sorted order
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the map
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func clone(v Value) Value {
	switch t := v.(type) {
	case Map:
		return t.Clone()
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}

// --------------------------------------------------------------------------
// Equality
// --------------------------------------------------------------------------

// Equal reports whether a and b are structurally equal. A nil Value is equal
// to Null. Numbers of different kinds are never equal: Integer(1) != Unsigned(1).
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Float:
		return x == b.(Float)
	case String:
		return x == b.(String)
	case Integer:
		return x.big().Cmp(b.(Integer).big()) == 0
	case Unsigned:
		return x.big().Cmp(b.(Unsigned).big()) == 0
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// LooseEqual reports whether the textual renderings of a and b are identical.
// It is only meant for identifier matching.
func LooseEqual(a, b Value) bool {
	return Render(a) == Render(b)
}
