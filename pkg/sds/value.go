package sds

import (
	"fmt"
	"math"
)

// Value is a scalar tagged with its Type. It is the neutral exchange
// representation at the engine boundary: callers hand in Values (or raw Go
// values that are converted through one coercion table) and read accessors
// hand them back.
//
// The zero Value has Type 0 and is not valid.
type Value struct {
	Type Type

	i int64
	u uint64
	f float64
	s string
	c byte
}

func ShortValue(v int16) Value    { return Value{Type: TypeShort, i: int64(v)} }
func UshortValue(v uint16) Value  { return Value{Type: TypeUshort, u: uint64(v)} }
func LongValue(v int32) Value     { return Value{Type: TypeLong, i: int64(v)} }
func UlongValue(v uint32) Value   { return Value{Type: TypeUlong, u: uint64(v)} }
func Long64Value(v int64) Value   { return Value{Type: TypeLong64, i: v} }
func Ulong64Value(v uint64) Value { return Value{Type: TypeUlong64, u: v} }
func DoubleValue(v float64) Value { return Value{Type: TypeDouble, f: v} }
func StringValue(v string) Value  { return Value{Type: TypeString, s: v} }
func CharacterValue(v byte) Value { return Value{Type: TypeCharacter, c: v} }

// FloatValue canonicalizes v through the fixed-precision text form before
// storing it, matching what a text-mode write and reread would produce.
func FloatValue(v float32) Value {
	return Value{Type: TypeFloat, f: float64(canonicalFloat32(v))}
}

func intValue(t Type, v int64) Value  { return Value{Type: t, i: v} }
func uintValue(t Type, v uint64) Value { return Value{Type: t, u: v} }

// NewValue builds a Value of type t from a raw Go scalar, coercing any
// numeric representation the caller supplies. It fails with ErrWrongType
// when v cannot represent type t (for example a string for a numeric
// column).
func NewValue(t Type, v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x.ConvertTo(t)
	case int:
		return intValue(TypeLong64, int64(x)).ConvertTo(t)
	case int8:
		return intValue(TypeShort, int64(x)).ConvertTo(t)
	case int16:
		return ShortValue(x).ConvertTo(t)
	case int32:
		return LongValue(x).ConvertTo(t)
	case int64:
		return Long64Value(x).ConvertTo(t)
	case uint:
		return uintValue(TypeUlong64, uint64(x)).ConvertTo(t)
	case uint16:
		return UshortValue(x).ConvertTo(t)
	case uint32:
		return UlongValue(x).ConvertTo(t)
	case uint64:
		return Ulong64Value(x).ConvertTo(t)
	case float32:
		return FloatValue(x).ConvertTo(t)
	case float64:
		return DoubleValue(x).ConvertTo(t)
	case string:
		if t == TypeCharacter && len(x) == 1 {
			return CharacterValue(x[0]), nil
		}
		return StringValue(x).ConvertTo(t)
	case byte:
		return CharacterValue(x).ConvertTo(t)
	default:
		return Value{}, fmt.Errorf("%w: cannot represent %T as %s", ErrWrongType, v, t)
	}
}

// ConvertTo coerces v to type t. Numeric kinds convert freely with C cast
// semantics; single precision results are canonicalized. Strings and
// characters never convert implicitly to numeric kinds.
func (v Value) ConvertTo(t Type) (Value, error) {
	if v.Type == t {
		return v, nil
	}
	if !t.Valid() {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, int32(t))
	}
	switch v.Type {
	case TypeString:
		if t == TypeCharacter && len(v.s) == 1 {
			return CharacterValue(v.s[0]), nil
		}
		return Value{}, fmt.Errorf("%w: string value for %s target", ErrWrongType, t)
	case TypeCharacter:
		if t == TypeString {
			return StringValue(string(v.c)), nil
		}
		return numericTo(t, float64(v.c), int64(v.c), uint64(v.c))
	}
	if t == TypeString || t == TypeCharacter {
		return Value{}, fmt.Errorf("%w: numeric value for %s target", ErrWrongType, t)
	}
	switch v.Type {
	case TypeDouble, TypeFloat:
		return numericTo(t, v.f, floatToInt(v.f), floatToUint(v.f))
	case TypeLong64, TypeLong, TypeShort:
		return numericTo(t, float64(v.i), v.i, uint64(v.i))
	case TypeUlong64, TypeUlong, TypeUshort:
		return numericTo(t, float64(v.u), int64(v.u), v.u)
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, int32(v.Type))
	}
}

// floatToInt truncates toward zero, saturating outside the int64 range.
// Go leaves out-of-range float-to-integer conversions architecture
// dependent, so the edge cases are pinned down here.
func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// floatToUint truncates toward zero, saturating above the uint64 range.
// Negative values wrap through int64 the way the integer source path
// does, so double -1 and long -1 coerce to the same unsigned value.
func floatToUint(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxUint64:
		return math.MaxUint64
	case f < 0:
		return uint64(floatToInt(f))
	}
	return uint64(f)
}

func numericTo(t Type, f float64, i int64, u uint64) (Value, error) {
	switch t {
	case TypeDouble:
		return DoubleValue(f), nil
	case TypeFloat:
		return FloatValue(float32(f)), nil
	case TypeLong64:
		return Long64Value(i), nil
	case TypeLong:
		return LongValue(int32(i)), nil
	case TypeShort:
		return ShortValue(int16(i)), nil
	case TypeUlong64:
		return Ulong64Value(u), nil
	case TypeUlong:
		return UlongValue(uint32(u)), nil
	case TypeUshort:
		return UshortValue(uint16(u)), nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, int32(t))
	}
}

// Float64 returns the value as a float64. Integer kinds convert exactly
// up to 53 bits; string kinds return NaN.
func (v Value) Float64() float64 {
	switch v.Type {
	case TypeDouble, TypeFloat:
		return v.f
	case TypeLong64, TypeLong, TypeShort:
		return float64(v.i)
	case TypeUlong64, TypeUlong, TypeUshort:
		return float64(v.u)
	case TypeCharacter:
		return float64(v.c)
	default:
		return math.NaN()
	}
}

// Int64 returns the value as an int64, truncating floats.
func (v Value) Int64() int64 {
	switch v.Type {
	case TypeDouble, TypeFloat:
		return int64(v.f)
	case TypeLong64, TypeLong, TypeShort:
		return v.i
	case TypeUlong64, TypeUlong, TypeUshort:
		return int64(v.u)
	case TypeCharacter:
		return int64(v.c)
	default:
		return 0
	}
}

// Uint64 returns the value as a uint64, truncating floats.
func (v Value) Uint64() uint64 {
	switch v.Type {
	case TypeDouble, TypeFloat:
		return uint64(v.f)
	case TypeLong64, TypeLong, TypeShort:
		return uint64(v.i)
	case TypeUlong64, TypeUlong, TypeUshort:
		return v.u
	case TypeCharacter:
		return uint64(v.c)
	default:
		return 0
	}
}

// Any returns the canonical Go representation for the value's type:
// int16, uint16, int32, uint32, int64, uint64, float32, float64, string
// or byte.
func (v Value) Any() any {
	switch v.Type {
	case TypeDouble:
		return v.f
	case TypeFloat:
		return float32(v.f)
	case TypeLong64:
		return v.i
	case TypeLong:
		return int32(v.i)
	case TypeShort:
		return int16(v.i)
	case TypeUlong64:
		return v.u
	case TypeUlong:
		return uint32(v.u)
	case TypeUshort:
		return uint16(v.u)
	case TypeString:
		return v.s
	case TypeCharacter:
		return v.c
	default:
		return nil
	}
}

// String renders the value with its type's default format.
func (v Value) String() string {
	s, err := formatScalar(v, "")
	if err != nil {
		return "<invalid>"
	}
	return s
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeDouble, TypeFloat:
		return v.f == o.f
	case TypeLong64, TypeLong, TypeShort:
		return v.i == o.i
	case TypeUlong64, TypeUlong, TypeUshort:
		return v.u == o.u
	case TypeString:
		return v.s == o.s
	case TypeCharacter:
		return v.c == o.c
	default:
		return false
	}
}

func (v Value) mustFloat() float64 { return v.Float64() }
func (v Value) mustInt() int64     { return v.i }
func (v Value) mustUint() uint64   { return v.u }
func (v Value) mustString() string { return v.s }
func (v Value) mustChar() byte     { return v.c }

// zeroValue returns the zero scalar of type t.
func zeroValue(t Type) Value {
	switch t {
	case TypeString:
		return StringValue("")
	case TypeCharacter:
		return CharacterValue(0)
	default:
		return Value{Type: t}
	}
}
