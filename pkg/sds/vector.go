package sds

import "fmt"

// vector is a growable typed buffer backing one column, one array payload,
// or one value sequence crossing the engine boundary. All type dispatch
// over the scalar kinds lives here; the rest of the engine works in terms
// of vectors and Values.
type vector struct {
	typ Type

	i16 []int16
	u16 []uint16
	i32 []int32
	u32 []uint32
	i64 []int64
	u64 []uint64
	f32 []float32
	f64 []float64
	ch  []byte
	str []string
}

func newVector(t Type, n int) *vector {
	v := &vector{typ: t}
	v.resize(n)
	return v
}

func (v *vector) len() int {
	switch v.typ {
	case TypeShort:
		return len(v.i16)
	case TypeUshort:
		return len(v.u16)
	case TypeLong:
		return len(v.i32)
	case TypeUlong:
		return len(v.u32)
	case TypeLong64:
		return len(v.i64)
	case TypeUlong64:
		return len(v.u64)
	case TypeFloat:
		return len(v.f32)
	case TypeDouble:
		return len(v.f64)
	case TypeCharacter:
		return len(v.ch)
	case TypeString:
		return len(v.str)
	default:
		return 0
	}
}

// resize grows or shrinks to exactly n elements, zero-filling growth.
func (v *vector) resize(n int) {
	grow := func(cur int) int {
		if n > cur {
			return n - cur
		}
		return 0
	}
	switch v.typ {
	case TypeShort:
		v.i16 = append(v.i16, make([]int16, grow(len(v.i16)))...)[:n]
	case TypeUshort:
		v.u16 = append(v.u16, make([]uint16, grow(len(v.u16)))...)[:n]
	case TypeLong:
		v.i32 = append(v.i32, make([]int32, grow(len(v.i32)))...)[:n]
	case TypeUlong:
		v.u32 = append(v.u32, make([]uint32, grow(len(v.u32)))...)[:n]
	case TypeLong64:
		v.i64 = append(v.i64, make([]int64, grow(len(v.i64)))...)[:n]
	case TypeUlong64:
		v.u64 = append(v.u64, make([]uint64, grow(len(v.u64)))...)[:n]
	case TypeFloat:
		v.f32 = append(v.f32, make([]float32, grow(len(v.f32)))...)[:n]
	case TypeDouble:
		v.f64 = append(v.f64, make([]float64, grow(len(v.f64)))...)[:n]
	case TypeCharacter:
		v.ch = append(v.ch, make([]byte, grow(len(v.ch)))...)[:n]
	case TypeString:
		v.str = append(v.str, make([]string, grow(len(v.str)))...)[:n]
	}
}

func (v *vector) get(i int) Value {
	switch v.typ {
	case TypeShort:
		return ShortValue(v.i16[i])
	case TypeUshort:
		return UshortValue(v.u16[i])
	case TypeLong:
		return LongValue(v.i32[i])
	case TypeUlong:
		return UlongValue(v.u32[i])
	case TypeLong64:
		return Long64Value(v.i64[i])
	case TypeUlong64:
		return Ulong64Value(v.u64[i])
	case TypeFloat:
		return FloatValue(v.f32[i])
	case TypeDouble:
		return DoubleValue(v.f64[i])
	case TypeCharacter:
		return CharacterValue(v.ch[i])
	case TypeString:
		return StringValue(v.str[i])
	default:
		return Value{}
	}
}

// set stores val at index i, coercing it to the vector's type.
func (v *vector) set(i int, val Value) error {
	cv, err := val.ConvertTo(v.typ)
	if err != nil {
		return err
	}
	switch v.typ {
	case TypeShort:
		v.i16[i] = int16(cv.i)
	case TypeUshort:
		v.u16[i] = uint16(cv.u)
	case TypeLong:
		v.i32[i] = int32(cv.i)
	case TypeUlong:
		v.u32[i] = uint32(cv.u)
	case TypeLong64:
		v.i64[i] = cv.i
	case TypeUlong64:
		v.u64[i] = cv.u
	case TypeFloat:
		v.f32[i] = float32(cv.f)
	case TypeDouble:
		v.f64[i] = cv.f
	case TypeCharacter:
		v.ch[i] = cv.c
	case TypeString:
		v.str[i] = cv.s
	}
	return nil
}

// setDirect stores val at index i without coercion; val's type must equal
// the vector's type.
func (v *vector) setDirect(i int, val Value) error {
	if val.Type != v.typ {
		return fmt.Errorf("%w: %s value into %s buffer", ErrTypeMismatch, val.Type, v.typ)
	}
	return v.set(i, val)
}

func (v *vector) clone() *vector {
	out := &vector{typ: v.typ}
	switch v.typ {
	case TypeShort:
		out.i16 = append([]int16(nil), v.i16...)
	case TypeUshort:
		out.u16 = append([]uint16(nil), v.u16...)
	case TypeLong:
		out.i32 = append([]int32(nil), v.i32...)
	case TypeUlong:
		out.u32 = append([]uint32(nil), v.u32...)
	case TypeLong64:
		out.i64 = append([]int64(nil), v.i64...)
	case TypeUlong64:
		out.u64 = append([]uint64(nil), v.u64...)
	case TypeFloat:
		out.f32 = append([]float32(nil), v.f32...)
	case TypeDouble:
		out.f64 = append([]float64(nil), v.f64...)
	case TypeCharacter:
		out.ch = append([]byte(nil), v.ch...)
	case TypeString:
		out.str = append([]string(nil), v.str...)
	}
	return out
}

// values materializes the buffer as a Value slice.
func (v *vector) values() []Value {
	out := make([]Value, v.len())
	for i := range out {
		out[i] = v.get(i)
	}
	return out
}

// compact keeps only the elements whose keep flag is set.
func (v *vector) compact(keep []bool) {
	n := v.len()
	j := 0
	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		if i != j {
			_ = v.setDirect(j, v.get(i))
		}
		j++
	}
	v.resize(j)
}

// fromAny converts a raw Go slice (or []Value) into a vector of type t,
// coercing each element through the value coercion table.
func fromAny(t Type, values any) (*vector, error) {
	if vv, ok := values.([]Value); ok {
		out := newVector(t, len(vv))
		for i, val := range vv {
			cv, err := val.ConvertTo(t)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if err := out.set(i, cv); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	raw, err := anySliceToAnys(values)
	if err != nil {
		return nil, err
	}
	out := newVector(t, len(raw))
	for i, elem := range raw {
		cv, err := NewValue(t, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err := out.set(i, cv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// anySliceToAnys flattens the supported raw slice kinds. byte slices are
// treated as character data, not as a string.
func anySliceToAnys(values any) ([]any, error) {
	switch s := values.(type) {
	case []any:
		return s, nil
	case []int:
		return box(s), nil
	case []int16:
		return box(s), nil
	case []int32:
		return box(s), nil
	case []int64:
		return box(s), nil
	case []uint:
		return box(s), nil
	case []uint16:
		return box(s), nil
	case []uint32:
		return box(s), nil
	case []uint64:
		return box(s), nil
	case []float32:
		return box(s), nil
	case []float64:
		return box(s), nil
	case []string:
		return box(s), nil
	case []byte:
		return box(s), nil
	default:
		return nil, fmt.Errorf("%w: unsupported sequence type %T", ErrWrongType, values)
	}
}

func box[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
