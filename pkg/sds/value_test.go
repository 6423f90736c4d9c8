package sds

import (
	"errors"
	"math"
	"testing"
)

func TestTypeTagsMatchWireNumbering(t *testing.T) {
	t.Parallel()

	want := map[Type]int32{
		TypeDouble:    2,
		TypeFloat:     3,
		TypeLong64:    4,
		TypeUlong64:   5,
		TypeLong:      6,
		TypeUlong:     7,
		TypeShort:     8,
		TypeUshort:    9,
		TypeString:    10,
		TypeCharacter: 11,
	}
	for typ, tag := range want {
		if int32(typ) != tag {
			t.Fatalf("%s: tag %d want %d", typ, int32(typ), tag)
		}
	}
}

func TestIdentifyType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"double", "float", "long64", "ulong64", "long", "ulong", "short", "ushort", "string", "character"} {
		typ, err := IdentifyType(name)
		if err != nil {
			t.Fatalf("IdentifyType(%q): %v", name, err)
		}
		if typ.String() != name {
			t.Fatalf("IdentifyType(%q) = %s", name, typ)
		}
	}
	if _, err := IdentifyType("quadruple"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("unknown name: got %v want ErrInvalidType", err)
	}
}

func TestNumericConversionsUseCastSemantics(t *testing.T) {
	t.Parallel()

	v, err := DoubleValue(300.7).ConvertTo(TypeShort)
	if err != nil {
		t.Fatalf("double to short: %v", err)
	}
	if v.Int64() != 300 {
		t.Fatalf("truncation: got %d want 300", v.Int64())
	}

	v, err = LongValue(-1).ConvertTo(TypeUshort)
	if err != nil {
		t.Fatalf("long to ushort: %v", err)
	}
	if v.Uint64() != 65535 {
		t.Fatalf("wraparound: got %d want 65535", v.Uint64())
	}

	v, err = ShortValue(42).ConvertTo(TypeDouble)
	if err != nil {
		t.Fatalf("short to double: %v", err)
	}
	if v.Float64() != 42 {
		t.Fatalf("widening: got %v want 42", v.Float64())
	}
}

func TestStringNumericBoundary(t *testing.T) {
	t.Parallel()

	if _, err := StringValue("12").ConvertTo(TypeLong); !errors.Is(err, ErrWrongType) {
		t.Fatalf("string to long: got %v want ErrWrongType", err)
	}
	if _, err := LongValue(12).ConvertTo(TypeString); !errors.Is(err, ErrWrongType) {
		t.Fatalf("long to string: got %v want ErrWrongType", err)
	}

	// Characters cross both ways.
	v, err := CharacterValue('A').ConvertTo(TypeLong)
	if err != nil {
		t.Fatalf("char to long: %v", err)
	}
	if v.Int64() != 65 {
		t.Fatalf("char to long: got %d want 65", v.Int64())
	}
	v, err = CharacterValue('A').ConvertTo(TypeString)
	if err != nil {
		t.Fatalf("char to string: %v", err)
	}
	if v.String() != "A" {
		t.Fatalf("char to string: got %q", v.String())
	}
	v, err = StringValue("z").ConvertTo(TypeCharacter)
	if err != nil {
		t.Fatalf("single-char string to char: %v", err)
	}
	if v.mustChar() != 'z' {
		t.Fatalf("string to char: got %q", v.mustChar())
	}
	if _, err := StringValue("zz").ConvertTo(TypeCharacter); !errors.Is(err, ErrWrongType) {
		t.Fatalf("multi-char string to char: got %v want ErrWrongType", err)
	}
}

func TestFloatValueCanonicalizes(t *testing.T) {
	t.Parallel()

	raw := float32(0.1)
	v := FloatValue(raw)
	want := float64(canonicalFloat32(raw))
	if v.Float64() != want {
		t.Fatalf("canonical store: got %v want %v", v.Float64(), want)
	}
	// Canonicalization is a fixed point: a second pass changes nothing.
	again := FloatValue(float32(v.Float64()))
	if again.Float64() != v.Float64() {
		t.Fatalf("not idempotent: %v then %v", v.Float64(), again.Float64())
	}
	// Exact binary fractions pass through unchanged.
	if FloatValue(2.5).Float64() != 2.5 {
		t.Fatalf("exact fraction altered: %v", FloatValue(2.5).Float64())
	}
}

func TestNewValueCoercesRawGoScalars(t *testing.T) {
	t.Parallel()

	v, err := NewValue(TypeLong, 7)
	if err != nil {
		t.Fatalf("int into long: %v", err)
	}
	if v.Type != TypeLong || v.Int64() != 7 {
		t.Fatalf("int into long: got %v", v)
	}

	v, err = NewValue(TypeDouble, float32(1.5))
	if err != nil {
		t.Fatalf("float32 into double: %v", err)
	}
	if v.Float64() != 1.5 {
		t.Fatalf("float32 into double: got %v", v.Float64())
	}

	v, err = NewValue(TypeCharacter, "x")
	if err != nil {
		t.Fatalf("string into character: %v", err)
	}
	if v.mustChar() != 'x' {
		t.Fatalf("string into character: got %q", v.mustChar())
	}

	if _, err := NewValue(TypeLong, struct{}{}); !errors.Is(err, ErrWrongType) {
		t.Fatalf("unsupported kind: got %v want ErrWrongType", err)
	}
}

func TestValueEqual(t *testing.T) {
	t.Parallel()

	if !LongValue(5).Equal(LongValue(5)) {
		t.Fatal("equal longs differ")
	}
	if LongValue(5).Equal(Long64Value(5)) {
		t.Fatal("different types compare equal")
	}
	if StringValue("a").Equal(StringValue("b")) {
		t.Fatal("different strings compare equal")
	}
}

func TestFloatToIntegerConversionIsPinnedDown(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   float64
		to   Type
		want uint64
	}{
		{"negative one to ushort", -1, TypeUshort, 65535},
		{"negative truncates first", -2.9, TypeUlong64, ^uint64(1)},
		{"nan to ulong64", math.NaN(), TypeUlong64, 0},
		{"nan to long64", math.NaN(), TypeLong64, 0},
		{"overflow saturates unsigned", 1e30, TypeUlong64, math.MaxUint64},
		{"overflow saturates signed", 1e30, TypeLong64, math.MaxInt64},
		{"underflow saturates signed", -1e30, TypeLong64, 1 << 63},
	}
	for _, tc := range cases {
		v, err := DoubleValue(tc.in).ConvertTo(tc.to)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got := v.Uint64()
		if tc.to == TypeLong64 {
			got = uint64(v.Int64())
		}
		if got != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}
