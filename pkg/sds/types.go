// Package sds implements a self-describing dataset engine: named, typed
// collections of parameters, arrays and tabular columns, persisted as a
// sequence of pages in a textual or binary encoding.
//
// A Dataset owns one open file and one current page. The schema (Layout)
// is written as a namelist header; pages follow, framed per the data mode.
package sds

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies one of the scalar kinds a definition or value may carry.
// The numeric values are part of the file format and must not change.
type Type int32

const (
	TypeDouble    Type = 2  // 64-bit float
	TypeFloat     Type = 3  // 32-bit float
	TypeLong64    Type = 4  // signed 64-bit integer
	TypeUlong64   Type = 5  // unsigned 64-bit integer
	TypeLong      Type = 6  // signed 32-bit integer
	TypeUlong     Type = 7  // unsigned 32-bit integer
	TypeShort     Type = 8  // signed 16-bit integer
	TypeUshort    Type = 9  // unsigned 16-bit integer
	TypeString    Type = 10 // variable-length string
	TypeCharacter Type = 11 // single character
)

// Valid reports whether t is one of the supported scalar kinds.
func (t Type) Valid() bool {
	return t >= TypeDouble && t <= TypeCharacter
}

// String returns the canonical type name used in file headers.
func (t Type) String() string {
	switch t {
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeLong64:
		return "long64"
	case TypeUlong64:
		return "ulong64"
	case TypeLong:
		return "long"
	case TypeUlong:
		return "ulong"
	case TypeShort:
		return "short"
	case TypeUshort:
		return "ushort"
	case TypeString:
		return "string"
	case TypeCharacter:
		return "character"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

// Size returns the storage size in bytes of one value of type t.
// Strings report the size of a pointer-sized reference, matching the
// in-memory accounting of the original library.
func (t Type) Size() (int, error) {
	switch t {
	case TypeDouble, TypeLong64, TypeUlong64:
		return 8, nil
	case TypeFloat, TypeLong, TypeUlong:
		return 4, nil
	case TypeShort, TypeUshort:
		return 2, nil
	case TypeCharacter:
		return 1, nil
	case TypeString:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidType, int32(t))
	}
}

// IdentifyType recovers a type tag from its canonical name.
func IdentifyType(name string) (Type, error) {
	switch name {
	case "double":
		return TypeDouble, nil
	case "float":
		return TypeFloat, nil
	case "long64":
		return TypeLong64, nil
	case "ulong64":
		return TypeUlong64, nil
	case "long":
		return TypeLong, nil
	case "ulong":
		return TypeUlong, nil
	case "short":
		return TypeShort, nil
	case "ushort":
		return TypeUshort, nil
	case "string":
		return TypeString, nil
	case "character":
		return TypeCharacter, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidType, name)
	}
}

// IsNumeric reports whether t is an integer or floating-point kind.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeDouble, TypeFloat, TypeLong64, TypeUlong64, TypeLong, TypeUlong, TypeShort, TypeUshort:
		return true
	}
	return false
}

// IsInteger reports whether t is one of the six integer kinds.
func (t Type) IsInteger() bool {
	switch t {
	case TypeLong64, TypeUlong64, TypeLong, TypeUlong, TypeShort, TypeUshort:
		return true
	}
	return false
}

// IsFloat reports whether t is a floating-point kind.
func (t Type) IsFloat() bool {
	return t == TypeDouble || t == TypeFloat
}

// canonicalFloat32 rounds v through the fixed-precision scientific text
// form used by the text encoding. Single-precision values always take
// this path before storage and on read, so binary and text modes agree.
func canonicalFloat32(v float32) float32 {
	s := strconv.FormatFloat(float64(v), 'E', 6, 64)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return v
	}
	return float32(f)
}

// formatScalar renders a value of type t as text. An empty format string
// selects the type default: decimal for integers, %.6E for single
// precision, full round-trip precision for double.
func formatScalar(v Value, format string) (string, error) {
	if format != "" {
		return formatWith(v, format)
	}
	switch v.Type {
	case TypeDouble:
		return strconv.FormatFloat(v.mustFloat(), 'E', 15, 64), nil
	case TypeFloat:
		return strconv.FormatFloat(v.mustFloat(), 'E', 6, 64), nil
	case TypeLong64, TypeLong, TypeShort:
		return strconv.FormatInt(v.mustInt(), 10), nil
	case TypeUlong64, TypeUlong, TypeUshort:
		return strconv.FormatUint(v.mustUint(), 10), nil
	case TypeString:
		return v.mustString(), nil
	case TypeCharacter:
		return string(v.mustChar()), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidType, int32(v.Type))
	}
}

// formatWith applies a caller-supplied C-style format string. Length
// modifiers (h, l, ll) are accepted and discarded.
func formatWith(v Value, format string) (string, error) {
	verb := sanitizeFormat(format)
	switch v.Type {
	case TypeDouble, TypeFloat:
		return fmt.Sprintf(verb, v.mustFloat()), nil
	case TypeLong64, TypeLong, TypeShort:
		return fmt.Sprintf(verb, v.mustInt()), nil
	case TypeUlong64, TypeUlong, TypeUshort:
		return fmt.Sprintf(verb, v.mustUint()), nil
	case TypeString:
		return fmt.Sprintf(verb, v.mustString()), nil
	case TypeCharacter:
		return fmt.Sprintf(verb, v.mustChar()), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidType, int32(v.Type))
	}
}

// sanitizeFormat strips the C length modifiers that Go's fmt does not
// understand and maps the integer verbs onto %d.
func sanitizeFormat(format string) string {
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte(c)
		i++
		// flags, width, precision
		for i < len(format) && strings.IndexByte("+- #0.123456789", format[i]) >= 0 {
			sb.WriteByte(format[i])
			i++
		}
		// length modifiers
		for i < len(format) && (format[i] == 'h' || format[i] == 'l') {
			i++
		}
		if i < len(format) {
			switch format[i] {
			case 'i', 'u':
				sb.WriteByte('d')
			default:
				sb.WriteByte(format[i])
			}
		}
	}
	return sb.String()
}

// parseScalar is the inverse of formatScalar for text-mode reads.
func parseScalar(text string, t Type) (Value, error) {
	switch t {
	case TypeDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: parsing %q as double: %v", ErrFormatCorrupt, text, err)
		}
		return DoubleValue(f), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: parsing %q as float: %v", ErrFormatCorrupt, text, err)
		}
		return FloatValue(float32(f)), nil
	case TypeLong64, TypeLong, TypeShort:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: parsing %q as %s: %v", ErrFormatCorrupt, text, t, err)
		}
		return intValue(t, i), nil
	case TypeUlong64, TypeUlong, TypeUshort:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: parsing %q as %s: %v", ErrFormatCorrupt, text, t, err)
		}
		return uintValue(t, u), nil
	case TypeString:
		return StringValue(text), nil
	case TypeCharacter:
		if len(text) == 0 {
			return Value{}, fmt.Errorf("%w: empty character field", ErrFormatCorrupt)
		}
		return CharacterValue(text[0]), nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, int32(t))
	}
}
