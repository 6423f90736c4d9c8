package sds

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
)

// Kind distinguishes the three definition categories.
type Kind int

const (
	KindParameter Kind = iota
	KindArray
	KindColumn
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindArray:
		return "array"
	case KindColumn:
		return "column"
	default:
		return "kind(?)"
	}
}

// Definition describes one named parameter, array or column. FixedValue
// applies to parameters only; Dimensions and GroupName to arrays only;
// FieldLength to arrays and columns.
type Definition struct {
	Name         string
	Symbol       string
	Units        string
	Description  string
	FormatString string
	Type         Type

	FixedValue  string
	FieldLength int32
	Dimensions  int32
	GroupName   string
}

// relaxedNames, when set, disables the name character policy.
var relaxedNames atomic.Bool

// SetNameValidityFlags relaxes (true) or restores (false) the name
// character policy for the whole process.
func SetNameValidityFlags(allowAny bool) {
	relaxedNames.Store(allowAny)
}

// nameStartExtra and nameExtra are the punctuation admitted by the
// default policy, in addition to letters and (after the first rune)
// digits.
const (
	nameStartExtra = "@:#+%-._$&/"
	nameExtra      = "@:#+%-._$&/[]"
)

// IsValidName reports whether name passes the active validity policy.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	if relaxedNames.Load() {
		return !strings.ContainsAny(name, " \t\n\r")
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if unicode.IsLetter(r) {
			continue
		}
		if i == 0 {
			if !strings.ContainsRune(nameStartExtra, r) {
				return false
			}
			continue
		}
		if unicode.IsDigit(r) || strings.ContainsRune(nameExtra, r) {
			continue
		}
		return false
	}
	return true
}

// HasWhitespace reports whether s contains any whitespace rune.
func HasWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// StringIsBlank reports whether s is empty or all whitespace.
func StringIsBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

func (def *Definition) validate(kind Kind) error {
	if !IsValidName(def.Name) {
		return fmt.Errorf("%w: %s name %q", ErrNameInvalid, kind, def.Name)
	}
	if !def.Type.Valid() {
		return fmt.Errorf("%w: %s %q: %d", ErrInvalidType, kind, def.Name, int32(def.Type))
	}
	if kind == KindArray && def.Dimensions < 1 {
		return fmt.Errorf("%w: array %q: dimension count %d", ErrDimensionMismatch, def.Name, def.Dimensions)
	}
	if kind != KindParameter && def.FixedValue != "" {
		return fmt.Errorf("%w: %s %q carries a fixed value", ErrWrongType, kind, def.Name)
	}
	return nil
}

// fixedValueScalar parses a parameter's fixed value into its scalar type.
func (def *Definition) fixedValueScalar() (Value, error) {
	if def.FixedValue == "" {
		return Value{}, ErrNotFound
	}
	v, err := parseScalar(def.FixedValue, def.Type)
	if err != nil {
		return Value{}, fmt.Errorf("parameter %q fixed value: %w", def.Name, err)
	}
	return v, nil
}
