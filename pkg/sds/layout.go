package sds

import "fmt"

// Encoding selects the on-disk page representation.
type Encoding int32

const (
	EncodingBinary Encoding = 1
	EncodingText   Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case EncodingBinary:
		return "binary"
	case EncodingText:
		return "ascii"
	default:
		return "encoding(?)"
	}
}

// DataMode carries the dataset-level framing and encoding flags written in
// the &data header entry.
type DataMode struct {
	Encoding    Encoding
	LinesPerRow int32
	// NoRowCounts frames text pages without a leading row count; pages
	// then end at a blank line.
	NoRowCounts bool
	// ColumnMajor stores column buffers contiguously instead of
	// interleaved rows.
	ColumnMajor bool
	// FixedRowCount reserves the row count field so it can be patched in
	// place by appending writers.
	FixedRowCount bool
	// FSync forces every page write durable before returning.
	FSync bool
}

// Layout is the schema of a dataset: its description and the ordered
// parameter, array and column definitions. Definition order assigns the
// stable ordinal index used by every by-index operation.
type Layout struct {
	Description string
	Contents    string
	Mode        DataMode

	Parameters []Definition
	Arrays     []Definition
	Columns    []Definition
}

func newLayout() Layout {
	return Layout{Mode: DataMode{Encoding: EncodingText, LinesPerRow: 1}}
}

// defs returns the definition list for kind.
func (l *Layout) defs(kind Kind) *[]Definition {
	switch kind {
	case KindParameter:
		return &l.Parameters
	case KindArray:
		return &l.Arrays
	default:
		return &l.Columns
	}
}

// indexOf returns the ordinal of name within kind, or -1.
func (l *Layout) indexOf(kind Kind, name string) int {
	for i, def := range *l.defs(kind) {
		if def.Name == name {
			return i
		}
	}
	return -1
}

// define validates def and appends it, returning the new ordinal.
func (l *Layout) define(kind Kind, def Definition) (int32, error) {
	if err := def.validate(kind); err != nil {
		return -1, err
	}
	if l.indexOf(kind, def.Name) >= 0 {
		return -1, fmt.Errorf("%w: %s %q already defined", ErrNameInvalid, kind, def.Name)
	}
	list := l.defs(kind)
	*list = append(*list, def)
	return int32(len(*list) - 1), nil
}

// remove deletes the definition at ordinal index, shifting later ordinals
// down by one.
func (l *Layout) remove(kind Kind, index int) error {
	list := l.defs(kind)
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("%w: %s index %d", ErrNotFound, kind, index)
	}
	*list = append((*list)[:index], (*list)[index+1:]...)
	return nil
}

// names returns all definition names of kind in ordinal order.
func (l *Layout) names(kind Kind) []string {
	list := *l.defs(kind)
	out := make([]string, len(list))
	for i, def := range list {
		out[i] = def.Name
	}
	return out
}

// clone deep-copies the layout.
func (l *Layout) clone() Layout {
	out := *l
	out.Parameters = append([]Definition(nil), l.Parameters...)
	out.Arrays = append([]Definition(nil), l.Arrays...)
	out.Columns = append([]Definition(nil), l.Columns...)
	return out
}
