package sds

import "fmt"

// arrayData is the current payload of one array: a flat buffer plus the
// dimension sizes for this page. len(data) == product(dims) always.
type arrayData struct {
	dims []int32
	data *vector
	set  bool
}

// page holds the current page: one typed buffer per column, the current
// value of every parameter, and the current payload of every array.
// Only one page per dataset is in memory at a time.
type page struct {
	rows    int
	rowFlag []bool

	columns []*vector
	colSet  []bool
	colFlag []bool

	params   []Value
	paramSet []bool

	arrays []arrayData
}

// newPage allocates a page shaped by the layout, sized to the row hint.
func newPage(l *Layout, expectRows int) *page {
	if expectRows < 0 {
		expectRows = 0
	}
	p := &page{
		rows:     expectRows,
		rowFlag:  make([]bool, expectRows),
		columns:  make([]*vector, len(l.Columns)),
		colSet:   make([]bool, len(l.Columns)),
		colFlag:  make([]bool, len(l.Columns)),
		params:   make([]Value, len(l.Parameters)),
		paramSet: make([]bool, len(l.Parameters)),
		arrays:   make([]arrayData, len(l.Arrays)),
	}
	for i := range p.rowFlag {
		p.rowFlag[i] = true
	}
	for i, def := range l.Columns {
		p.columns[i] = newVector(def.Type, expectRows)
		p.colFlag[i] = true
	}
	for i, def := range l.Parameters {
		p.params[i] = zeroValue(def.Type)
	}
	for i, def := range l.Arrays {
		dims := make([]int32, def.Dimensions)
		p.arrays[i] = arrayData{dims: dims, data: newVector(def.Type, 0)}
	}
	return p
}

// clear resets all values and flags without touching the schema shape.
func (p *page) clear(l *Layout) {
	np := newPage(l, 0)
	*p = *np
}

// ensureRows grows row-indexed storage to hold at least n rows. New rows
// arrive flagged in.
func (p *page) ensureRows(n int) {
	if n <= p.rows {
		return
	}
	for len(p.rowFlag) < n {
		p.rowFlag = append(p.rowFlag, true)
	}
	for _, col := range p.columns {
		col.resize(n)
	}
	p.rows = n
}

// countRows returns the number of rows with the inclusion flag set.
func (p *page) countRows() int {
	n := 0
	for _, f := range p.rowFlag[:p.rows] {
		if f {
			n++
		}
	}
	return n
}

// includedRows returns the indices of flagged-in rows in order.
func (p *page) includedRows() []int {
	out := make([]int, 0, p.rows)
	for i := 0; i < p.rows; i++ {
		if p.rowFlag[i] {
			out = append(out, i)
		}
	}
	return out
}

// setArray validates the dimension vector against the definition and
// replaces the payload.
func (p *page) setArray(index int, def *Definition, data *vector, dims []int32) error {
	if int32(len(dims)) != def.Dimensions {
		return fmt.Errorf("%w: array %q declares %d dimension(s), got %d sizes",
			ErrDimensionMismatch, def.Name, def.Dimensions, len(dims))
	}
	want := 1
	for _, d := range dims {
		if d < 0 {
			return fmt.Errorf("%w: array %q: negative dimension size %d", ErrDimensionMismatch, def.Name, d)
		}
		want *= int(d)
	}
	if data.len() != want {
		return fmt.Errorf("%w: array %q: payload length %d != product of dimensions %d",
			ErrDimensionMismatch, def.Name, data.len(), want)
	}
	p.arrays[index] = arrayData{dims: append([]int32(nil), dims...), data: data, set: true}
	return nil
}

// dropColumn removes column storage at ordinal index.
func (p *page) dropColumn(index int) {
	p.columns = append(p.columns[:index], p.columns[index+1:]...)
	p.colSet = append(p.colSet[:index], p.colSet[index+1:]...)
	p.colFlag = append(p.colFlag[:index], p.colFlag[index+1:]...)
}

// dropParameter removes parameter storage at ordinal index.
func (p *page) dropParameter(index int) {
	p.params = append(p.params[:index], p.params[index+1:]...)
	p.paramSet = append(p.paramSet[:index], p.paramSet[index+1:]...)
}

// compactRows discards flagged-out rows, keeping buffer and flag lengths
// consistent. All surviving rows are flagged in.
func (p *page) compactRows() {
	keep := p.rowFlag[:p.rows]
	for _, col := range p.columns {
		col.compact(keep)
	}
	n := p.countRows()
	p.rowFlag = make([]bool, n)
	for i := range p.rowFlag {
		p.rowFlag[i] = true
	}
	p.rows = n
}
