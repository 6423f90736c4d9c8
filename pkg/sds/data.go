package sds

import "fmt"

// StartPage begins a fresh page sized to expectRows. The hint only sizes
// the initial allocation; row storage grows on demand.
func (d *Dataset) StartPage(expectRows int32) error {
	if err := d.requireState(StateOutput, StateAppend); err != nil {
		return d.fail(err)
	}
	if d.autoCheck {
		if err := d.CheckDataset("StartPage"); err != nil {
			return err
		}
	}
	d.page = newPage(&d.layout, int(expectRows))
	return nil
}

// ClearPage resets the current page's contents without touching the
// schema.
func (d *Dataset) ClearPage() error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	d.page.clear(&d.layout)
	return nil
}

// LengthenTable extends the current page's row storage by n rows. The
// added rows arrive flagged in and unset.
func (d *Dataset) LengthenTable(n int32) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	if n < 0 {
		return d.failf(ErrDimensionMismatch, "cannot lengthen by %d rows", n)
	}
	d.page.ensureRows(d.page.rows + int(n))
	return nil
}

// RowCount returns the number of rows with the inclusion flag set, or -1
// when no page has been started or read. Zero is a valid row count.
func (d *Dataset) RowCount() int64 {
	if d.page == nil {
		return -1
	}
	return int64(d.page.countRows())
}

// SetColumn replaces a column's entire buffer. values may be a []Value or
// any supported raw Go slice; each element is coerced to the column's
// scalar type. The length must match the page's row count, except on a
// page with no rows yet, which adopts it.
func (d *Dataset) SetColumn(ref Ref, values any) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	i, err := d.resolve(KindColumn, ref)
	if err != nil {
		return d.fail(err)
	}
	def := &d.layout.Columns[i]
	vec, err := fromAny(def.Type, values)
	if err != nil {
		return d.fail(fmt.Errorf("column %q: %w", def.Name, err))
	}
	if d.page.rows == 0 && vec.len() > 0 {
		d.page.ensureRows(vec.len())
	}
	if vec.len() != d.page.rows {
		return d.failf(ErrDimensionMismatch, "column %q: %d values for %d rows", def.Name, vec.len(), d.page.rows)
	}
	d.page.columns[i] = vec
	d.page.colSet[i] = true
	return nil
}

// SetParameter replaces the scalar value of one parameter in the current
// page.
func (d *Dataset) SetParameter(ref Ref, value any) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	i, err := d.resolve(KindParameter, ref)
	if err != nil {
		return d.fail(err)
	}
	def := &d.layout.Parameters[i]
	v, err := NewValue(def.Type, value)
	if err != nil {
		return d.fail(fmt.Errorf("parameter %q: %w", def.Name, err))
	}
	d.page.params[i] = v
	d.page.paramSet[i] = true
	return nil
}

// SetArray replaces an array's payload and dimension sizes. The number of
// dimension sizes must equal the array's declared dimensionality and
// their product must equal the payload length.
func (d *Dataset) SetArray(ref Ref, values any, dims []int32) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	i, err := d.resolve(KindArray, ref)
	if err != nil {
		return d.fail(err)
	}
	def := &d.layout.Arrays[i]
	vec, err := fromAny(def.Type, values)
	if err != nil {
		return d.fail(fmt.Errorf("array %q: %w", def.Name, err))
	}
	if err := d.page.setArray(i, def, vec, dims); err != nil {
		return d.fail(err)
	}
	return nil
}

// SetRowValues sets several column cells of one row at once. Nothing is
// modified unless every value resolves and coerces, so a failed call
// leaves the row untouched. Rows beyond the current allocation grow the
// page.
func (d *Dataset) SetRowValues(row int64, values map[string]any) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	if row < 0 {
		return d.failf(ErrNotFound, "row %d", row)
	}
	type cell struct {
		col int
		val Value
	}
	cells := make([]cell, 0, len(values))
	for name, raw := range values {
		i, err := d.resolve(KindColumn, ByName(name))
		if err != nil {
			return d.fail(err)
		}
		v, err := NewValue(d.layout.Columns[i].Type, raw)
		if err != nil {
			return d.fail(fmt.Errorf("column %q: %w", name, err))
		}
		cells = append(cells, cell{col: i, val: v})
	}
	d.page.ensureRows(int(row) + 1)
	for _, c := range cells {
		if err := d.page.columns[c.col].set(int(row), c.val); err != nil {
			return d.fail(err)
		}
		d.page.colSet[c.col] = true
	}
	if d.state == StateAppendToPage && d.updateInterval > 0 &&
		d.page.countRows()-d.writtenRows >= int(d.updateInterval) {
		return d.rewriteLastPage(true)
	}
	return nil
}

// SetRowFlags sets every row's inclusion flag: nonzero includes, zero
// excludes. Excluded rows drop out of RowCount and page writes but stay
// allocated until DeleteUnsetRows.
func (d *Dataset) SetRowFlags(flag int32) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	for i := range d.page.rowFlag {
		d.page.rowFlag[i] = flag != 0
	}
	return nil
}

// SetRowFlag sets one row's inclusion flag.
func (d *Dataset) SetRowFlag(row int64, flag int32) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	if row < 0 || row >= int64(d.page.rows) {
		return d.failf(ErrNotFound, "row %d", row)
	}
	d.page.rowFlag[row] = flag != 0
	return nil
}

// GetRowFlag reads one row's inclusion flag as 0 or 1; -1 on error.
func (d *Dataset) GetRowFlag(row int64) (int32, error) {
	if d.page == nil {
		return -1, d.failf(ErrState, "no current page")
	}
	if row < 0 || row >= int64(d.page.rows) {
		return -1, d.failf(ErrNotFound, "row %d", row)
	}
	if d.page.rowFlag[row] {
		return 1, nil
	}
	return 0, nil
}

// SetColumnFlags sets every column's acceptance flag: nonzero accepts,
// zero marks the column droppable by DeleteUnsetColumns.
func (d *Dataset) SetColumnFlags(flag int32) error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	for i := range d.page.colFlag {
		d.page.colFlag[i] = flag != 0
	}
	return nil
}

// GetColumn returns all included rows of one column. A nil slice with a
// nil error means no page has been started or read yet; a page with zero
// included rows yields an empty non-nil slice.
func (d *Dataset) GetColumn(ref Ref) ([]Value, error) {
	i, err := d.resolve(KindColumn, ref)
	if err != nil {
		return nil, d.fail(err)
	}
	if d.page == nil {
		return nil, nil
	}
	rows := d.page.includedRows()
	out := make([]Value, 0, len(rows))
	for _, r := range rows {
		out = append(out, d.page.columns[i].get(r))
	}
	return out, nil
}

// GetArray returns an array's payload and its dimension-size vector. Both
// nil with a nil error means no page is present.
func (d *Dataset) GetArray(ref Ref) ([]Value, []int32, error) {
	i, err := d.resolve(KindArray, ref)
	if err != nil {
		return nil, nil, d.fail(err)
	}
	if d.page == nil {
		return nil, nil, nil
	}
	arr := d.page.arrays[i]
	return arr.data.values(), append([]int32(nil), arr.dims...), nil
}

// GetArrayDimensions returns just the dimension-size vector of an array.
func (d *Dataset) GetArrayDimensions(ref Ref) ([]int32, error) {
	_, dims, err := d.GetArray(ref)
	return dims, err
}

// GetParameter returns the current scalar value of one parameter. With no
// page present, a parameter with a fixed value yields that value; other
// parameters yield the zero Value with a nil error (the no-data signal).
func (d *Dataset) GetParameter(ref Ref) (Value, error) {
	i, err := d.resolve(KindParameter, ref)
	if err != nil {
		return Value{}, d.fail(err)
	}
	def := &d.layout.Parameters[i]
	if d.page == nil || !d.page.paramSet[i] {
		if def.FixedValue != "" {
			v, err := def.fixedValueScalar()
			if err != nil {
				return Value{}, d.fail(err)
			}
			return v, nil
		}
		if d.page == nil {
			return Value{}, nil
		}
	}
	return d.page.params[i], nil
}

// ApplyFactorToColumn multiplies every value of a numeric column in place.
func (d *Dataset) ApplyFactorToColumn(ref Ref, factor float64) error {
	i, err := d.resolve(KindColumn, ref)
	if err != nil {
		return d.fail(err)
	}
	def := &d.layout.Columns[i]
	if !def.Type.IsNumeric() {
		return d.failf(ErrWrongType, "column %q has type %s", def.Name, def.Type)
	}
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	col := d.page.columns[i]
	for r := 0; r < col.len(); r++ {
		scaled := DoubleValue(col.get(r).Float64() * factor)
		if err := col.set(r, scaled); err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// ApplyFactorToParameter multiplies a numeric parameter's value in place.
func (d *Dataset) ApplyFactorToParameter(ref Ref, factor float64) error {
	i, err := d.resolve(KindParameter, ref)
	if err != nil {
		return d.fail(err)
	}
	def := &d.layout.Parameters[i]
	if !def.Type.IsNumeric() {
		return d.failf(ErrWrongType, "parameter %q has type %s", def.Name, def.Type)
	}
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	scaled := DoubleValue(d.page.params[i].Float64() * factor)
	v, err := scaled.ConvertTo(def.Type)
	if err != nil {
		return d.fail(err)
	}
	d.page.params[i] = v
	return nil
}
