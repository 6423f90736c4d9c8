package sds

import "fmt"

// CopyMode selects how InitializeCopy binds the new session to a file.
type CopyMode string

const (
	// CopyModeRead opens the file for page reads.
	CopyModeRead CopyMode = "r"
	// CopyModeWrite creates the file for page writes, keeping the
	// source's encoding.
	CopyModeWrite CopyMode = "w"
	// CopyModeReadBinary opens the file for reads; the header still
	// decides the actual encoding.
	CopyModeReadBinary CopyMode = "rb"
	// CopyModeWriteBinary creates the file for binary page writes.
	CopyModeWriteBinary CopyMode = "wb"
	// CopyModeMemory copies the layout only; the session holds pages in
	// memory and never touches a file.
	CopyModeMemory CopyMode = "m"
)

// InitializeCopy binds this closed dataset to a new file (or none, in
// memory mode) with a layout copied from src.
func (d *Dataset) InitializeCopy(src *Dataset, path string, mode CopyMode) error {
	if err := d.requireState(StateClosed); err != nil {
		return d.fail(err)
	}
	switch mode {
	case CopyModeRead, CopyModeReadBinary:
		return d.InitializeInput(path)
	case CopyModeWrite, CopyModeWriteBinary:
		enc := src.layout.Mode.Encoding
		if mode == CopyModeWriteBinary {
			enc = EncodingBinary
		}
		if err := d.InitializeOutput(path, enc, src.layout.Mode.LinesPerRow,
			src.layout.Description, src.layout.Contents); err != nil {
			return err
		}
		return d.CopyLayout(src)
	case CopyModeMemory:
		if err := d.InitializeOutput("", src.layout.Mode.Encoding, src.layout.Mode.LinesPerRow,
			src.layout.Description, src.layout.Contents); err != nil {
			return err
		}
		return d.CopyLayout(src)
	default:
		return d.failf(ErrState, "unknown copy mode %q", mode)
	}
}

// CopyLayout replaces this dataset's definitions with a copy of src's,
// keeping this dataset's data-mode flags.
func (d *Dataset) CopyLayout(src *Dataset) error {
	if err := d.canDefine(); err != nil {
		return d.fail(err)
	}
	mode := d.layout.Mode
	d.layout = src.layout.clone()
	d.layout.Mode = mode
	d.page = nil
	return nil
}

// AppendLayout merges src's definitions into this dataset's layout,
// keeping existing definitions on name collision.
func (d *Dataset) AppendLayout(src *Dataset) error {
	if err := d.TransferAllParameterDefinitions(src, TransferKeepOld); err != nil {
		return err
	}
	if err := d.TransferAllArrayDefinitions(src, TransferKeepOld); err != nil {
		return err
	}
	return d.TransferAllColumnDefinitions(src, TransferKeepOld)
}

// CopyPage copies src's current page in full: parameters, arrays and all
// included column rows, matched by definition name.
func (d *Dataset) CopyPage(src *Dataset) error {
	if src.page == nil {
		return d.failf(ErrState, "source has no current page")
	}
	d.page = newPage(&d.layout, src.page.countRows())
	if err := d.CopyParameters(src); err != nil {
		return err
	}
	if err := d.CopyArrays(src); err != nil {
		return err
	}
	return d.CopyColumns(src)
}

// CopyParameters copies the current value of every parameter this
// dataset shares (by name) with src, coercing across numeric types.
func (d *Dataset) CopyParameters(src *Dataset) error {
	if src.page == nil || d.page == nil {
		return d.failf(ErrState, "both sessions need a current page")
	}
	for i, def := range d.layout.Parameters {
		j := src.layout.indexOf(KindParameter, def.Name)
		if j < 0 || !src.page.paramSet[j] {
			continue
		}
		v, err := src.page.params[j].ConvertTo(def.Type)
		if err != nil {
			return d.fail(fmt.Errorf("parameter %q: %w", def.Name, err))
		}
		d.page.params[i] = v
		d.page.paramSet[i] = true
	}
	return nil
}

// CopyArrays copies every array this dataset shares (by name) with src.
// Declared dimensionalities must agree.
func (d *Dataset) CopyArrays(src *Dataset) error {
	if src.page == nil || d.page == nil {
		return d.failf(ErrState, "both sessions need a current page")
	}
	for i := range d.layout.Arrays {
		def := &d.layout.Arrays[i]
		j := src.layout.indexOf(KindArray, def.Name)
		if j < 0 || !src.page.arrays[j].set {
			continue
		}
		arr := src.page.arrays[j]
		vec := newVector(def.Type, arr.data.len())
		for k := 0; k < arr.data.len(); k++ {
			if err := vec.set(k, arr.data.get(k)); err != nil {
				return d.fail(fmt.Errorf("array %q: %w", def.Name, err))
			}
		}
		if err := d.page.setArray(i, def, vec, arr.dims); err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// CopyColumns copies the included rows of every column this dataset
// shares (by name) with src. The target page adopts src's included row
// count.
func (d *Dataset) CopyColumns(src *Dataset) error {
	if src.page == nil || d.page == nil {
		return d.failf(ErrState, "both sessions need a current page")
	}
	rows := src.page.includedRows()
	d.page.ensureRows(len(rows))
	for i, def := range d.layout.Columns {
		j := src.layout.indexOf(KindColumn, def.Name)
		if j < 0 || !src.page.colSet[j] {
			continue
		}
		for r, sr := range rows {
			if err := d.page.columns[i].set(r, src.page.columns[j].get(sr)); err != nil {
				return d.fail(fmt.Errorf("column %q: %w", def.Name, err))
			}
		}
		d.page.colSet[i] = true
	}
	return nil
}

// CopyRow copies one row's column values from src, matching columns by
// name and coercing types. The target row grows the page if needed.
func (d *Dataset) CopyRow(targetRow int64, src *Dataset, sourceRow int64) error {
	if src.page == nil || d.page == nil {
		return d.failf(ErrState, "both sessions need a current page")
	}
	if sourceRow < 0 || sourceRow >= int64(src.page.rows) {
		return d.failf(ErrNotFound, "source row %d", sourceRow)
	}
	if targetRow < 0 {
		return d.failf(ErrNotFound, "target row %d", targetRow)
	}
	d.page.ensureRows(int(targetRow) + 1)
	for i, def := range d.layout.Columns {
		j := src.layout.indexOf(KindColumn, def.Name)
		if j < 0 {
			continue
		}
		if err := d.page.columns[i].set(int(targetRow), src.page.columns[j].get(int(sourceRow))); err != nil {
			return d.fail(fmt.Errorf("column %q: %w", def.Name, err))
		}
		d.page.colSet[i] = true
	}
	return nil
}

// CopyRowDirect copies one row by ordinal position without coercion.
// Every column pair at the same ordinal must carry the same scalar type;
// otherwise it fails with ErrTypeMismatch and the target row is left
// unmodified.
func (d *Dataset) CopyRowDirect(targetRow int64, src *Dataset, sourceRow int64) error {
	if src.page == nil || d.page == nil {
		return d.failf(ErrState, "both sessions need a current page")
	}
	if len(d.layout.Columns) != len(src.layout.Columns) {
		return d.failf(ErrTypeMismatch, "column counts differ: %d vs %d",
			len(d.layout.Columns), len(src.layout.Columns))
	}
	for i := range d.layout.Columns {
		if d.layout.Columns[i].Type != src.layout.Columns[i].Type {
			return d.failf(ErrTypeMismatch, "column %d: %s vs %s",
				i, d.layout.Columns[i].Type, src.layout.Columns[i].Type)
		}
	}
	if sourceRow < 0 || sourceRow >= int64(src.page.rows) {
		return d.failf(ErrNotFound, "source row %d", sourceRow)
	}
	if targetRow < 0 {
		return d.failf(ErrNotFound, "target row %d", targetRow)
	}
	d.page.ensureRows(int(targetRow) + 1)
	for i := range d.layout.Columns {
		if err := d.page.columns[i].setDirect(int(targetRow), src.page.columns[i].get(int(sourceRow))); err != nil {
			return d.fail(err)
		}
		d.page.colSet[i] = true
	}
	return nil
}

// CopyAdditionalRows appends all of src's included rows after this
// dataset's existing rows, matching columns by name.
func (d *Dataset) CopyAdditionalRows(src *Dataset) error {
	if src.page == nil || d.page == nil {
		return d.failf(ErrState, "both sessions need a current page")
	}
	have := d.page.rows
	rows := src.page.includedRows()
	for k, sr := range rows {
		if err := d.CopyRow(int64(have+k), src, int64(sr)); err != nil {
			return err
		}
	}
	return nil
}
