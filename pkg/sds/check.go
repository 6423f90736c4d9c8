package sds

// CheckDataset verifies the internal consistency of the session: layout
// and page shapes must agree, and every array payload must match the
// product of its dimension sizes. The caller tag names the operation
// being guarded and appears in diagnostics. With AutoCheckMode enabled
// this runs implicitly before page I/O.
func (d *Dataset) CheckDataset(tag string) error {
	if d.page == nil {
		return nil
	}
	p := d.page
	if len(p.columns) != len(d.layout.Columns) ||
		len(p.colSet) != len(d.layout.Columns) ||
		len(p.colFlag) != len(d.layout.Columns) {
		return d.failf(ErrFormatCorrupt, "%s: page has %d column buffers for %d definitions",
			tag, len(p.columns), len(d.layout.Columns))
	}
	if len(p.params) != len(d.layout.Parameters) {
		return d.failf(ErrFormatCorrupt, "%s: page has %d parameter values for %d definitions",
			tag, len(p.params), len(d.layout.Parameters))
	}
	if len(p.arrays) != len(d.layout.Arrays) {
		return d.failf(ErrFormatCorrupt, "%s: page has %d array payloads for %d definitions",
			tag, len(p.arrays), len(d.layout.Arrays))
	}
	if len(p.rowFlag) < p.rows {
		return d.failf(ErrFormatCorrupt, "%s: %d row flags for %d rows", tag, len(p.rowFlag), p.rows)
	}
	for i, col := range p.columns {
		if col.typ != d.layout.Columns[i].Type {
			return d.failf(ErrFormatCorrupt, "%s: column %q buffer type %s, declared %s",
				tag, d.layout.Columns[i].Name, col.typ, d.layout.Columns[i].Type)
		}
		if col.len() != p.rows {
			return d.failf(ErrFormatCorrupt, "%s: column %q has %d values for %d rows",
				tag, d.layout.Columns[i].Name, col.len(), p.rows)
		}
	}
	for i, def := range d.layout.Arrays {
		arr := p.arrays[i]
		if int32(len(arr.dims)) != def.Dimensions {
			return d.failf(ErrFormatCorrupt, "%s: array %q has %d dimension sizes, declared %d",
				tag, def.Name, len(arr.dims), def.Dimensions)
		}
		want := 1
		for _, dim := range arr.dims {
			want *= int(dim)
		}
		if arr.data.len() != want {
			return d.failf(ErrFormatCorrupt, "%s: array %q payload length %d, dimension product %d",
				tag, def.Name, arr.data.len(), want)
		}
	}
	return nil
}
