package sds

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/sds/internal/binaryio"
	"github.com/samcharles93/sds/internal/compress"
)

// UpdateMode selects what UpdatePage rewrites.
type UpdateMode int

const (
	// UpdateValues rewrites the current page's parameter, array and
	// column data in place, keeping the recorded row count: rows added
	// since the last write stay pending.
	UpdateValues UpdateMode = iota
	// UpdateFlushTable rewrites the page including rows added since the
	// last write, updating the row count metadata.
	UpdateFlushTable
)

// WritePage serializes the current page per the layout's data mode. For
// Output and Append sessions it appends a new page; for AppendToPage
// sessions it rewrites the file's last page in place with the rows added
// so far. With fsync enabled the call does not return until the page is
// on stable storage.
func (d *Dataset) WritePage() error {
	if err := d.requireState(StateOutput, StateAppend, StateAppendToPage); err != nil {
		return d.fail(err)
	}
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	if d.file == nil {
		return d.failf(ErrState, "memory-only session has no file")
	}
	if d.autoCheck {
		if err := d.CheckDataset("WritePage"); err != nil {
			return err
		}
	}
	if d.state == StateAppendToPage {
		return d.rewriteLastPage(true)
	}
	if !d.layoutWritten {
		if err := d.writeLayoutNow(); err != nil {
			return err
		}
	}
	if err := d.bw.Flush(); err != nil {
		return d.failf(ErrIO, "flushing %s: %v", d.path, err)
	}
	d.lastPageOffset = -1
	if d.codec == compress.CodecNone {
		off, err := d.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return d.failf(ErrIO, "locating page start in %s: %v", d.path, err)
		}
		d.lastPageOffset = off
	}
	d.pageCount++
	if err := d.writePageData(-1); err != nil {
		d.pageCount--
		return err
	}
	d.writtenRows = d.page.countRows()
	return d.flushPage()
}

// UpdatePage rewrites the current (last written) page in place rather
// than appending a new one. Only valid on uncompressed files after the
// page has reached the file at least once.
func (d *Dataset) UpdatePage(mode UpdateMode) error {
	if err := d.requireState(StateOutput, StateAppend, StateAppendToPage); err != nil {
		return d.fail(err)
	}
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	if mode != UpdateValues && mode != UpdateFlushTable {
		return d.failf(ErrState, "unknown update mode %d", mode)
	}
	return d.rewriteLastPage(mode == UpdateFlushTable)
}

// rewriteLastPage truncates the file at the current page's start and
// serializes the in-memory page again. The page being rewritten is
// always the file's last, so truncation cannot lose later pages. With
// flushCount unset only the rows already recorded on disk are written,
// leaving the row count unchanged.
func (d *Dataset) rewriteLastPage(flushCount bool) error {
	if d.codec != compress.CodecNone {
		return d.failf(ErrState, "cannot rewrite a page in a compressed file")
	}
	if d.lastPageOffset < 0 {
		return d.failf(ErrState, "page has not been written yet")
	}
	if err := d.bw.Flush(); err != nil {
		return d.failf(ErrIO, "flushing %s: %v", d.path, err)
	}
	if _, err := d.file.Seek(d.lastPageOffset, io.SeekStart); err != nil {
		return d.failf(ErrIO, "seeking in %s: %v", d.path, err)
	}
	if err := d.file.Truncate(d.lastPageOffset); err != nil {
		return d.failf(ErrIO, "truncating %s: %v", d.path, err)
	}
	d.zw = compress.NewWriter(d.file, compress.CodecNone)
	d.bw.Reset(d.zw)
	d.wr = binaryio.NewWriter(d.bw)
	limit := -1
	if !flushCount {
		limit = d.writtenRows
	}
	if err := d.writePageData(limit); err != nil {
		return err
	}
	if flushCount {
		d.writtenRows = d.page.countRows()
	}
	return d.flushPage()
}

func (d *Dataset) flushPage() error {
	if err := d.bw.Flush(); err != nil {
		return d.failf(ErrIO, "flushing %s: %v", d.path, err)
	}
	if err := d.zw.Flush(); err != nil {
		return d.failf(ErrIO, "flushing codec for %s: %v", d.path, err)
	}
	if d.layout.Mode.FSync {
		if err := d.file.Sync(); err != nil {
			return d.failf(ErrIO, "syncing %s: %v", d.path, err)
		}
	}
	return nil
}

// writePageData serializes the page. rowLimit caps the number of
// included rows written; negative means all of them.
func (d *Dataset) writePageData(rowLimit int) error {
	if d.layout.Mode.Encoding == EncodingBinary {
		return d.writeBinaryPage(rowLimit)
	}
	return d.writeTextPage(rowLimit)
}

func (d *Dataset) writeTextPage(rowLimit int) error {
	w := d.bw
	p := d.page
	if _, err := fmt.Fprintf(w, "! page number %d\n", d.pageCount); err != nil {
		return d.failf(ErrIO, "writing page: %v", err)
	}
	for i, def := range d.layout.Parameters {
		if def.FixedValue != "" {
			continue
		}
		if _, err := io.WriteString(w, textField(p.params[i])+"\n"); err != nil {
			return d.failf(ErrIO, "writing parameter %q: %v", def.Name, err)
		}
	}
	for i, def := range d.layout.Arrays {
		arr := p.arrays[i]
		dims := make([]string, len(arr.dims))
		for j, dim := range arr.dims {
			dims[j] = strconv.Itoa(int(dim))
		}
		if _, err := io.WriteString(w, strings.Join(dims, " ")+"\n"); err != nil {
			return d.failf(ErrIO, "writing array %q: %v", def.Name, err)
		}
		// A zero-element array has no payload line; a blank one would
		// terminate no-row-count pages early.
		if arr.data.len() > 0 {
			fields := make([]string, arr.data.len())
			for j := range fields {
				fields[j] = textField(arr.data.get(j))
			}
			if _, err := io.WriteString(w, strings.Join(fields, " ")+"\n"); err != nil {
				return d.failf(ErrIO, "writing array %q: %v", def.Name, err)
			}
		}
	}
	if len(d.layout.Columns) > 0 {
		rows := p.includedRows()
		if rowLimit >= 0 && rowLimit < len(rows) {
			rows = rows[:rowLimit]
		}
		if !d.layout.Mode.NoRowCounts {
			count := strconv.Itoa(len(rows))
			if d.layout.Mode.FixedRowCount {
				// Fixed-width so an in-place update cannot change the
				// field's byte length.
				count = fmt.Sprintf("%20d", len(rows))
			}
			if _, err := io.WriteString(w, count+"\n"); err != nil {
				return d.failf(ErrIO, "writing row count: %v", err)
			}
		}
		for _, r := range rows {
			fields := make([]string, len(p.columns))
			for c, col := range p.columns {
				fields[c] = textField(col.get(r))
			}
			if _, err := io.WriteString(w, strings.Join(fields, " ")+"\n"); err != nil {
				return d.failf(ErrIO, "writing row %d: %v", r, err)
			}
		}
		if d.layout.Mode.NoRowCounts {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return d.failf(ErrIO, "writing page terminator: %v", err)
			}
		}
	}
	return nil
}

func (d *Dataset) writeBinaryPage(rowLimit int) error {
	wr := d.wr
	p := d.page
	rows := p.includedRows()
	if rowLimit >= 0 && rowLimit < len(rows) {
		rows = rows[:rowLimit]
	}
	if err := wr.WriteI32(int32(len(rows))); err != nil {
		return d.failf(ErrIO, "writing row count: %v", err)
	}
	for i, def := range d.layout.Parameters {
		if def.FixedValue != "" {
			continue
		}
		if err := writeBinaryValue(wr, p.params[i]); err != nil {
			return d.failf(ErrIO, "writing parameter %q: %v", def.Name, err)
		}
	}
	for i, def := range d.layout.Arrays {
		arr := p.arrays[i]
		for _, dim := range arr.dims {
			if err := wr.WriteI32(dim); err != nil {
				return d.failf(ErrIO, "writing array %q: %v", def.Name, err)
			}
		}
		for j := 0; j < arr.data.len(); j++ {
			if err := writeBinaryValue(wr, arr.data.get(j)); err != nil {
				return d.failf(ErrIO, "writing array %q: %v", def.Name, err)
			}
		}
	}
	if d.layout.Mode.ColumnMajor {
		for c, col := range p.columns {
			for _, r := range rows {
				if err := writeBinaryValue(wr, col.get(r)); err != nil {
					return d.failf(ErrIO, "writing column %q: %v", d.layout.Columns[c].Name, err)
				}
			}
		}
		return nil
	}
	for _, r := range rows {
		for c, col := range p.columns {
			if err := writeBinaryValue(wr, col.get(r)); err != nil {
				return d.failf(ErrIO, "writing column %q: %v", d.layout.Columns[c].Name, err)
			}
		}
	}
	return nil
}

// writeBinaryValue encodes one scalar in the binary page encoding.
func writeBinaryValue(wr *binaryio.Writer, v Value) error {
	switch v.Type {
	case TypeShort:
		return wr.WriteI16(int16(v.i))
	case TypeUshort:
		return wr.WriteU16(uint16(v.u))
	case TypeLong:
		return wr.WriteI32(int32(v.i))
	case TypeUlong:
		return wr.WriteU32(uint32(v.u))
	case TypeLong64:
		return wr.WriteI64(v.i)
	case TypeUlong64:
		return wr.WriteU64(v.u)
	case TypeFloat:
		return wr.WriteF32(float32(v.f))
	case TypeDouble:
		return wr.WriteF64(v.f)
	case TypeCharacter:
		return wr.WriteU8(v.c)
	case TypeString:
		return wr.WriteString(v.s)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidType, int32(v.Type))
	}
}

// textField renders one scalar as a text-page field. Strings are always
// quoted; characters that would be ambiguous are octal-escaped.
func textField(v Value) string {
	switch v.Type {
	case TypeString:
		return quoteString(v.s)
	case TypeCharacter:
		return quoteCharacter(v.c)
	default:
		return v.String()
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func quoteCharacter(c byte) string {
	if c > 0x20 && c < 0x7f && c != '"' && c != '\\' && c != '!' {
		return string(c)
	}
	return fmt.Sprintf("\\%03o", c)
}
