package sds

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/sds/internal/binaryio"
)

// maxArrayElements bounds the element count of a single stored array.
// A larger dimension product is treated as stream corruption rather
// than an allocation request.
const maxArrayElements = 1 << 28

// ReadPage advances to the next page. It returns the 1-based page number
// on success, 0 on error (with the cause both returned and recorded on
// the error stack), or -1 with a nil error at a clean end of file.
func (d *Dataset) ReadPage() (int32, error) {
	return d.readPage(1, 0, 0)
}

// ReadPageSparse reads the next page keeping one row out of every
// interval, starting at offset.
func (d *Dataset) ReadPageSparse(interval, offset int32) (int32, error) {
	if interval < 1 {
		return 0, d.failf(ErrState, "sparse interval %d", interval)
	}
	if offset < 0 {
		return 0, d.failf(ErrState, "sparse offset %d", offset)
	}
	return d.readPage(interval, offset, 0)
}

// ReadPageLastRows reads the next page keeping only its final n rows.
func (d *Dataset) ReadPageLastRows(n int32) (int32, error) {
	if n < 0 {
		return 0, d.failf(ErrState, "last rows %d", n)
	}
	return d.readPage(1, 0, n)
}

func (d *Dataset) readPage(interval, offset, lastRows int32) (int32, error) {
	if err := d.requireState(StateInput); err != nil {
		return 0, d.fail(err)
	}
	pg, err := d.readPageData(interval, offset, lastRows)
	if err == io.EOF {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	d.page = pg
	d.pageCount++
	return d.pageCount, nil
}

// readPageData parses one page from the input stream, then applies the
// sparse/last-rows row selection. It returns io.EOF only when the stream
// ends cleanly before the page starts.
func (d *Dataset) readPageData(interval, offset, lastRows int32) (*page, error) {
	var (
		pg  *page
		err error
	)
	if d.layout.Mode.Encoding == EncodingBinary {
		pg, err = d.readBinaryPage()
	} else {
		pg, err = d.readTextPage()
	}
	if err != nil {
		return nil, err
	}
	if lastRows > 0 {
		for i := 0; i < pg.rows-int(lastRows); i++ {
			pg.rowFlag[i] = false
		}
		pg.compactRows()
	} else if interval > 1 {
		for i := 0; i < pg.rows; i++ {
			pg.rowFlag[i] = i >= int(offset) && (i-int(offset))%int(interval) == 0
		}
		pg.compactRows()
	}
	return pg, nil
}

// fillFixedValues populates parameters that carry a fixed value; those
// are not present in the file.
func (d *Dataset) fillFixedValues(pg *page) error {
	for i := range d.layout.Parameters {
		def := &d.layout.Parameters[i]
		if def.FixedValue == "" {
			continue
		}
		v, err := def.fixedValueScalar()
		if err != nil {
			return d.fail(fmt.Errorf("%w: %v", ErrFormatCorrupt, err))
		}
		pg.params[i] = v
		pg.paramSet[i] = true
	}
	return nil
}

func (d *Dataset) readBinaryPage() (*page, error) {
	rd := d.rd
	nrows, err := rd.ReadI32()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, d.failf(ErrFormatCorrupt, "reading row count: %v", err)
	}
	if nrows < 0 {
		return nil, d.failf(ErrFormatCorrupt, "negative row count %d", nrows)
	}
	pg := newPage(&d.layout, int(nrows))
	if err := d.fillFixedValues(pg); err != nil {
		return nil, err
	}
	for i, def := range d.layout.Parameters {
		if def.FixedValue != "" {
			continue
		}
		v, err := readBinaryValue(rd, def.Type)
		if err != nil {
			return nil, d.failf(ErrFormatCorrupt, "reading parameter %q: %v", def.Name, err)
		}
		pg.params[i] = v
		pg.paramSet[i] = true
	}
	for i, def := range d.layout.Arrays {
		dims := make([]int32, def.Dimensions)
		total := int64(1)
		for j := range dims {
			dim, err := rd.ReadI32()
			if err != nil {
				return nil, d.failf(ErrFormatCorrupt, "reading array %q dimensions: %v", def.Name, err)
			}
			if dim < 0 {
				return nil, d.failf(ErrFormatCorrupt, "array %q: negative dimension %d", def.Name, dim)
			}
			dims[j] = dim
			total *= int64(dim)
			if total > maxArrayElements {
				return nil, d.failf(ErrFormatCorrupt, "array %q: element count %d out of range", def.Name, total)
			}
		}
		vec := newVector(def.Type, int(total))
		for j := 0; j < int(total); j++ {
			v, err := readBinaryValue(rd, def.Type)
			if err != nil {
				return nil, d.failf(ErrFormatCorrupt, "reading array %q: %v", def.Name, err)
			}
			if err := vec.set(j, v); err != nil {
				return nil, d.fail(err)
			}
		}
		pg.arrays[i] = arrayData{dims: dims, data: vec, set: true}
	}
	readCell := func(r, c int) error {
		v, err := readBinaryValue(rd, d.layout.Columns[c].Type)
		if err != nil {
			return d.failf(ErrFormatCorrupt, "reading column %q row %d: %v", d.layout.Columns[c].Name, r, err)
		}
		return pg.columns[c].set(r, v)
	}
	if d.layout.Mode.ColumnMajor {
		for c := range d.layout.Columns {
			for r := 0; r < int(nrows); r++ {
				if err := readCell(r, c); err != nil {
					return nil, err
				}
			}
		}
	} else {
		for r := 0; r < int(nrows); r++ {
			for c := range d.layout.Columns {
				if err := readCell(r, c); err != nil {
					return nil, err
				}
			}
		}
	}
	for i := range pg.colSet {
		pg.colSet[i] = true
	}
	return pg, nil
}

func (d *Dataset) readTextPage() (*page, error) {
	first := true
	// nextLine returns the next non-comment line. Blank lines are
	// skipped between items; inside the row section they terminate
	// no-row-count pages, so rows are read directly below.
	nextLine := func() (string, error) {
		for {
			line, err := d.br.ReadString('\n')
			if err == io.EOF && line == "" {
				if first {
					return "", io.EOF
				}
				return "", d.failf(ErrFormatCorrupt, "unexpected end of file inside page")
			}
			if err != nil && err != io.EOF {
				return "", d.failf(ErrIO, "reading page: %v", err)
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "!") {
				continue
			}
			first = false
			return trimmed, nil
		}
	}
	// collect gathers n fields, consuming as many lines as needed.
	collect := func(n int) ([]string, error) {
		fields := make([]string, 0, n)
		for len(fields) < n {
			line, err := nextLine()
			if err != nil {
				return nil, err
			}
			fs, err := splitTextFields(line)
			if err != nil {
				return nil, d.failf(ErrFormatCorrupt, "parsing page line: %v", err)
			}
			fields = append(fields, fs...)
		}
		if len(fields) != n {
			return nil, d.failf(ErrFormatCorrupt, "expected %d fields, got %d", n, len(fields))
		}
		return fields, nil
	}

	pg := newPage(&d.layout, 0)
	if err := d.fillFixedValues(pg); err != nil {
		return nil, err
	}
	for i, def := range d.layout.Parameters {
		if def.FixedValue != "" {
			continue
		}
		fields, err := collect(1)
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		v, err := parseTextField(fields[0], def.Type)
		if err != nil {
			return nil, d.fail(fmt.Errorf("parameter %q: %w", def.Name, err))
		}
		pg.params[i] = v
		pg.paramSet[i] = true
	}
	for i, def := range d.layout.Arrays {
		dimFields, err := collect(int(def.Dimensions))
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		dims := make([]int32, def.Dimensions)
		total := int64(1)
		for j, f := range dimFields {
			n, perr := strconv.ParseInt(f, 10, 32)
			if perr != nil || n < 0 {
				return nil, d.failf(ErrFormatCorrupt, "array %q: dimension %q", def.Name, f)
			}
			dims[j] = int32(n)
			total *= n
			if total > maxArrayElements {
				return nil, d.failf(ErrFormatCorrupt, "array %q: element count %d out of range", def.Name, total)
			}
		}
		fields, err := collect(int(total))
		if err != nil {
			return nil, err
		}
		vec := newVector(def.Type, int(total))
		for j, f := range fields {
			v, perr := parseTextField(f, def.Type)
			if perr != nil {
				return nil, d.fail(fmt.Errorf("array %q: %w", def.Name, perr))
			}
			if err := vec.set(j, v); err != nil {
				return nil, d.fail(err)
			}
		}
		pg.arrays[i] = arrayData{dims: dims, data: vec, set: true}
	}
	if len(d.layout.Columns) == 0 {
		if first {
			return nil, io.EOF
		}
		return pg, nil
	}
	if d.layout.Mode.NoRowCounts {
		if err := d.readUncountedRows(pg, &first); err != nil {
			return nil, err
		}
	} else {
		countFields, err := collect(1)
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		n, perr := strconv.ParseInt(countFields[0], 10, 32)
		if perr != nil || n < 0 {
			return nil, d.failf(ErrFormatCorrupt, "row count %q", countFields[0])
		}
		pg.ensureRows(int(n))
		for r := 0; r < int(n); r++ {
			fields, err := collect(len(d.layout.Columns))
			if err != nil {
				return nil, err
			}
			if err := d.fillRow(pg, r, fields); err != nil {
				return nil, err
			}
		}
	}
	for i := range pg.colSet {
		pg.colSet[i] = true
	}
	return pg, nil
}

// readUncountedRows reads rows until a blank line or end of file. Each
// line holds one complete row.
func (d *Dataset) readUncountedRows(pg *page, first *bool) error {
	r := 0
	for {
		line, err := d.br.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if err == io.EOF {
				if *first && r == 0 {
					return io.EOF
				}
				return nil
			}
			if err != nil {
				return d.failf(ErrIO, "reading page: %v", err)
			}
			if r > 0 || !*first {
				return nil
			}
			continue
		}
		*first = false
		if strings.HasPrefix(trimmed, "!") {
			continue
		}
		fields, ferr := splitTextFields(trimmed)
		if ferr != nil {
			return d.failf(ErrFormatCorrupt, "parsing row: %v", ferr)
		}
		if len(fields) != len(d.layout.Columns) {
			return d.failf(ErrFormatCorrupt, "row %d: expected %d fields, got %d", r, len(d.layout.Columns), len(fields))
		}
		pg.ensureRows(r + 1)
		if err := d.fillRow(pg, r, fields); err != nil {
			return err
		}
		r++
		if err == io.EOF {
			return nil
		}
	}
}

func (d *Dataset) fillRow(pg *page, row int, fields []string) error {
	for c, def := range d.layout.Columns {
		v, err := parseTextField(fields[c], def.Type)
		if err != nil {
			return d.fail(fmt.Errorf("column %q row %d: %w", def.Name, row, err))
		}
		if err := pg.columns[c].set(row, v); err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// readBinaryValue decodes one scalar of type t from the binary page
// encoding, the inverse of writeBinaryValue.
func readBinaryValue(rd *binaryio.Reader, t Type) (Value, error) {
	switch t {
	case TypeShort:
		v, err := rd.ReadI16()
		return ShortValue(v), err
	case TypeUshort:
		v, err := rd.ReadU16()
		return UshortValue(v), err
	case TypeLong:
		v, err := rd.ReadI32()
		return LongValue(v), err
	case TypeUlong:
		v, err := rd.ReadU32()
		return UlongValue(v), err
	case TypeLong64:
		v, err := rd.ReadI64()
		return Long64Value(v), err
	case TypeUlong64:
		v, err := rd.ReadU64()
		return Ulong64Value(v), err
	case TypeFloat:
		v, err := rd.ReadF32()
		return FloatValue(v), err
	case TypeDouble:
		v, err := rd.ReadF64()
		return DoubleValue(v), err
	case TypeCharacter:
		v, err := rd.ReadU8()
		return CharacterValue(v), err
	case TypeString:
		v, err := rd.ReadString()
		return StringValue(v), err
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, int32(t))
	}
}

// parseTextField decodes one text-page field, undoing the escapes
// textField applies.
func parseTextField(token string, t Type) (Value, error) {
	if t == TypeCharacter {
		if len(token) == 4 && token[0] == '\\' {
			n, err := strconv.ParseUint(token[1:], 8, 8)
			if err == nil {
				return CharacterValue(byte(n)), nil
			}
		}
		return parseScalar(token, t)
	}
	return parseScalar(token, t)
}

// splitTextFields tokenizes one data line: whitespace-separated bare
// tokens and double-quoted strings with backslash escapes.
func splitTextFields(line string) ([]string, error) {
	var (
		out []string
		i   int
	)
	for i < len(line) {
		switch c := line[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			var sb strings.Builder
			i++
			for {
				if i >= len(line) {
					return nil, fmt.Errorf("unterminated string")
				}
				b := line[i]
				if b == '"' {
					i++
					break
				}
				if b == '\\' && i+1 < len(line) {
					i++
					switch line[i] {
					case 'n':
						sb.WriteByte('\n')
					case 't':
						sb.WriteByte('\t')
					default:
						sb.WriteByte(line[i])
					}
					i++
					continue
				}
				sb.WriteByte(b)
				i++
			}
			out = append(out, sb.String())
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			out = append(out, line[i:j])
			i = j
		}
	}
	return out, nil
}
