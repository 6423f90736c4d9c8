package sds

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/sds/internal/namelist"
)

// versionLine identifies the file format. It is the first line of every
// dataset file.
const versionLine = "SDS1"

// writeLayoutNow renders the header onto the output stream.
func (d *Dataset) writeLayoutNow() error {
	if d.file == nil || d.bw == nil {
		return d.failf(ErrState, "no output file bound")
	}
	if _, err := io.WriteString(d.bw, versionLine+"\n"); err != nil {
		return d.failf(ErrIO, "writing header: %v", err)
	}
	for _, e := range layoutEntries(&d.layout) {
		if err := namelist.Write(d.bw, e); err != nil {
			return d.failf(ErrIO, "writing header: %v", err)
		}
	}
	if err := d.bw.Flush(); err != nil {
		return d.failf(ErrIO, "writing header: %v", err)
	}
	d.layoutWritten = true
	return nil
}

// layoutEntries renders a layout as header entries, description first,
// then definitions in ordinal order, then the &data terminator.
func layoutEntries(l *Layout) []*namelist.Entry {
	var out []*namelist.Entry
	if l.Description != "" || l.Contents != "" {
		e := &namelist.Entry{Tag: "description"}
		addAttr(e, "text", l.Description)
		addAttr(e, "contents", l.Contents)
		out = append(out, e)
	}
	for i := range l.Parameters {
		out = append(out, definitionEntry("parameter", &l.Parameters[i]))
	}
	for i := range l.Arrays {
		out = append(out, definitionEntry("array", &l.Arrays[i]))
	}
	for i := range l.Columns {
		out = append(out, definitionEntry("column", &l.Columns[i]))
	}
	data := &namelist.Entry{Tag: "data"}
	data.Attrs = append(data.Attrs, namelist.Attr{Key: "mode", Value: l.Mode.Encoding.String()})
	if l.Mode.LinesPerRow > 1 {
		addAttr(data, "lines_per_row", strconv.Itoa(int(l.Mode.LinesPerRow)))
	}
	if l.Mode.NoRowCounts {
		addAttr(data, "no_row_counts", "1")
	}
	if l.Mode.ColumnMajor {
		addAttr(data, "column_major_order", "1")
	}
	out = append(out, data)
	return out
}

func definitionEntry(tag string, def *Definition) *namelist.Entry {
	e := &namelist.Entry{Tag: tag}
	addAttr(e, "name", def.Name)
	addAttr(e, "symbol", def.Symbol)
	addAttr(e, "units", def.Units)
	addAttr(e, "description", def.Description)
	addAttr(e, "format_string", def.FormatString)
	e.Attrs = append(e.Attrs, namelist.Attr{Key: "type", Value: def.Type.String()})
	if tag == "parameter" {
		addAttr(e, "fixed_value", def.FixedValue)
	}
	if tag == "array" {
		if def.Dimensions != 1 {
			addAttr(e, "dimensions", strconv.Itoa(int(def.Dimensions)))
		}
		addAttr(e, "group_name", def.GroupName)
	}
	if tag != "parameter" && def.FieldLength != 0 {
		addAttr(e, "field_length", strconv.Itoa(int(def.FieldLength)))
	}
	return e
}

func addAttr(e *namelist.Entry, key, value string) {
	if value == "" {
		return
	}
	e.Attrs = append(e.Attrs, namelist.Attr{Key: key, Value: value})
}

// readLayout parses the header from the input stream, through the &data
// terminator. Corruption here is unrecoverable for the session.
func (d *Dataset) readLayout() error {
	line, err := d.br.ReadString('\n')
	if err != nil {
		return d.failf(ErrFormatCorrupt, "reading version line: %v", err)
	}
	if strings.TrimSpace(line) != versionLine {
		return d.failf(ErrFormatCorrupt, "bad version line %q", strings.TrimSpace(line))
	}
	layout := newLayout()
	sc := namelist.NewScanner(d.br)
	for {
		e, err := sc.Next()
		if err == io.EOF {
			return d.failf(ErrFormatCorrupt, "header ends without &data")
		}
		if err != nil {
			return d.failf(ErrFormatCorrupt, "parsing header: %v", err)
		}
		switch e.Tag {
		case "description":
			layout.Description = e.GetDefault("text", "")
			layout.Contents = e.GetDefault("contents", "")
		case "parameter", "array", "column":
			if err := defineFromEntry(&layout, e); err != nil {
				return d.fail(fmt.Errorf("%w: %v", ErrFormatCorrupt, err))
			}
		case "data":
			if err := dataModeFromEntry(&layout, e); err != nil {
				return d.fail(fmt.Errorf("%w: %v", ErrFormatCorrupt, err))
			}
			d.layout = layout
			return nil
		default:
			return d.failf(ErrFormatCorrupt, "unknown header entry &%s", e.Tag)
		}
	}
}

func defineFromEntry(l *Layout, e *namelist.Entry) error {
	def := Definition{
		Name:         e.GetDefault("name", ""),
		Symbol:       e.GetDefault("symbol", ""),
		Units:        e.GetDefault("units", ""),
		Description:  e.GetDefault("description", ""),
		FormatString: e.GetDefault("format_string", ""),
		Dimensions:   1,
	}
	typeName, ok := e.Get("type")
	if !ok {
		return fmt.Errorf("&%s %q: missing type", e.Tag, def.Name)
	}
	t, err := IdentifyType(typeName)
	if err != nil {
		return fmt.Errorf("&%s %q: %v", e.Tag, def.Name, err)
	}
	def.Type = t

	var kind Kind
	switch e.Tag {
	case "parameter":
		kind = KindParameter
		def.Dimensions = 0
		def.FixedValue = e.GetDefault("fixed_value", "")
	case "array":
		kind = KindArray
		def.GroupName = e.GetDefault("group_name", "")
		if v, ok := e.Get("dimensions"); ok {
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return fmt.Errorf("&array %q: dimensions %q", def.Name, v)
			}
			def.Dimensions = int32(n)
		}
	case "column":
		kind = KindColumn
		def.Dimensions = 0
	}
	if kind != KindParameter {
		if v, ok := e.Get("field_length"); ok {
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return fmt.Errorf("&%s %q: field_length %q", e.Tag, def.Name, v)
			}
			def.FieldLength = int32(n)
		}
	}
	if _, err := l.define(kind, def); err != nil {
		return err
	}
	return nil
}

func dataModeFromEntry(l *Layout, e *namelist.Entry) error {
	switch e.GetDefault("mode", "ascii") {
	case "ascii":
		l.Mode.Encoding = EncodingText
	case "binary":
		l.Mode.Encoding = EncodingBinary
	default:
		return fmt.Errorf("&data: unknown mode %q", e.GetDefault("mode", ""))
	}
	if v, ok := e.Get("lines_per_row"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return fmt.Errorf("&data: lines_per_row %q", v)
		}
		l.Mode.LinesPerRow = int32(n)
	}
	l.Mode.NoRowCounts = e.GetDefault("no_row_counts", "0") == "1"
	l.Mode.ColumnMajor = e.GetDefault("column_major_order", "0") == "1"
	return nil
}

// ProcessParameterString feeds one raw &parameter header entry into the
// layout, as header tooling does.
func (d *Dataset) ProcessParameterString(s string) (int32, error) {
	return d.processString(KindParameter, "parameter", s)
}

// ProcessArrayString feeds one raw &array header entry into the layout.
func (d *Dataset) ProcessArrayString(s string) (int32, error) {
	return d.processString(KindArray, "array", s)
}

// ProcessColumnString feeds one raw &column header entry into the layout.
func (d *Dataset) ProcessColumnString(s string) (int32, error) {
	return d.processString(KindColumn, "column", s)
}

func (d *Dataset) processString(kind Kind, tag, s string) (int32, error) {
	if err := d.canDefine(); err != nil {
		return -1, d.fail(err)
	}
	e, err := namelist.ParseString(s)
	if err != nil {
		return -1, d.failf(ErrFormatCorrupt, "parsing %s string: %v", tag, err)
	}
	if e.Tag != tag {
		return -1, d.failf(ErrFormatCorrupt, "expected &%s entry, got &%s", tag, e.Tag)
	}
	if err := defineFromEntry(&d.layout, e); err != nil {
		return -1, d.fail(fmt.Errorf("%w: %v", ErrFormatCorrupt, err))
	}
	list := *d.layout.defs(kind)
	d.extendPage(kind, &list[len(list)-1])
	return int32(len(list) - 1), nil
}
