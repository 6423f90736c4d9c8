package sds

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSample(t *testing.T, path string, enc Encoding) {
	t.Helper()

	ds := New()
	if err := ds.InitializeOutput(path, enc, 1, "beam scan", "scan data"); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if _, err := ds.DefineSimpleParameter("Step", "", TypeLong); err != nil {
		t.Fatalf("define parameter: %v", err)
	}
	if _, err := ds.DefineSimpleParameter("Label", "", TypeString); err != nil {
		t.Fatalf("define parameter: %v", err)
	}
	if _, err := ds.DefineSimpleArray("Profile", "mm", TypeDouble, 2); err != nil {
		t.Fatalf("define array: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("x", "m", TypeDouble); err != nil {
		t.Fatalf("define column: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("n", "", TypeShort); err != nil {
		t.Fatalf("define column: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("name", "", TypeString); err != nil {
		t.Fatalf("define column: %v", err)
	}

	if err := ds.StartPage(3); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.SetParameter(ByName("Step"), 7); err != nil {
		t.Fatalf("set parameter: %v", err)
	}
	if err := ds.SetParameter(ByName("Label"), "first pass"); err != nil {
		t.Fatalf("set parameter: %v", err)
	}
	if err := ds.SetArray(ByName("Profile"), []float64{1.5, 2.25, 3.125, 4.5, 5.25, 6.125}, []int32{2, 3}); err != nil {
		t.Fatalf("set array: %v", err)
	}
	if err := ds.SetColumn(ByName("x"), []float64{0.25, 0.5, 0.75}); err != nil {
		t.Fatalf("set column x: %v", err)
	}
	if err := ds.SetColumn(ByName("n"), []int16{-1, 0, 1}); err != nil {
		t.Fatalf("set column n: %v", err)
	}
	if err := ds.SetColumn(ByName("name"), []string{"one two", `quote "q"`, ""}); err != nil {
		t.Fatalf("set column name: %v", err)
	}
	if err := ds.WritePage(); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
}

func checkSample(t *testing.T, path string) {
	t.Helper()

	ds := New()
	if err := ds.InitializeInput(path); err != nil {
		t.Fatalf("initialize input: %v", err)
	}
	defer func() {
		if err := ds.Terminate(); err != nil {
			t.Fatalf("terminate: %v", err)
		}
	}()

	n, err := ds.ReadPage()
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if n != 1 {
		t.Fatalf("page number: got %d want 1", n)
	}

	step, err := ds.GetParameter(ByName("Step"))
	if err != nil {
		t.Fatalf("get Step: %v", err)
	}
	if step.Int64() != 7 {
		t.Fatalf("Step: got %d want 7", step.Int64())
	}
	label, err := ds.GetParameter(ByName("Label"))
	if err != nil {
		t.Fatalf("get Label: %v", err)
	}
	if label.String() != "first pass" {
		t.Fatalf("Label: got %q", label.String())
	}

	values, dims, err := ds.GetArray(ByName("Profile"))
	if err != nil {
		t.Fatalf("get Profile: %v", err)
	}
	if len(dims) != 2 || dims[0] != 2 || dims[1] != 3 {
		t.Fatalf("Profile dims: got %v want [2 3]", dims)
	}
	wantProfile := []float64{1.5, 2.25, 3.125, 4.5, 5.25, 6.125}
	if len(values) != len(wantProfile) {
		t.Fatalf("Profile length: got %d want %d", len(values), len(wantProfile))
	}
	for i, v := range values {
		if v.Float64() != wantProfile[i] {
			t.Fatalf("Profile[%d]: got %v want %v", i, v.Float64(), wantProfile[i])
		}
	}

	if rc := ds.RowCount(); rc != 3 {
		t.Fatalf("row count: got %d want 3", rc)
	}
	xs, err := ds.GetColumn(ByName("x"))
	if err != nil {
		t.Fatalf("get x: %v", err)
	}
	wantX := []float64{0.25, 0.5, 0.75}
	for i, v := range xs {
		if v.Float64() != wantX[i] {
			t.Fatalf("x[%d]: got %v want %v", i, v.Float64(), wantX[i])
		}
	}
	ns, err := ds.GetColumn(ByName("n"))
	if err != nil {
		t.Fatalf("get n: %v", err)
	}
	wantN := []int64{-1, 0, 1}
	for i, v := range ns {
		if v.Int64() != wantN[i] {
			t.Fatalf("n[%d]: got %d want %d", i, v.Int64(), wantN[i])
		}
	}
	names, err := ds.GetColumn(ByName("name"))
	if err != nil {
		t.Fatalf("get name: %v", err)
	}
	wantNames := []string{"one two", `quote "q"`, ""}
	for i, v := range names {
		if v.String() != wantNames[i] {
			t.Fatalf("name[%d]: got %q want %q", i, v.String(), wantNames[i])
		}
	}

	if n, err := ds.ReadPage(); err != nil || n != -1 {
		t.Fatalf("read past end: got %d, %v; want -1, nil", n, err)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.sds")
	writeSample(t, path, EncodingBinary)
	checkSample(t, path)
}

func TestTextRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.sds")
	writeSample(t, path, EncodingText)
	checkSample(t, path)
}

func TestGzipRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.sds.gz")
	writeSample(t, path, EncodingBinary)
	checkSample(t, path)
}

func TestLZ4RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.sds.lz4")
	writeSample(t, path, EncodingText)
	checkSample(t, path)
}

func TestSnappyRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.sds.sz")
	writeSample(t, path, EncodingBinary)
	checkSample(t, path)
}

func TestMultiPageRoundTrip(t *testing.T) {
	t.Parallel()

	for _, enc := range []Encoding{EncodingBinary, EncodingText} {
		path := filepath.Join(t.TempDir(), "pages.sds")

		ds := New()
		if err := ds.InitializeOutput(path, enc, 1, "", ""); err != nil {
			t.Fatalf("initialize output: %v", err)
		}
		if _, err := ds.DefineSimpleColumn("v", "", TypeLong); err != nil {
			t.Fatalf("define column: %v", err)
		}
		for pg := 0; pg < 3; pg++ {
			if err := ds.StartPage(2); err != nil {
				t.Fatalf("start page %d: %v", pg, err)
			}
			if err := ds.SetColumn(ByName("v"), []int32{int32(10 * pg), int32(10*pg + 1)}); err != nil {
				t.Fatalf("set column: %v", err)
			}
			if err := ds.WritePage(); err != nil {
				t.Fatalf("write page %d: %v", pg, err)
			}
		}
		if err := ds.Terminate(); err != nil {
			t.Fatalf("terminate: %v", err)
		}

		in := New()
		if err := in.InitializeInput(path); err != nil {
			t.Fatalf("initialize input: %v", err)
		}
		for pg := 0; pg < 3; pg++ {
			n, err := in.ReadPage()
			if err != nil {
				t.Fatalf("read page %d: %v", pg, err)
			}
			if int(n) != pg+1 {
				t.Fatalf("page number: got %d want %d", n, pg+1)
			}
			col, err := in.GetColumn(ByName("v"))
			if err != nil {
				t.Fatalf("get column: %v", err)
			}
			if len(col) != 2 || col[0].Int64() != int64(10*pg) || col[1].Int64() != int64(10*pg+1) {
				t.Fatalf("page %d column: got %v", pg, col)
			}
		}
		if n, err := in.ReadPage(); err != nil || n != -1 {
			t.Fatalf("read past end: got %d, %v", n, err)
		}
		if err := in.Terminate(); err != nil {
			t.Fatalf("terminate input: %v", err)
		}
	}
}

func TestFloatColumnCanonicalized(t *testing.T) {
	t.Parallel()

	raw := float32(1234.56789)
	want := float64(canonicalFloat32(raw))

	for _, enc := range []Encoding{EncodingBinary, EncodingText} {
		path := filepath.Join(t.TempDir(), "float.sds")

		ds := New()
		if err := ds.InitializeOutput(path, enc, 1, "", ""); err != nil {
			t.Fatalf("initialize output: %v", err)
		}
		if _, err := ds.DefineSimpleColumn("f", "", TypeFloat); err != nil {
			t.Fatalf("define column: %v", err)
		}
		if err := ds.StartPage(1); err != nil {
			t.Fatalf("start page: %v", err)
		}
		if err := ds.SetColumn(ByName("f"), []float32{raw}); err != nil {
			t.Fatalf("set column: %v", err)
		}
		if err := ds.WritePage(); err != nil {
			t.Fatalf("write page: %v", err)
		}
		if err := ds.Terminate(); err != nil {
			t.Fatalf("terminate: %v", err)
		}

		in := New()
		if err := in.InitializeInput(path); err != nil {
			t.Fatalf("initialize input: %v", err)
		}
		if _, err := in.ReadPage(); err != nil {
			t.Fatalf("read page: %v", err)
		}
		col, err := in.GetColumn(ByName("f"))
		if err != nil {
			t.Fatalf("get column: %v", err)
		}
		if got := col[0].Float64(); got != want {
			t.Fatalf("%s float: got %v want %v", enc, got, want)
		}
		if err := in.Terminate(); err != nil {
			t.Fatalf("terminate input: %v", err)
		}
	}
}

func TestFixedValueParameterNotStoredPerPage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixed.sds")

	ds := New()
	if err := ds.InitializeOutput(path, EncodingText, 1, "", ""); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if _, err := ds.DefineParameter(Definition{Name: "Charge", Type: TypeDouble, FixedValue: "2.5"}); err != nil {
		t.Fatalf("define fixed parameter: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("v", "", TypeLong); err != nil {
		t.Fatalf("define column: %v", err)
	}
	if err := ds.StartPage(1); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.SetColumn(ByName("v"), []int32{1}); err != nil {
		t.Fatalf("set column: %v", err)
	}
	if err := ds.WritePage(); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	in := New()
	if err := in.InitializeInput(path); err != nil {
		t.Fatalf("initialize input: %v", err)
	}
	// Fixed values resolve from the layout before any page is read.
	v, err := in.GetParameter(ByName("Charge"))
	if err != nil {
		t.Fatalf("get fixed parameter before page: %v", err)
	}
	if v.Float64() != 2.5 {
		t.Fatalf("fixed parameter: got %v want 2.5", v.Float64())
	}
	if _, err := in.ReadPage(); err != nil {
		t.Fatalf("read page: %v", err)
	}
	v, err = in.GetParameter(ByName("Charge"))
	if err != nil {
		t.Fatalf("get fixed parameter: %v", err)
	}
	if v.Float64() != 2.5 {
		t.Fatalf("fixed parameter after read: got %v want 2.5", v.Float64())
	}
	if err := in.Terminate(); err != nil {
		t.Fatalf("terminate input: %v", err)
	}
}

func TestNoRowCountsTextRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "norc.sds")

	ds := New()
	if err := ds.InitializeOutput(path, EncodingText, 1, "", ""); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if err := ds.SetNoRowCounts(true); err != nil {
		t.Fatalf("set no row counts: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("v", "", TypeLong); err != nil {
		t.Fatalf("define column: %v", err)
	}
	for pg := 0; pg < 2; pg++ {
		if err := ds.StartPage(2); err != nil {
			t.Fatalf("start page: %v", err)
		}
		if err := ds.SetColumn(ByName("v"), []int32{int32(pg), int32(pg + 100)}); err != nil {
			t.Fatalf("set column: %v", err)
		}
		if err := ds.WritePage(); err != nil {
			t.Fatalf("write page: %v", err)
		}
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	in := New()
	if err := in.InitializeInput(path); err != nil {
		t.Fatalf("initialize input: %v", err)
	}
	for pg := 0; pg < 2; pg++ {
		n, err := in.ReadPage()
		if err != nil {
			t.Fatalf("read page %d: %v", pg, err)
		}
		if int(n) != pg+1 {
			t.Fatalf("page number: got %d want %d", n, pg+1)
		}
		col, err := in.GetColumn(ByName("v"))
		if err != nil {
			t.Fatalf("get column: %v", err)
		}
		if len(col) != 2 || col[0].Int64() != int64(pg) || col[1].Int64() != int64(pg+100) {
			t.Fatalf("page %d: got %v", pg, col)
		}
	}
	if n, err := in.ReadPage(); err != nil || n != -1 {
		t.Fatalf("read past end: got %d, %v", n, err)
	}
	if err := in.Terminate(); err != nil {
		t.Fatalf("terminate input: %v", err)
	}
}

func TestColumnMajorBinaryRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cmajor.sds")

	ds := New()
	if err := ds.InitializeOutput(path, EncodingBinary, 1, "", ""); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if err := ds.SetColumnMajorOrder(); err != nil {
		t.Fatalf("set column major: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("a", "", TypeDouble); err != nil {
		t.Fatalf("define a: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("b", "", TypeLong); err != nil {
		t.Fatalf("define b: %v", err)
	}
	if err := ds.StartPage(2); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.SetColumn(ByName("a"), []float64{0.5, math.Pi}); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := ds.SetColumn(ByName("b"), []int32{4, 5}); err != nil {
		t.Fatalf("set b: %v", err)
	}
	if err := ds.WritePage(); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	in := New()
	if err := in.InitializeInput(path); err != nil {
		t.Fatalf("initialize input: %v", err)
	}
	if !in.Layout().Mode.ColumnMajor {
		t.Fatal("column major order not recorded in layout")
	}
	if _, err := in.ReadPage(); err != nil {
		t.Fatalf("read page: %v", err)
	}
	a, err := in.GetColumn(ByName("a"))
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if a[0].Float64() != 0.5 || a[1].Float64() != math.Pi {
		t.Fatalf("a: got %v", a)
	}
	b, err := in.GetColumn(ByName("b"))
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if b[0].Int64() != 4 || b[1].Int64() != 5 {
		t.Fatalf("b: got %v", b)
	}
	if err := in.Terminate(); err != nil {
		t.Fatalf("terminate input: %v", err)
	}
}

func TestReadPageSparseAndLastRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rows.sds")

	ds := New()
	if err := ds.InitializeOutput(path, EncodingBinary, 1, "", ""); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("i", "", TypeLong); err != nil {
		t.Fatalf("define column: %v", err)
	}
	if err := ds.StartPage(10); err != nil {
		t.Fatalf("start page: %v", err)
	}
	vals := make([]int32, 10)
	for i := range vals {
		vals[i] = int32(i)
	}
	if err := ds.SetColumn(ByName("i"), vals); err != nil {
		t.Fatalf("set column: %v", err)
	}
	if err := ds.WritePage(); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	sparse := New()
	if err := sparse.InitializeInput(path); err != nil {
		t.Fatalf("initialize input: %v", err)
	}
	if _, err := sparse.ReadPageSparse(3, 1); err != nil {
		t.Fatalf("read sparse: %v", err)
	}
	col, err := sparse.GetColumn(ByName("i"))
	if err != nil {
		t.Fatalf("get column: %v", err)
	}
	want := []int64{1, 4, 7}
	if len(col) != len(want) {
		t.Fatalf("sparse rows: got %d want %d", len(col), len(want))
	}
	for i, v := range col {
		if v.Int64() != want[i] {
			t.Fatalf("sparse[%d]: got %d want %d", i, v.Int64(), want[i])
		}
	}
	if err := sparse.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	last := New()
	if err := last.InitializeInput(path); err != nil {
		t.Fatalf("initialize input: %v", err)
	}
	if _, err := last.ReadPageLastRows(2); err != nil {
		t.Fatalf("read last rows: %v", err)
	}
	col, err = last.GetColumn(ByName("i"))
	if err != nil {
		t.Fatalf("get column: %v", err)
	}
	if len(col) != 2 || col[0].Int64() != 8 || col[1].Int64() != 9 {
		t.Fatalf("last rows: got %v", col)
	}
	if err := last.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
}

func writeSingleArrayFile(t *testing.T, path string, enc Encoding) {
	t.Helper()

	ds := New(WithErrorStack(&ErrorStack{}))
	if err := ds.InitializeOutput(path, enc, 1, "", ""); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if _, err := ds.DefineSimpleArray("grid", "", TypeDouble, 3); err != nil {
		t.Fatalf("define array: %v", err)
	}
	if err := ds.StartPage(0); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.SetArray(ByName("grid"), []float64{7.5}, []int32{1, 1, 1}); err != nil {
		t.Fatalf("set array: %v", err)
	}
	if err := ds.WritePage(); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
}

func TestReadPageRejectsOversizedArrayDims(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "corrupt.sds")
		writeSingleArrayFile(t, path, EncodingText)

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		patched := strings.Replace(string(data), "1 1 1\n", "2000000000 2000000000 2000000000\n", 1)
		if patched == string(data) {
			t.Fatal("dimensions line not found")
		}
		if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		in := New(WithErrorStack(&ErrorStack{}))
		if err := in.InitializeInput(path); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer in.Terminate()
		n, err := in.ReadPage()
		if n != 0 || !errors.Is(err, ErrFormatCorrupt) {
			t.Fatalf("corrupt dims: got (%d, %v) want (0, ErrFormatCorrupt)", n, err)
		}
	})

	t.Run("binary", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "corrupt.sds")
		writeSingleArrayFile(t, path, EncodingBinary)

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		// The page tail is the row count, three int32 dimensions and one
		// float64 element; the dimensions start 20 bytes from the end.
		off := len(data) - 20
		for k := 0; k < 3; k++ {
			binary.LittleEndian.PutUint32(data[off+4*k:], 2000000000)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		in := New(WithErrorStack(&ErrorStack{}))
		if err := in.InitializeInput(path); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer in.Terminate()
		n, err := in.ReadPage()
		if n != 0 || !errors.Is(err, ErrFormatCorrupt) {
			t.Fatalf("corrupt dims: got (%d, %v) want (0, ErrFormatCorrupt)", n, err)
		}
	})
}

func TestZeroSizeArrayKeepsUncountedRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "zeroarr.sds")
	ds := New(WithErrorStack(&ErrorStack{}))
	if err := ds.InitializeOutput(path, EncodingText, 1, "", ""); err != nil {
		t.Fatalf("initialize output: %v", err)
	}
	if err := ds.SetNoRowCounts(true); err != nil {
		t.Fatalf("set no row counts: %v", err)
	}
	if _, err := ds.DefineSimpleArray("tags", "", TypeDouble, 1); err != nil {
		t.Fatalf("define array: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("v", "", TypeLong); err != nil {
		t.Fatalf("define column: %v", err)
	}
	if err := ds.StartPage(2); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.SetArray(ByName("tags"), []float64{}, []int32{0}); err != nil {
		t.Fatalf("set array: %v", err)
	}
	if err := ds.SetColumn(ByName("v"), []int32{1, 2}); err != nil {
		t.Fatalf("set column: %v", err)
	}
	if err := ds.WritePage(); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := ds.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	in := New(WithErrorStack(&ErrorStack{}))
	if err := in.InitializeInput(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer in.Terminate()
	if n, err := in.ReadPage(); n != 1 || err != nil {
		t.Fatalf("read page: got (%d, %v)", n, err)
	}
	if rows := in.RowCount(); rows != 2 {
		t.Fatalf("rows after empty array: got %d want 2", rows)
	}
	values, dims, err := in.GetArray(ByName("tags"))
	if err != nil {
		t.Fatalf("get array: %v", err)
	}
	if len(values) != 0 || len(dims) != 1 || dims[0] != 0 {
		t.Fatalf("empty array: got %d values, dims %v", len(values), dims)
	}
}

func TestZeroRowPageRoundTrip(t *testing.T) {
	t.Parallel()

	for _, enc := range []Encoding{EncodingBinary, EncodingText} {
		path := filepath.Join(t.TempDir(), "zerorow.sds")
		ds := New(WithErrorStack(&ErrorStack{}))
		if err := ds.InitializeOutput(path, enc, 1, "", ""); err != nil {
			t.Fatalf("initialize output: %v", err)
		}
		if _, err := ds.DefineSimpleColumn("v", "", TypeLong); err != nil {
			t.Fatalf("define column: %v", err)
		}
		if err := ds.StartPage(2); err != nil {
			t.Fatalf("start page: %v", err)
		}
		if err := ds.SetColumn(ByName("v"), []int32{1, 2}); err != nil {
			t.Fatalf("set column: %v", err)
		}
		if err := ds.SetRowFlags(0); err != nil {
			t.Fatalf("clear row flags: %v", err)
		}
		if err := ds.WritePage(); err != nil {
			t.Fatalf("write page: %v", err)
		}
		if err := ds.Terminate(); err != nil {
			t.Fatalf("terminate: %v", err)
		}

		in := New(WithErrorStack(&ErrorStack{}))
		if err := in.InitializeInput(path); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		if n, err := in.ReadPage(); n != 1 || err != nil {
			t.Fatalf("%s zero-row page: got (%d, %v)", enc, n, err)
		}
		if rows := in.RowCount(); rows != 0 {
			t.Fatalf("%s rows: got %d want 0", enc, rows)
		}
		if n, err := in.ReadPage(); n != -1 || err != nil {
			t.Fatalf("%s after last page: got (%d, %v)", enc, n, err)
		}
		if err := in.Terminate(); err != nil {
			t.Fatalf("terminate input: %v", err)
		}
	}
}
