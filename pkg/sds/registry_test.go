package sds

import (
	"errors"
	"testing"

	"github.com/samcharles93/sds/internal/logger"
)

func memoryOutput(t *testing.T) *Dataset {
	t.Helper()
	ds := New(WithErrorStack(&ErrorStack{}), WithLogger(logger.Nop()))
	if err := ds.InitializeOutput("", EncodingBinary, 1, "", ""); err != nil {
		t.Fatalf("initialize memory output: %v", err)
	}
	return ds
}

func TestDefineRejectsDuplicateAndInvalidNames(t *testing.T) {
	t.Parallel()

	ds := memoryOutput(t)
	if _, err := ds.DefineSimpleColumn("x", "", TypeDouble); err != nil {
		t.Fatalf("define x: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("x", "", TypeLong); !errors.Is(err, ErrNameInvalid) {
		t.Fatalf("duplicate define: got %v want ErrNameInvalid", err)
	}
	if _, err := ds.DefineSimpleColumn("bad name", "", TypeLong); !errors.Is(err, ErrNameInvalid) {
		t.Fatalf("whitespace name: got %v want ErrNameInvalid", err)
	}
	if _, err := ds.DefineSimpleColumn("", "", TypeLong); !errors.Is(err, ErrNameInvalid) {
		t.Fatalf("empty name: got %v want ErrNameInvalid", err)
	}
	if _, err := ds.DefineSimpleColumn("y", "", Type(99)); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("bad type: got %v want ErrInvalidType", err)
	}
}

func TestIndexAndNameLookups(t *testing.T) {
	t.Parallel()

	ds := memoryOutput(t)
	for _, name := range []string{"a", "b", "c"} {
		if _, err := ds.DefineSimpleParameter(name, "", TypeDouble); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	idx, err := ds.GetParameterIndex("b")
	if err != nil {
		t.Fatalf("index of b: %v", err)
	}
	if idx != 1 {
		t.Fatalf("index of b: got %d want 1", idx)
	}
	name, err := ds.GetParameterNameFromIndex(2)
	if err != nil {
		t.Fatalf("name at 2: %v", err)
	}
	if name != "c" {
		t.Fatalf("name at 2: got %q want c", name)
	}
	if _, err := ds.GetParameterIndex("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing lookup: got %v want ErrNotFound", err)
	}
	names := ds.GetParameterNames()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Fatalf("names: got %v", names)
	}
	if ds.ParameterCount() != 3 || ds.ColumnCount() != 0 {
		t.Fatalf("counts: %d params, %d columns", ds.ParameterCount(), ds.ColumnCount())
	}
}

func TestTransferModes(t *testing.T) {
	t.Parallel()

	src := memoryOutput(t)
	if _, err := src.DefineSimpleColumn("x", "m", TypeDouble); err != nil {
		t.Fatalf("define src x: %v", err)
	}
	if _, err := src.DefineSimpleColumn("y", "m", TypeDouble); err != nil {
		t.Fatalf("define src y: %v", err)
	}

	dst := memoryOutput(t)
	if _, err := dst.DefineSimpleColumn("x", "mm", TypeDouble); err != nil {
		t.Fatalf("define dst x: %v", err)
	}

	if err := dst.TransferAllColumnDefinitions(src, TransferStrict); err == nil {
		t.Fatal("strict transfer over existing name should fail")
	}

	if err := dst.TransferAllColumnDefinitions(src, TransferKeepOld); err != nil {
		t.Fatalf("keep-old transfer: %v", err)
	}
	def, err := dst.GetColumnDefinition("x")
	if err != nil {
		t.Fatalf("get x: %v", err)
	}
	if def.Units != "mm" {
		t.Fatalf("keep-old clobbered units: got %q", def.Units)
	}
	if _, err := dst.GetColumnDefinition("y"); err != nil {
		t.Fatalf("y not transferred: %v", err)
	}

	if err := dst.TransferAllColumnDefinitions(src, TransferOverwrite); err != nil {
		t.Fatalf("overwrite transfer: %v", err)
	}
	def, err = dst.GetColumnDefinition("x")
	if err != nil {
		t.Fatalf("get x: %v", err)
	}
	if def.Units != "m" {
		t.Fatalf("overwrite kept old units: got %q", def.Units)
	}

	// Overwrite refuses a type change.
	typed := memoryOutput(t)
	if _, err := typed.DefineSimpleColumn("x", "", TypeString); err != nil {
		t.Fatalf("define typed x: %v", err)
	}
	if err := typed.TransferAllColumnDefinitions(src, TransferOverwrite); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("type change: got %v want ErrTypeMismatch", err)
	}
}

func TestDeleteUnsetColumnsIsIdempotent(t *testing.T) {
	t.Parallel()

	ds := memoryOutput(t)
	if _, err := ds.DefineSimpleColumn("kept", "", TypeLong); err != nil {
		t.Fatalf("define kept: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("unset", "", TypeLong); err != nil {
		t.Fatalf("define unset: %v", err)
	}
	if err := ds.StartPage(2); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.SetColumn(ByName("kept"), []int32{1, 2}); err != nil {
		t.Fatalf("set kept: %v", err)
	}

	if err := ds.DeleteUnsetColumns(); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if ds.ColumnCount() != 1 {
		t.Fatalf("column count after delete: got %d want 1", ds.ColumnCount())
	}
	if err := ds.DeleteUnsetColumns(); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ds.ColumnCount() != 1 {
		t.Fatalf("second delete changed count: got %d", ds.ColumnCount())
	}
	col, err := ds.GetColumn(ByName("kept"))
	if err != nil {
		t.Fatalf("get kept: %v", err)
	}
	if len(col) != 2 || col[0].Int64() != 1 {
		t.Fatalf("kept column damaged: %v", col)
	}
}

func TestDeleteColumnShiftsOrdinals(t *testing.T) {
	t.Parallel()

	ds := memoryOutput(t)
	for _, name := range []string{"a", "b", "c"} {
		if _, err := ds.DefineSimpleColumn(name, "", TypeLong); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	if err := ds.StartPage(1); err != nil {
		t.Fatalf("start page: %v", err)
	}
	if err := ds.DeleteColumn(ByName("b")); err != nil {
		t.Fatalf("delete b: %v", err)
	}
	idx, err := ds.GetColumnIndex("c")
	if err != nil {
		t.Fatalf("index of c: %v", err)
	}
	if idx != 1 {
		t.Fatalf("index of c after delete: got %d want 1", idx)
	}
}

func TestCheckStatuses(t *testing.T) {
	t.Parallel()

	ds := memoryOutput(t)
	if _, err := ds.DefineSimpleColumn("x", "m", TypeDouble); err != nil {
		t.Fatalf("define x: %v", err)
	}

	if got := ds.CheckColumn("x", "m", TypeDouble); got != CheckOK {
		t.Fatalf("exact match: got %v", got)
	}
	if got := ds.CheckColumn("x", "m", 0); got != CheckOK {
		t.Fatalf("type wildcard: got %v", got)
	}
	if got := ds.CheckColumn("x", "m", TypeLong); got != CheckWrongType {
		t.Fatalf("wrong type: got %v", got)
	}
	if got := ds.CheckColumn("x", "mm", TypeDouble); got != CheckWrongUnits {
		t.Fatalf("wrong units: got %v", got)
	}
	if got := ds.CheckColumn("y", "", 0); got != CheckNonexistent {
		t.Fatalf("missing: got %v", got)
	}
	if got := ds.CheckParameter("x", "", 0); got != CheckNonexistent {
		t.Fatalf("column probed as parameter: got %v", got)
	}
}

func TestProcessColumnString(t *testing.T) {
	t.Parallel()

	ds := memoryOutput(t)
	idx, err := ds.ProcessColumnString(`&column name=x, units=m, type=double &end`)
	if err != nil {
		t.Fatalf("process column string: %v", err)
	}
	if idx != 0 {
		t.Fatalf("ordinal: got %d want 0", idx)
	}
	def, err := ds.GetColumnDefinition("x")
	if err != nil {
		t.Fatalf("get x: %v", err)
	}
	if def.Units != "m" || def.Type != TypeDouble {
		t.Fatalf("definition: %+v", def)
	}

	if _, err := ds.ProcessColumnString(`&parameter name=p, type=long &end`); err == nil {
		t.Fatal("wrong tag accepted")
	}
}

func TestRelaxedNameValidation(t *testing.T) {
	ds := memoryOutput(t)

	if _, err := ds.DefineSimpleColumn("0start", "", TypeLong); !errors.Is(err, ErrNameInvalid) {
		t.Fatalf("digit-leading name under strict rules: got %v", err)
	}
	SetNameValidityFlags(true)
	defer SetNameValidityFlags(false)
	if _, err := ds.DefineSimpleColumn("0start", "", TypeLong); err != nil {
		t.Fatalf("digit-leading name under relaxed rules: %v", err)
	}
}
