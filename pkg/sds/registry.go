package sds

import "fmt"

// Ref addresses a definition by name or by ordinal index. Both keys stay
// valid for the lifetime of the layout.
type Ref struct {
	name   string
	index  int
	byName bool
}

// ByName addresses a definition by its name.
func ByName(name string) Ref { return Ref{name: name, byName: true} }

// ByIndex addresses a definition by its ordinal index.
func ByIndex(index int) Ref { return Ref{index: index} }

func (r Ref) String() string {
	if r.byName {
		return r.name
	}
	return fmt.Sprintf("#%d", r.index)
}

// resolve maps a Ref to an ordinal within kind.
func (d *Dataset) resolve(kind Kind, ref Ref) (int, error) {
	if ref.byName {
		if i := d.layout.indexOf(kind, ref.name); i >= 0 {
			return i, nil
		}
		return -1, fmt.Errorf("%w: %s %q", ErrNotFound, kind, ref.name)
	}
	if ref.index < 0 || ref.index >= len(*d.layout.defs(kind)) {
		return -1, fmt.Errorf("%w: %s index %d", ErrNotFound, kind, ref.index)
	}
	return ref.index, nil
}

// canDefine reports whether the layout is still open for definitions.
func (d *Dataset) canDefine() error {
	if d.state == StateClosed {
		return nil
	}
	if d.layoutWritten && !d.headerless {
		return fmt.Errorf("%w: layout already committed", ErrState)
	}
	return nil
}

// DefineParameter adds a parameter definition and returns its ordinal.
func (d *Dataset) DefineParameter(def Definition) (int32, error) {
	return d.defineLogged(KindParameter, def)
}

// DefineArray adds an array definition and returns its ordinal.
func (d *Dataset) DefineArray(def Definition) (int32, error) {
	return d.defineLogged(KindArray, def)
}

// DefineColumn adds a column definition and returns its ordinal.
func (d *Dataset) DefineColumn(def Definition) (int32, error) {
	return d.defineLogged(KindColumn, def)
}

func (d *Dataset) defineLogged(kind Kind, def Definition) (int32, error) {
	if err := d.canDefine(); err != nil {
		return -1, d.fail(err)
	}
	idx, err := d.layout.define(kind, def)
	if err != nil {
		return -1, d.fail(err)
	}
	d.extendPage(kind, &def)
	return idx, nil
}

// extendPage grows the current page to cover a definition added after
// StartPage.
func (d *Dataset) extendPage(kind Kind, def *Definition) {
	if d.page == nil {
		return
	}
	switch kind {
	case KindParameter:
		d.page.params = append(d.page.params, zeroValue(def.Type))
		d.page.paramSet = append(d.page.paramSet, false)
	case KindArray:
		d.page.arrays = append(d.page.arrays, arrayData{
			dims: make([]int32, def.Dimensions),
			data: newVector(def.Type, 0),
		})
	case KindColumn:
		d.page.columns = append(d.page.columns, newVector(def.Type, d.page.rows))
		d.page.colSet = append(d.page.colSet, false)
		d.page.colFlag = append(d.page.colFlag, true)
	}
}

// DefineSimpleParameter adds a parameter with default attributes.
func (d *Dataset) DefineSimpleParameter(name, units string, t Type) (int32, error) {
	return d.DefineParameter(Definition{Name: name, Units: units, Type: t})
}

// DefineSimpleArray adds an array with default attributes.
func (d *Dataset) DefineSimpleArray(name, units string, t Type, dimensions int32) (int32, error) {
	return d.DefineArray(Definition{Name: name, Units: units, Type: t, Dimensions: dimensions})
}

// DefineSimpleColumn adds a column with default attributes.
func (d *Dataset) DefineSimpleColumn(name, units string, t Type) (int32, error) {
	return d.DefineColumn(Definition{Name: name, Units: units, Type: t})
}

// DefineColumnLikeParameter clones a parameter definition from src as a
// column here. newName may be empty to keep the source name.
func (d *Dataset) DefineColumnLikeParameter(src *Dataset, name, newName string) (int32, error) {
	i, err := src.resolve(KindParameter, ByName(name))
	if err != nil {
		return -1, d.fail(err)
	}
	def := src.layout.Parameters[i]
	def.FixedValue = ""
	if newName != "" {
		def.Name = newName
	}
	return d.DefineColumn(def)
}

// DefineParameterLikeColumn clones a column definition from src as a
// parameter here.
func (d *Dataset) DefineParameterLikeColumn(src *Dataset, name, newName string) (int32, error) {
	i, err := src.resolve(KindColumn, ByName(name))
	if err != nil {
		return -1, d.fail(err)
	}
	def := src.layout.Columns[i]
	def.FieldLength = 0
	if newName != "" {
		def.Name = newName
	}
	return d.DefineParameter(def)
}

// TransferMode controls name collisions during definition transfer.
type TransferMode int

const (
	// TransferStrict fails on a name collision.
	TransferStrict TransferMode = iota
	// TransferKeepOld keeps the target's definition on collision.
	TransferKeepOld
	// TransferOverwrite replaces the target's definition on collision.
	// The replacement must carry the same scalar type.
	TransferOverwrite
)

// TransferParameterDefinition copies one parameter definition from src,
// optionally renaming it.
func (d *Dataset) TransferParameterDefinition(src *Dataset, name, newName string) (int32, error) {
	return d.transfer(KindParameter, src, name, newName)
}

// TransferArrayDefinition copies one array definition from src.
func (d *Dataset) TransferArrayDefinition(src *Dataset, name, newName string) (int32, error) {
	return d.transfer(KindArray, src, name, newName)
}

// TransferColumnDefinition copies one column definition from src.
func (d *Dataset) TransferColumnDefinition(src *Dataset, name, newName string) (int32, error) {
	return d.transfer(KindColumn, src, name, newName)
}

func (d *Dataset) transfer(kind Kind, src *Dataset, name, newName string) (int32, error) {
	i, err := src.resolve(kind, ByName(name))
	if err != nil {
		return -1, d.fail(err)
	}
	def := (*src.layout.defs(kind))[i]
	if newName != "" {
		def.Name = newName
	}
	return d.defineLogged(kind, def)
}

// TransferAllParameterDefinitions copies every parameter definition from
// src under the given collision mode.
func (d *Dataset) TransferAllParameterDefinitions(src *Dataset, mode TransferMode) error {
	return d.transferAll(KindParameter, src, mode)
}

// TransferAllArrayDefinitions copies every array definition from src.
func (d *Dataset) TransferAllArrayDefinitions(src *Dataset, mode TransferMode) error {
	return d.transferAll(KindArray, src, mode)
}

// TransferAllColumnDefinitions copies every column definition from src.
func (d *Dataset) TransferAllColumnDefinitions(src *Dataset, mode TransferMode) error {
	return d.transferAll(KindColumn, src, mode)
}

func (d *Dataset) transferAll(kind Kind, src *Dataset, mode TransferMode) error {
	if err := d.canDefine(); err != nil {
		return d.fail(err)
	}
	for _, def := range *src.layout.defs(kind) {
		existing := d.layout.indexOf(kind, def.Name)
		if existing >= 0 {
			switch mode {
			case TransferKeepOld:
				continue
			case TransferOverwrite:
				old := (*d.layout.defs(kind))[existing]
				if old.Type != def.Type {
					return d.failf(ErrTypeMismatch, "%s %q: %s vs %s", kind, def.Name, old.Type, def.Type)
				}
				(*d.layout.defs(kind))[existing] = def
				continue
			default:
				return d.failf(ErrNameInvalid, "%s %q already defined", kind, def.Name)
			}
		}
		if _, err := d.layout.define(kind, def); err != nil {
			return d.fail(err)
		}
		d.extendPage(kind, &def)
	}
	return nil
}

// DeleteColumn removes a column definition and its page storage. Later
// ordinals shift down by one.
func (d *Dataset) DeleteColumn(ref Ref) error {
	i, err := d.resolve(KindColumn, ref)
	if err != nil {
		return d.fail(err)
	}
	if err := d.layout.remove(KindColumn, i); err != nil {
		return d.fail(err)
	}
	if d.page != nil {
		d.page.dropColumn(i)
	}
	return nil
}

// DeleteParameter removes a parameter definition and its page storage.
func (d *Dataset) DeleteParameter(ref Ref) error {
	i, err := d.resolve(KindParameter, ref)
	if err != nil {
		return d.fail(err)
	}
	if err := d.layout.remove(KindParameter, i); err != nil {
		return d.fail(err)
	}
	if d.page != nil {
		d.page.dropParameter(i)
	}
	return nil
}

// DeleteUnsetColumns removes every column that has not been assigned a
// value in the current page, or whose acceptance flag is cleared.
// Applying it twice is the same as applying it once.
func (d *Dataset) DeleteUnsetColumns() error {
	if d.page == nil {
		return nil
	}
	for i := len(d.layout.Columns) - 1; i >= 0; i-- {
		if d.page.colSet[i] && d.page.colFlag[i] {
			continue
		}
		if err := d.layout.remove(KindColumn, i); err != nil {
			return d.fail(err)
		}
		d.page.dropColumn(i)
	}
	return nil
}

// DeleteUnsetRows discards all rows whose inclusion flag is cleared.
func (d *Dataset) DeleteUnsetRows() error {
	if d.page == nil {
		return d.failf(ErrState, "no current page")
	}
	d.page.compactRows()
	return nil
}

// DeleteParameterFixedValues strips baked-in constant values from every
// parameter definition, turning them into runtime-assigned parameters.
func (d *Dataset) DeleteParameterFixedValues() error {
	if err := d.canDefine(); err != nil {
		return d.fail(err)
	}
	for i := range d.layout.Parameters {
		d.layout.Parameters[i].FixedValue = ""
	}
	return nil
}

// ParameterCount returns the number of parameter definitions.
func (d *Dataset) ParameterCount() int { return len(d.layout.Parameters) }

// ArrayCount returns the number of array definitions.
func (d *Dataset) ArrayCount() int { return len(d.layout.Arrays) }

// ColumnCount returns the number of column definitions.
func (d *Dataset) ColumnCount() int { return len(d.layout.Columns) }

// GetParameterIndex returns the ordinal of a named parameter.
func (d *Dataset) GetParameterIndex(name string) (int32, error) {
	i, err := d.resolve(KindParameter, ByName(name))
	if err != nil {
		return -1, d.fail(err)
	}
	return int32(i), nil
}

// GetArrayIndex returns the ordinal of a named array.
func (d *Dataset) GetArrayIndex(name string) (int32, error) {
	i, err := d.resolve(KindArray, ByName(name))
	if err != nil {
		return -1, d.fail(err)
	}
	return int32(i), nil
}

// GetColumnIndex returns the ordinal of a named column.
func (d *Dataset) GetColumnIndex(name string) (int32, error) {
	i, err := d.resolve(KindColumn, ByName(name))
	if err != nil {
		return -1, d.fail(err)
	}
	return int32(i), nil
}

// GetParameterType returns the scalar type of a parameter.
func (d *Dataset) GetParameterType(ref Ref) (Type, error) {
	return d.defType(KindParameter, ref)
}

// GetArrayType returns the scalar type of an array.
func (d *Dataset) GetArrayType(ref Ref) (Type, error) {
	return d.defType(KindArray, ref)
}

// GetColumnType returns the scalar type of a column.
func (d *Dataset) GetColumnType(ref Ref) (Type, error) {
	return d.defType(KindColumn, ref)
}

func (d *Dataset) defType(kind Kind, ref Ref) (Type, error) {
	i, err := d.resolve(kind, ref)
	if err != nil {
		return 0, d.fail(err)
	}
	return (*d.layout.defs(kind))[i].Type, nil
}

// GetParameterDefinition returns the full attribute record of a parameter.
func (d *Dataset) GetParameterDefinition(name string) (Definition, error) {
	return d.definition(KindParameter, name)
}

// GetArrayDefinition returns the full attribute record of an array.
func (d *Dataset) GetArrayDefinition(name string) (Definition, error) {
	return d.definition(KindArray, name)
}

// GetColumnDefinition returns the full attribute record of a column.
func (d *Dataset) GetColumnDefinition(name string) (Definition, error) {
	return d.definition(KindColumn, name)
}

func (d *Dataset) definition(kind Kind, name string) (Definition, error) {
	i, err := d.resolve(kind, ByName(name))
	if err != nil {
		return Definition{}, d.fail(err)
	}
	return (*d.layout.defs(kind))[i], nil
}

// GetParameterNameFromIndex returns the name at a parameter ordinal.
func (d *Dataset) GetParameterNameFromIndex(index int) (string, error) {
	return d.nameAt(KindParameter, index)
}

// GetArrayNameFromIndex returns the name at an array ordinal.
func (d *Dataset) GetArrayNameFromIndex(index int) (string, error) {
	return d.nameAt(KindArray, index)
}

// GetColumnNameFromIndex returns the name at a column ordinal.
func (d *Dataset) GetColumnNameFromIndex(index int) (string, error) {
	return d.nameAt(KindColumn, index)
}

func (d *Dataset) nameAt(kind Kind, index int) (string, error) {
	i, err := d.resolve(kind, ByIndex(index))
	if err != nil {
		return "", d.fail(err)
	}
	return (*d.layout.defs(kind))[i].Name, nil
}

// GetParameterNames returns all parameter names in ordinal order.
func (d *Dataset) GetParameterNames() []string { return d.layout.names(KindParameter) }

// GetArrayNames returns all array names in ordinal order.
func (d *Dataset) GetArrayNames() []string { return d.layout.names(KindArray) }

// GetColumnNames returns all column names in ordinal order.
func (d *Dataset) GetColumnNames() []string { return d.layout.names(KindColumn) }

// CheckStatus is the result of probing for an optional definition.
type CheckStatus int

const (
	CheckOK CheckStatus = iota
	CheckNonexistent
	CheckWrongType
	CheckWrongUnits
)

func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "ok"
	case CheckNonexistent:
		return "nonexistent"
	case CheckWrongType:
		return "wrong type"
	case CheckWrongUnits:
		return "wrong units"
	default:
		return "status(?)"
	}
}

// CheckParameter verifies that a parameter exists with the expected units
// and type. A zero Type skips the type check. Absence is a status, never
// an error.
func (d *Dataset) CheckParameter(name, units string, t Type) CheckStatus {
	return d.check(KindParameter, name, units, t)
}

// CheckArray verifies that an array exists with the expected units and
// type.
func (d *Dataset) CheckArray(name, units string, t Type) CheckStatus {
	return d.check(KindArray, name, units, t)
}

// CheckColumn verifies that a column exists with the expected units and
// type.
func (d *Dataset) CheckColumn(name, units string, t Type) CheckStatus {
	return d.check(KindColumn, name, units, t)
}

func (d *Dataset) check(kind Kind, name, units string, t Type) CheckStatus {
	i := d.layout.indexOf(kind, name)
	if i < 0 {
		return CheckNonexistent
	}
	def := (*d.layout.defs(kind))[i]
	if t != 0 && def.Type != t {
		return CheckWrongType
	}
	if def.Units != units {
		return CheckWrongUnits
	}
	return CheckOK
}
