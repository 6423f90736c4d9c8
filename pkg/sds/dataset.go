package sds

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/samcharles93/sds/internal/binaryio"
	"github.com/samcharles93/sds/internal/compress"
	"github.com/samcharles93/sds/internal/logger"
)

// State is the lifecycle state of a Dataset.
type State int

const (
	StateClosed State = iota
	StateInput
	StateAppend
	StateAppendToPage
	StateOutput
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateInput:
		return "input"
	case StateAppend:
		return "append"
	case StateAppendToPage:
		return "append-to-page"
	case StateOutput:
		return "output"
	default:
		return "state(?)"
	}
}

// TerminateMode controls whether Terminate releases string buffers handed
// out by read accessors or leaves them to the caller. Retained for
// interface parity with the original library; Go's collector makes both
// modes equivalent.
type TerminateMode int

const (
	TerminateFreeStrings TerminateMode = iota
	TerminateKeepStrings
)

// Dataset is one session: one open file (or none, for memory-only
// sessions), one Layout, and at most one current page. A Dataset is not
// safe for concurrent use.
type Dataset struct {
	id   uuid.UUID
	log  logger.Logger
	errs *ErrorStack
	diag io.Writer

	state State
	path  string
	file  *os.File
	codec compress.Codec

	// input side
	br *bufio.Reader
	rd *binaryio.Reader

	// output side
	zw compress.WriteFlushCloser
	bw *bufio.Writer
	wr *binaryio.Writer

	layout        Layout
	savedLayout   *Layout
	deferLayout   bool
	layoutPending bool
	layoutWritten bool
	headerless    bool

	page           *page
	pageCount      int32
	lastPageOffset int64
	writtenRows    int
	updateInterval int32

	terminateMode TerminateMode
	autoCheck     bool
}

// Option configures a Dataset at construction.
type Option func(*Dataset)

// WithLogger attaches a logger; the default discards below-warning logs
// to standard error via logger.Default.
func WithLogger(l logger.Logger) Option {
	return func(d *Dataset) { d.log = l }
}

// WithErrorStack routes diagnostics onto a caller-owned stack instead of
// the shared DefaultErrors.
func WithErrorStack(s *ErrorStack) Option {
	return func(d *Dataset) { d.errs = s }
}

// WithDiagnostics redirects warning output, default standard error.
func WithDiagnostics(w io.Writer) Option {
	return func(d *Dataset) { d.diag = w }
}

// New returns a closed Dataset ready for one of the Initialize calls.
func New(opts ...Option) *Dataset {
	d := &Dataset{
		id:     uuid.New(),
		log:    logger.Default(),
		errs:   DefaultErrors,
		layout: newLayout(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("dataset", d.id.String())
	return d
}

// Errors returns the stack this dataset pushes diagnostics onto.
func (d *Dataset) Errors() *ErrorStack { return d.errs }

// State returns the current lifecycle state.
func (d *Dataset) State() State { return d.state }

// Layout returns a copy of the current schema.
func (d *Dataset) Layout() Layout { return d.layout.clone() }

func (d *Dataset) requireState(states ...State) error {
	for _, s := range states {
		if d.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: operation not valid in state %s", ErrState, d.state)
}

// InitializeOutput creates path and binds this dataset to it for page
// writes. The layout stays mutable until it is committed by WriteLayout
// or the first WritePage. An empty path yields a memory-only session:
// layout and page operations work, page I/O fails with ErrState.
func (d *Dataset) InitializeOutput(path string, enc Encoding, linesPerRow int32, description, contents string) error {
	if err := d.requireState(StateClosed); err != nil {
		return d.fail(err)
	}
	if enc != EncodingBinary && enc != EncodingText {
		return d.failf(ErrInvalidType, "output encoding %d", enc)
	}
	if linesPerRow < 1 {
		linesPerRow = 1
	}
	d.layout = newLayout()
	d.layout.Description = description
	d.layout.Contents = contents
	d.layout.Mode.Encoding = enc
	d.layout.Mode.LinesPerRow = linesPerRow

	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return d.failf(ErrIO, "creating %s: %v", path, err)
		}
		d.file = f
		d.codec = compress.Detect(path)
		d.zw = compress.NewWriter(f, d.codec)
		d.bw = bufio.NewWriter(d.zw)
		d.wr = binaryio.NewWriter(d.bw)
	}
	d.path = path
	d.state = StateOutput
	d.pageCount = 0
	d.lastPageOffset = -1
	d.writtenRows = 0
	d.layoutWritten = false
	d.log.Debug("output initialized", "path", path, "encoding", enc.String(), "codec", d.codec.String())
	return nil
}

// InitializeInput opens an existing file for sequential page reads and
// parses its layout header.
func (d *Dataset) InitializeInput(path string) error {
	if err := d.requireState(StateClosed); err != nil {
		return d.fail(err)
	}
	if err := d.openForReading(path); err != nil {
		return err
	}
	if err := d.readLayout(); err != nil {
		d.closeFile()
		return err
	}
	d.state = StateInput
	d.pageCount = 0
	d.layoutWritten = true
	d.log.Debug("input initialized", "path", path, "columns", len(d.layout.Columns))
	return nil
}

// InitHeaderlessInput opens a bare data table: no header is read, and the
// caller must have defined the layout (columns in file order) before the
// first ReadPage.
func (d *Dataset) InitHeaderlessInput(path string) error {
	if err := d.requireState(StateClosed); err != nil {
		return d.fail(err)
	}
	if err := d.openForReading(path); err != nil {
		return err
	}
	d.headerless = true
	d.layout.Mode.Encoding = EncodingText
	d.layout.Mode.NoRowCounts = true
	d.state = StateInput
	d.pageCount = 0
	d.log.Debug("headerless input initialized", "path", path)
	return nil
}

// InitializeAppend opens an existing file positioned to write new pages
// after the ones already present. Compressed files cannot be appended to.
func (d *Dataset) InitializeAppend(path string) error {
	if err := d.requireState(StateClosed); err != nil {
		return d.fail(err)
	}
	rows, err := d.scanExisting(path, false)
	if err != nil {
		return err
	}
	_ = rows
	d.state = StateAppend
	d.layoutWritten = true
	d.log.Debug("append initialized", "path", path, "pages", d.pageCount)
	return nil
}

// InitializeAppendToPage opens an existing file positioned to extend its
// last page with more rows. It returns the number of rows that page
// already holds. updateInterval is the number of rows added through
// SetRowValues after which the page is rewritten to disk implicitly;
// zero leaves all flushing to WritePage and UpdatePage.
func (d *Dataset) InitializeAppendToPage(path string, updateInterval int32) (int64, error) {
	if err := d.requireState(StateClosed); err != nil {
		return 0, d.fail(err)
	}
	rows, err := d.scanExisting(path, true)
	if err != nil {
		return 0, err
	}
	d.state = StateAppendToPage
	d.layoutWritten = true
	d.updateInterval = updateInterval
	d.log.Debug("append-to-page initialized", "path", path, "rows", rows)
	return rows, nil
}

// openForReading sets up the decompressing read stack.
func (d *Dataset) openForReading(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return d.failf(ErrIO, "opening %s: %v", path, err)
	}
	codec := compress.Detect(path)
	zr, err := compress.NewReader(f, codec)
	if err != nil {
		_ = f.Close()
		return d.failf(ErrIO, "opening %s: %v", path, err)
	}
	d.file = f
	d.codec = codec
	d.path = path
	d.br = bufio.NewReader(zr)
	d.rd = binaryio.NewReader(d.br)
	return nil
}

// scanExisting reads path to its end, loading the layout and counting
// pages, then reopens it for writing at the right position. When
// keepLast is set the final page stays loaded as the current page and
// the write position is that page's start; otherwise the position is the
// end of the file.
func (d *Dataset) scanExisting(path string, keepLast bool) (int64, error) {
	if compress.Detect(path) != compress.CodecNone {
		return 0, d.failf(ErrState, "cannot append to compressed file %s", path)
	}
	if err := d.openForReading(path); err != nil {
		return 0, err
	}
	if err := d.readLayout(); err != nil {
		d.closeFile()
		return 0, err
	}
	var (
		lastStart int64
		lastPage  *page
	)
	for {
		start, err := d.inputOffset()
		if err != nil {
			d.closeFile()
			return 0, d.failf(ErrIO, "locating page start in %s: %v", path, err)
		}
		pg, err := d.readPageData(1, 0, 0)
		if err == io.EOF {
			break
		}
		if err != nil {
			d.closeFile()
			return 0, err
		}
		d.pageCount++
		lastStart = start
		lastPage = pg
	}
	d.closeFile()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, d.failf(ErrIO, "reopening %s: %v", path, err)
	}
	pos := int64(0)
	d.lastPageOffset = -1
	d.writtenRows = 0
	if keepLast && lastPage != nil {
		pos = lastStart
		d.page = lastPage
		d.lastPageOffset = lastStart
		d.writtenRows = lastPage.countRows()
	} else {
		st, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return 0, d.failf(ErrIO, "stat %s: %v", path, err)
		}
		pos = st.Size()
	}
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		_ = f.Close()
		return 0, d.failf(ErrIO, "seeking in %s: %v", path, err)
	}
	if keepLast {
		// The page will be rewritten from its start; drop the stale tail.
		if err := f.Truncate(pos); err != nil {
			_ = f.Close()
			return 0, d.failf(ErrIO, "truncating %s: %v", path, err)
		}
	}
	d.file = f
	d.br = nil
	d.rd = nil
	d.zw = compress.NewWriter(f, compress.CodecNone)
	d.bw = bufio.NewWriter(d.zw)
	d.wr = binaryio.NewWriter(d.bw)
	var rows int64
	if lastPage != nil {
		rows = int64(lastPage.countRows())
	}
	return rows, nil
}

// inputOffset reports the logical read position: the raw file position
// minus whatever the buffered reader has read ahead. Only valid on
// uncompressed input.
func (d *Dataset) inputOffset() (int64, error) {
	raw, err := d.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return raw - int64(d.br.Buffered()), nil
}

func (d *Dataset) closeFile() {
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = nil
	d.br = nil
	d.rd = nil
	d.zw = nil
	d.bw = nil
	d.wr = nil
}

// WriteLayout commits the layout header. Under DeferSavingLayout the
// write is postponed until deferral is switched off.
func (d *Dataset) WriteLayout() error {
	if err := d.requireState(StateOutput); err != nil {
		return d.fail(err)
	}
	if d.layoutWritten {
		return d.failf(ErrState, "layout already written")
	}
	if d.deferLayout {
		d.layoutPending = true
		return nil
	}
	return d.writeLayoutNow()
}

// DeferSavingLayout postpones the physical layout write while on. When
// switched off with a WriteLayout pending, the header is written then.
func (d *Dataset) DeferSavingLayout(on bool) error {
	d.deferLayout = on
	if !on && d.layoutPending {
		d.layoutPending = false
		if !d.layoutWritten {
			return d.writeLayoutNow()
		}
	}
	return nil
}

// SaveLayout checkpoints the in-memory layout.
func (d *Dataset) SaveLayout() {
	saved := d.layout.clone()
	d.savedLayout = &saved
}

// RestoreLayout rolls the in-memory layout back to the last SaveLayout
// checkpoint. Only valid before the layout has been committed to a file.
func (d *Dataset) RestoreLayout() error {
	if d.savedLayout == nil {
		return d.failf(ErrState, "no saved layout to restore")
	}
	if d.layoutWritten {
		return d.failf(ErrState, "layout already committed")
	}
	d.layout = d.savedLayout.clone()
	d.page = nil
	return nil
}

// SetDataMode switches the on-disk encoding. Only meaningful before the
// layout has been committed.
func (d *Dataset) SetDataMode(enc Encoding) error {
	if enc != EncodingBinary && enc != EncodingText {
		return d.failf(ErrInvalidType, "data mode %d", enc)
	}
	if d.layoutWritten {
		return d.failf(ErrState, "data mode fixed once the layout is committed")
	}
	d.layout.Mode.Encoding = enc
	return nil
}

// SetColumnMajorOrder stores column buffers contiguously in binary pages.
func (d *Dataset) SetColumnMajorOrder() error {
	if d.layoutWritten {
		return d.failf(ErrState, "storage order fixed once the layout is committed")
	}
	d.layout.Mode.ColumnMajor = true
	return nil
}

// SetRowMajorOrder interleaves rows in binary pages (the default).
func (d *Dataset) SetRowMajorOrder() error {
	if d.layoutWritten {
		return d.failf(ErrState, "storage order fixed once the layout is committed")
	}
	d.layout.Mode.ColumnMajor = false
	return nil
}

// SetFixedRowCountMode reserves a patchable row count field in each page.
func (d *Dataset) SetFixedRowCountMode() error {
	if d.layoutWritten {
		return d.failf(ErrState, "row count mode fixed once the layout is committed")
	}
	d.layout.Mode.FixedRowCount = true
	return nil
}

// SetNoRowCounts frames text pages by a trailing blank line instead of a
// leading row count.
func (d *Dataset) SetNoRowCounts(on bool) error {
	if d.layoutWritten {
		return d.failf(ErrState, "row count framing fixed once the layout is committed")
	}
	d.layout.Mode.NoRowCounts = on
	return nil
}

// EnableFSync makes every page write durable before WritePage returns.
func (d *Dataset) EnableFSync() { d.layout.Mode.FSync = true }

// DisableFSync restores buffered page writes.
func (d *Dataset) DisableFSync() { d.layout.Mode.FSync = false }

// SetTerminateMode selects string buffer ownership at Terminate.
func (d *Dataset) SetTerminateMode(mode TerminateMode) { d.terminateMode = mode }

// SetAutoCheckMode toggles the implicit consistency check run before
// page I/O.
func (d *Dataset) SetAutoCheckMode(on bool) { d.autoCheck = on }

// GetMode returns the current encoding.
func (d *Dataset) GetMode() Encoding { return d.layout.Mode.Encoding }

// GetDescription returns the dataset description text and contents.
func (d *Dataset) GetDescription() (text, contents string) {
	return d.layout.Description, d.layout.Contents
}

// GetDescriptionText returns the description text alone.
func (d *Dataset) GetDescriptionText() string { return d.layout.Description }

// GetDescriptionContents returns the description contents alone.
func (d *Dataset) GetDescriptionContents() string { return d.layout.Contents }

// EraseData clears all page content without altering the layout.
func (d *Dataset) EraseData() {
	if d.page != nil {
		d.page.clear(&d.layout)
	}
}

// Terminate closes the file and releases all session resources. Output
// sessions that never committed their layout get it written so the file
// on disk is well formed even with zero pages.
func (d *Dataset) Terminate() error {
	if d.state == StateClosed {
		return nil
	}
	var firstErr error
	if d.state == StateOutput && d.file != nil && !d.layoutWritten {
		if err := d.writeLayoutNow(); err != nil {
			firstErr = err
		}
	}
	if d.bw != nil {
		if err := d.bw.Flush(); err != nil && firstErr == nil {
			firstErr = d.failf(ErrIO, "flushing %s: %v", d.path, err)
		}
	}
	if d.zw != nil {
		if err := d.zw.Close(); err != nil && firstErr == nil {
			firstErr = d.failf(ErrIO, "closing codec for %s: %v", d.path, err)
		}
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && firstErr == nil {
			firstErr = d.failf(ErrIO, "closing %s: %v", d.path, err)
		}
	}
	d.log.Debug("terminated", "path", d.path, "pages", d.pageCount)
	d.file = nil
	d.br = nil
	d.rd = nil
	d.zw = nil
	d.bw = nil
	d.wr = nil
	d.page = nil
	d.state = StateClosed
	d.layout = newLayout()
	d.savedLayout = nil
	d.layoutWritten = false
	d.headerless = false
	d.pageCount = 0
	d.writtenRows = 0
	d.updateInterval = 0
	return firstErr
}
