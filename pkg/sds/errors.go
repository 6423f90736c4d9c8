package sds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sentinel errors returned by the engine. Callers match with errors.Is.
var (
	ErrNotFound          = errors.New("sds: not found")
	ErrInvalidType       = errors.New("sds: invalid type")
	ErrWrongType         = errors.New("sds: wrong type")
	ErrTypeMismatch      = errors.New("sds: type mismatch")
	ErrDimensionMismatch = errors.New("sds: dimension mismatch")
	ErrNameInvalid       = errors.New("sds: invalid name")
	ErrIO                = errors.New("sds: i/o failure")
	ErrFormatCorrupt     = errors.New("sds: corrupt file")
	ErrState             = errors.New("sds: wrong session state")
)

// FatalError marks an unrecoverable invariant violation. The engine never
// terminates the process itself; the top-level caller decides whether a
// FatalError is fatal.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return "sds: fatal: " + e.Msg }

// Bomb returns a FatalError for msg, recording it on the stack first.
// Reserved for corruption-class failures; ordinary validation errors use
// the sentinel errors above.
func (s *ErrorStack) Bomb(msg string) error {
	s.Push(msg)
	return &FatalError{Msg: msg}
}

// PrintMode selects how PrintErrors renders the stack.
type PrintMode int

const (
	// PrintRecent renders only the most recent message.
	PrintRecent PrintMode = iota
	// PrintAll renders the whole stack, oldest first.
	PrintAll
	// PrintVerbose renders the whole stack with positional detail.
	PrintVerbose
	// PrintSilent renders nothing and clears the stack.
	PrintSilent
)

// ErrorStack is an append-only list of diagnostic messages. Each Dataset
// owns one; a shared default exists for handle-style callers. All methods
// are safe for concurrent use.
type ErrorStack struct {
	mu      sync.Mutex
	msgs    []string
	program string
}

// DefaultErrors is the stack used by datasets that were not given their
// own with WithErrorStack.
var DefaultErrors = &ErrorStack{}

// RegisterProgram names the diagnostics source; the name prefixes
// rendered output.
func (s *ErrorStack) RegisterProgram(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = name
}

// Push appends one message.
func (s *ErrorStack) Push(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

// Pushf appends one formatted message.
func (s *ErrorStack) Pushf(format string, args ...any) {
	s.Push(fmt.Sprintf(format, args...))
}

// Count reports the stack depth.
func (s *ErrorStack) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// Clear empties the stack.
func (s *ErrorStack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
}

// Messages returns a copy of the stack, oldest first.
func (s *ErrorStack) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Print renders the stack to w under the given mode, then clears it.
// A nil w defaults to standard error.
func (s *ErrorStack) Print(w io.Writer, mode PrintMode) {
	if w == nil {
		w = os.Stderr
	}
	s.mu.Lock()
	msgs := s.msgs
	program := s.program
	s.msgs = nil
	s.mu.Unlock()

	if mode == PrintSilent || len(msgs) == 0 {
		return
	}
	prefix := ""
	if program != "" {
		prefix = program + ": "
	}
	switch mode {
	case PrintRecent:
		fmt.Fprintf(w, "%serror: %s\n", prefix, msgs[len(msgs)-1])
	case PrintAll:
		for _, m := range msgs {
			fmt.Fprintf(w, "%serror: %s\n", prefix, m)
		}
	case PrintVerbose:
		fmt.Fprintf(w, "%s%d error(s), oldest first:\n", prefix, len(msgs))
		for i, m := range msgs {
			fmt.Fprintf(w, "  [%d/%d] %s\n", i+1, len(msgs), m)
		}
	}
}

// Warning writes msg to w immediately without touching the stack.
// A nil w defaults to standard error.
func (s *ErrorStack) Warning(w io.Writer, msg string) {
	if w == nil {
		w = os.Stderr
	}
	s.mu.Lock()
	program := s.program
	s.mu.Unlock()
	if program != "" {
		fmt.Fprintf(w, "%s: warning: %s\n", program, msg)
		return
	}
	fmt.Fprintf(w, "warning: %s\n", msg)
}

// fail records err on the stack and returns it. Used throughout the
// engine so every returned error is also visible via the stack.
func (d *Dataset) fail(err error) error {
	if err == nil {
		return nil
	}
	d.errs.Push(err.Error())
	return err
}

func (d *Dataset) failf(sentinel error, format string, args ...any) error {
	return d.fail(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}
