package sds

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorStackRecordsFailures(t *testing.T) {
	t.Parallel()

	stack := &ErrorStack{}
	ds := New(WithErrorStack(stack))
	if err := ds.InitializeOutput("", EncodingBinary, 1, "", ""); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := ds.DefineSimpleColumn("bad name", "", TypeLong); err == nil {
		t.Fatal("invalid name accepted")
	}
	if stack.Count() != 1 {
		t.Fatalf("stack depth: got %d want 1", stack.Count())
	}
	msgs := stack.Messages()
	if !strings.Contains(msgs[0], "bad name") {
		t.Fatalf("message does not name the column: %q", msgs[0])
	}
	stack.Clear()
	if stack.Count() != 0 {
		t.Fatalf("stack not cleared: %d", stack.Count())
	}
}

func TestErrorStackPrintModes(t *testing.T) {
	t.Parallel()

	stack := &ErrorStack{}
	stack.RegisterProgram("scanproc")
	stack.Push("first")
	stack.Push("second")

	var sb strings.Builder
	stack.Print(&sb, PrintRecent)
	out := sb.String()
	if !strings.Contains(out, "second") || strings.Contains(out, "first") {
		t.Fatalf("recent mode output: %q", out)
	}
	if !strings.HasPrefix(out, "scanproc: ") {
		t.Fatalf("program prefix missing: %q", out)
	}
	if stack.Count() != 0 {
		t.Fatalf("print did not clear the stack: %d", stack.Count())
	}

	stack.Push("one")
	stack.Push("two")
	sb.Reset()
	stack.Print(&sb, PrintAll)
	out = sb.String()
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Fatalf("all mode output: %q", out)
	}

	stack.Push("silent")
	sb.Reset()
	stack.Print(&sb, PrintSilent)
	if sb.Len() != 0 {
		t.Fatalf("silent mode produced output: %q", sb.String())
	}
	if stack.Count() != 0 {
		t.Fatalf("silent mode did not clear the stack: %d", stack.Count())
	}
}

func TestBombReturnsFatalError(t *testing.T) {
	t.Parallel()

	stack := &ErrorStack{}
	err := stack.Bomb("page directory corrupt")
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("Bomb: got %T want *FatalError", err)
	}
	if !strings.Contains(fatal.Error(), "page directory corrupt") {
		t.Fatalf("fatal message: %q", fatal.Error())
	}
	if stack.Count() != 1 {
		t.Fatalf("Bomb did not record: %d", stack.Count())
	}
}

func TestWarningBypassesStack(t *testing.T) {
	t.Parallel()

	stack := &ErrorStack{}
	var sb strings.Builder
	stack.Warning(&sb, "deprecated layout attribute")
	if !strings.Contains(sb.String(), "warning: deprecated layout attribute") {
		t.Fatalf("warning output: %q", sb.String())
	}
	if stack.Count() != 0 {
		t.Fatalf("warning touched the stack: %d", stack.Count())
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	t.Parallel()

	ds := New(WithErrorStack(&ErrorStack{}))
	if err := ds.InitializeOutput("", EncodingBinary, 1, "", ""); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_, err := ds.GetColumnIndex("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("lookup error: got %v want ErrNotFound", err)
	}
}
