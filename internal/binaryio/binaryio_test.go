package binaryio

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteU8(0xAB); err != nil {
		t.Fatalf("u8: %v", err)
	}
	if err := w.WriteI16(-12345); err != nil {
		t.Fatalf("i16: %v", err)
	}
	if err := w.WriteU16(54321); err != nil {
		t.Fatalf("u16: %v", err)
	}
	if err := w.WriteI32(-2000000000); err != nil {
		t.Fatalf("i32: %v", err)
	}
	if err := w.WriteU32(4000000000); err != nil {
		t.Fatalf("u32: %v", err)
	}
	if err := w.WriteI64(-9000000000000000000); err != nil {
		t.Fatalf("i64: %v", err)
	}
	if err := w.WriteU64(18000000000000000000); err != nil {
		t.Fatalf("u64: %v", err)
	}
	if err := w.WriteF32(math.Pi); err != nil {
		t.Fatalf("f32: %v", err)
	}
	if err := w.WriteF64(math.Pi); err != nil {
		t.Fatalf("f64: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	wantBytes := int64(1 + 2 + 2 + 4 + 4 + 8 + 8 + 4 + 8)
	if w.Offset() != wantBytes {
		t.Fatalf("writer offset = %d, want %d", w.Offset(), wantBytes)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("u8 = %v, %v", v, err)
	}
	if v, err := r.ReadI16(); err != nil || v != -12345 {
		t.Fatalf("i16 = %v, %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 54321 {
		t.Fatalf("u16 = %v, %v", v, err)
	}
	if v, err := r.ReadI32(); err != nil || v != -2000000000 {
		t.Fatalf("i32 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 4000000000 {
		t.Fatalf("u32 = %v, %v", v, err)
	}
	if v, err := r.ReadI64(); err != nil || v != -9000000000000000000 {
		t.Fatalf("i64 = %v, %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 18000000000000000000 {
		t.Fatalf("u64 = %v, %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != float32(math.Pi) {
		t.Fatalf("f32 = %v, %v", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != math.Pi {
		t.Fatalf("f64 = %v, %v", v, err)
	}
	if r.Offset() != wantBytes {
		t.Fatalf("reader offset = %d, want %d", r.Offset(), wantBytes)
	}
}

func TestLittleEndianLayout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteU32(0x01020304); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("bytes = %x, want %x", buf.Bytes(), want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, s := range []string{"", "x", "hello world", "with\x00nul"} {
		if err := w.WriteString(s); err != nil {
			t.Fatalf("write %q: %v", s, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	for _, want := range []string{"", "x", "hello world", "with\x00nul"} {
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("read %q: %v", want, err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if _, err := r.ReadString(); err != io.EOF {
		t.Fatalf("past end: err = %v, want io.EOF", err)
	}
}

func TestStringLengthGuard(t *testing.T) {
	t.Parallel()

	bad := make([]byte, 4)
	binary.LittleEndian.PutUint32(bad, uint32(maxStringLen+1))
	if _, err := NewReader(bytes.NewReader(bad)).ReadString(); err == nil {
		t.Fatal("oversized length accepted")
	}

	binary.LittleEndian.PutUint32(bad, 0x80000000)
	if _, err := NewReader(bytes.NewReader(bad)).ReadString(); err == nil {
		t.Fatal("negative length accepted")
	}
}

func TestTruncatedStream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteF64(1.5); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()[:5]))
	if _, err := r.ReadF64(); err == nil {
		t.Fatal("truncated f64 read succeeded")
	}
}
