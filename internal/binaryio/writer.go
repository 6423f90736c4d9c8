package binaryio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer encodes little-endian scalars onto a buffered stream.
// Flush must be called before the underlying stream is closed or synced.
type Writer struct {
	w   *bufio.Writer
	off int64
	buf [8]byte
}

func NewWriter(wr io.Writer) *Writer {
	if bw, ok := wr.(*bufio.Writer); ok {
		return &Writer{w: bw}
	}
	return &Writer{w: bufio.NewWriter(wr)}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.off }

func (w *Writer) Flush() error { return w.w.Flush() }

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.off += int64(n)
	return err
}

func (w *Writer) WriteU8(v uint8) error {
	if err := w.w.WriteByte(v); err != nil {
		return err
	}
	w.off++
	return nil
}

func (w *Writer) WriteU16(v uint16) error {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	return w.write(w.buf[:2])
}

func (w *Writer) WriteI16(v int16) error { return w.WriteU16(uint16(v)) }

func (w *Writer) WriteU32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

func (w *Writer) WriteI32(v int32) error { return w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.write(w.buf[:8])
}

func (w *Writer) WriteI64(v int64) error { return w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) error { return w.WriteU32(math.Float32bits(v)) }

func (w *Writer) WriteF64(v float64) error { return w.WriteU64(math.Float64bits(v)) }

// WriteString writes an int32 length prefix followed by the raw bytes.
func (w *Writer) WriteString(s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string length %d out of range", len(s))
	}
	if err := w.WriteI32(int32(len(s))); err != nil {
		return err
	}
	return w.write([]byte(s))
}
