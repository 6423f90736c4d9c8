// Package binaryio provides little-endian primitive I/O for the binary
// page encoding: fixed-width scalars and length-prefixed strings over a
// buffered stream.
package binaryio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// maxStringLen bounds a single length-prefixed string. Anything larger is
// treated as stream corruption rather than an allocation request.
const maxStringLen = 1 << 28

// Reader decodes little-endian scalars from a stream.
type Reader struct {
	r   *bufio.Reader
	off int64
}

func NewReader(rd io.Reader) *Reader {
	if br, ok := rd.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(rd)}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.off }

func (r *Reader) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid read length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	r.off += int64(n)
	return buf, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.off++
	return b, nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	u, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (r *Reader) ReadF64() (float64, error) {
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// ReadString reads an int32 length prefix followed by that many bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadI32()
	if err != nil {
		return "", err
	}
	if n < 0 || n > maxStringLen {
		return "", fmt.Errorf("string length %d out of range", n)
	}
	if n == 0 {
		return "", nil
	}
	b, err := r.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
