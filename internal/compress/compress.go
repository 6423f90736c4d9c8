// Package compress provides transparent stream compression for dataset
// files, selected by filename extension. Compressed files are sequential
// only: they cannot be updated in place.
package compress

import (
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4"
)

type Codec int

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecLZ4
	CodecGzip
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecLZ4:
		return "lz4"
	case CodecGzip:
		return "gzip"
	default:
		return "codec(?)"
	}
}

// Detect picks a codec from the filename extension.
func Detect(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sz":
		return CodecSnappy
	case ".lz4":
		return CodecLZ4
	case ".gz":
		return CodecGzip
	default:
		return CodecNone
	}
}

// WriteFlushCloser is the writer side of a codec. Flush makes all bytes
// written so far decodable; Close terminates the stream.
type WriteFlushCloser interface {
	io.Writer
	Flush() error
	Close() error
}

type passthrough struct{ io.Writer }

func (passthrough) Flush() error { return nil }
func (passthrough) Close() error { return nil }

// NewReader wraps r with the decompressor for c.
func NewReader(r io.Reader, c Codec) (io.Reader, error) {
	switch c {
	case CodecSnappy:
		return snappy.NewReader(r), nil
	case CodecLZ4:
		return lz4.NewReader(r), nil
	case CodecGzip:
		return gzip.NewReader(r)
	default:
		return r, nil
	}
}

// NewWriter wraps w with the compressor for c.
func NewWriter(w io.Writer, c Codec) WriteFlushCloser {
	switch c {
	case CodecSnappy:
		return snappy.NewBufferedWriter(w)
	case CodecLZ4:
		zw := lz4.NewWriter(w)
		zw.NoChecksum = true
		return zw
	case CodecGzip:
		return gzip.NewWriter(w)
	default:
		return passthrough{w}
	}
}
