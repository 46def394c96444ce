// Package compression wraps gzip and zstd streams for trace input and mesh export.
package compression

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	TypeNone Type = iota
	TypeGzip
	TypeZstd
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Ext returns the file extension appended to compressed exports, including the dot.
func (t Type) Ext() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseType parses a compression name. The empty string means none.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "", "none", "off":
		return TypeNone, nil
	case "gzip", "gz":
		return TypeGzip, nil
	case "zstd", "zst":
		return TypeZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression type: %s", s)
	}
}

// Level represents the compression level.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect identifies the compression of a stream from its leading bytes.
func Detect(magic []byte) Type {
	switch {
	case hasPrefix(magic, zstdMagic):
		return TypeZstd
	case hasPrefix(magic, gzipMagic):
		return TypeGzip
	default:
		return TypeNone
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// NewReader sniffs r and returns a reader of its decompressed contents along with the
// detected type. Uncompressed input passes through unchanged.
func NewReader(r io.Reader) (io.ReadCloser, Type, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, TypeNone, fmt.Errorf("failed to read stream header: %w", err)
	}

	switch t := Detect(magic); t {
	case TypeGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, t, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, t, nil
	case TypeZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, t, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr.IOReadCloser(), t, nil
	default:
		return io.NopCloser(br), TypeNone, nil
	}
}

// NewWriter returns a writer compressing into w. Close must be called to flush the
// trailer; it does not close w.
func NewWriter(w io.Writer, t Type, level Level) (io.WriteCloser, error) {
	switch t {
	case TypeNone:
		return nopWriteCloser{w}, nil
	case TypeGzip:
		zw, err := gzip.NewWriterLevel(w, gzipLevel(level))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		return zw, nil
	case TypeZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

func gzipLevel(level Level) int {
	switch level {
	case LevelFastest:
		return gzip.BestSpeed
	case LevelBest:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func zstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
