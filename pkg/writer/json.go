// Package writer encodes view trees as JSON and meshes as packed float32 buffers.
package writer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/metaflame/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteResult contains statistics about a compressed write.
type WriteResult struct {
	RawSize        int64
	CompressedSize int64
	CompressionPct float64
}

func newWriteResult(raw, compressed int64) *WriteResult {
	pct := 0.0
	if raw > 0 {
		pct = float64(compressed) / float64(raw) * 100
	}
	return &WriteResult{RawSize: raw, CompressedSize: compressed, CompressionPct: pct}
}

// CompressedWriter writes JSON through a compression stream.
type CompressedWriter[T any] struct {
	Type  compression.Type
	Level compression.Level
}

// NewCompressedWriter creates a compressed JSON writer with the default level.
func NewCompressedWriter[T any](t compression.Type) *CompressedWriter[T] {
	return &CompressedWriter[T]{Type: t, Level: compression.LevelDefault}
}

// Write encodes data into writer and reports raw and compressed sizes.
func (w *CompressedWriter[T]) Write(data T, writer io.Writer) (*WriteResult, error) {
	out := &countingWriter{w: writer}
	zw, err := compression.NewWriter(out, w.Type, w.Level)
	if err != nil {
		return nil, err
	}
	raw := &countingWriter{w: zw}
	if err := json.NewEncoder(raw).Encode(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s writer: %w", w.Type, err)
	}
	return newWriteResult(raw.n, out.n), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
