package writer

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/metaflame/pkg/compression"
)

// BufferWriter writes interleaved float32 vertex buffers in little-endian order,
// optionally compressed.
type BufferWriter struct {
	Type  compression.Type
	Level compression.Level
}

// NewBufferWriter creates a buffer writer for the given compression.
func NewBufferWriter(t compression.Type) *BufferWriter {
	return &BufferWriter{Type: t, Level: compression.LevelDefault}
}

// Write encodes buf into writer.
func (w *BufferWriter) Write(buf []float32, writer io.Writer) (*WriteResult, error) {
	out := &countingWriter{w: writer}
	zw, err := compression.NewWriter(out, w.Type, w.Level)
	if err != nil {
		return nil, err
	}
	if err := WriteFloat32s(zw, buf); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s writer: %w", w.Type, err)
	}
	return newWriteResult(int64(len(buf))*4, out.n), nil
}

const chunkFloats = 4096

// WriteFloat32s writes buf as little-endian float32 values.
func WriteFloat32s(w io.Writer, buf []float32) error {
	chunk := make([]byte, 0, chunkFloats*4)
	for len(buf) > 0 {
		n := min(len(buf), chunkFloats)
		chunk = chunk[:0]
		for _, f := range buf[:n] {
			chunk = binary.LittleEndian.AppendUint32(chunk, math.Float32bits(f))
		}
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("failed to write buffer: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

// ReadFloat32s decodes a little-endian float32 stream.
func ReadFloat32s(r io.Reader) ([]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read buffer: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}
