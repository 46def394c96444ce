package tracejson

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaflame/internal/parser"
	"github.com/metaflame/internal/testutil"
	"github.com/metaflame/pkg/compression"
)

func TestParser_Parse_Fixture(t *testing.T) {
	p := NewParser(nil, nil)
	traces, err := p.Parse(context.Background(), bytes.NewReader(testutil.LoadFixture(t, "simple.json")))
	require.NoError(t, err)
	assert.Equal(t, testutil.SimpleTraces(), traces)
}

func TestParser_Parse_Compressed(t *testing.T) {
	raw := testutil.SimpleTracesJSON(t)

	for _, typ := range []compression.Type{compression.TypeGzip, compression.TypeZstd} {
		t.Run(typ.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := compression.NewWriter(&buf, typ, compression.LevelFastest)
			require.NoError(t, err)
			_, err = w.Write(raw)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			traces, err := NewParser(nil, nil).Parse(context.Background(), &buf)
			require.NoError(t, err)
			assert.Equal(t, testutil.SimpleTraces(), traces)
		})
	}
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Empty", "", parser.ErrEmptyInput},
		{"Whitespace", "  \n\t", parser.ErrEmptyInput},
		{"EmptyArray", "[]", parser.ErrEmptyInput},
		{"Object", `{"name":"x"}`, parser.ErrInvalidFormat},
		{"BadRecord", `[{"name": 5}]`, parser.ErrInvalidFormat},
		{"Truncated", `[{"name":"x","dur":1}`, parser.ErrInvalidFormat},
		{"NegativeDur", `[{"name":"x","dur":-1}]`, parser.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(nil, nil).Parse(context.Background(), strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParser_Parse_InvalidRecords(t *testing.T) {
	input := `[{"name":"ok","stack":[{"name":"main"}],"dur":5},{"name":"bad","tid":-1,"dur":5}]`

	t.Run("Lenient", func(t *testing.T) {
		traces, err := NewParser(nil, nil).Parse(context.Background(), strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, traces, 1)
		assert.Equal(t, "ok", traces[0].Name)
	})

	t.Run("Strict", func(t *testing.T) {
		p := NewParser(&parser.ParseOptions{StrictMode: true}, nil)
		_, err := p.Parse(context.Background(), strings.NewReader(input))
		assert.ErrorIs(t, err, parser.ErrInvalidRecord)
		assert.Contains(t, err.Error(), "record 1")
	})
}

func TestParser_Parse_MaxRecords(t *testing.T) {
	p := NewParser(&parser.ParseOptions{MaxRecords: 2}, nil)
	traces, err := p.Parse(context.Background(), bytes.NewReader(testutil.SimpleTracesJSON(t)))
	require.NoError(t, err)
	assert.Len(t, traces, 2)
}

func TestParser_Parse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil, nil).Parse(ctx, bytes.NewReader(testutil.SimpleTracesJSON(t)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegisterWithRegistry(t *testing.T) {
	registry := parser.NewRegistry()
	RegisterWithRegistry(registry, nil, WithStrictModeOption(true), WithMaxRecordsOption(7))

	p, ok := registry.ForPath("/tmp/run.json.gz")
	require.True(t, ok)
	assert.Equal(t, "tracejson", p.Name())

	jp := p.(*Parser)
	assert.True(t, jp.opts.StrictMode)
	assert.Equal(t, 7, jp.opts.MaxRecords)

	_, ok = registry.Get("TRACE")
	assert.True(t, ok)
	_, ok = registry.ForPath("profile.pprof")
	assert.False(t, ok)
}
