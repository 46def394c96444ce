package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaflame/internal/mock"
	"github.com/metaflame/internal/testutil"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"run.json", "json"},
		{"dir/run.JSON.gz", "json"},
		{"run.trace.zst", "trace"},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatOf(tt.path))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("json")
	assert.False(t, ok)
	assert.Equal(t, &ParseOptions{}, DefaultParseOptions())

	p := new(mock.MockParser)
	p.ExpectParse(testutil.SimpleTraces(), nil)
	r.Register("JSON", p)

	got, ok := r.ForPath("/tmp/run.json.zst")
	require.True(t, ok)
	assert.Same(t, p, got)

	traces, err := got.Parse(context.Background(), strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Len(t, traces, 3)
	p.AssertExpectations(t)

	_, ok = r.ForPath("run.pprof")
	assert.False(t, ok)
}
