// Package parser defines the interfaces for loading trace records.
package parser

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/metaflame/pkg/model"
)

// Parser is the interface for decoding trace records.
type Parser interface {
	// Parse decodes every trace record in reader.
	Parse(ctx context.Context, reader io.Reader) ([]model.Trace, error)

	// SupportedFormats returns the formats supported by this parser.
	SupportedFormats() []string

	// Name returns the name of this parser.
	Name() string
}

// ParserOption is a function that configures a Parser.
type ParserOption func(interface{})

// Registry holds registered parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser Registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register registers a parser with the given format name.
func (r *Registry) Register(format string, parser Parser) {
	r.parsers[strings.ToLower(format)] = parser
}

// Get returns a parser for the given format.
func (r *Registry) Get(format string) (Parser, bool) {
	parser, ok := r.parsers[strings.ToLower(format)]
	return parser, ok
}

// ForPath picks a parser by file extension, ignoring a trailing compression suffix.
func (r *Registry) ForPath(path string) (Parser, bool) {
	return r.Get(FormatOf(path))
}

// FormatOf returns the format name implied by path, e.g. "json" for "run.json.gz".
func FormatOf(path string) string {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".gz", ".zst"} {
		base = strings.TrimSuffix(base, suffix)
	}
	return strings.TrimPrefix(filepath.Ext(base), ".")
}

// ParseOptions holds common parsing options.
type ParseOptions struct {
	// StrictMode fails on records with invalid field values instead of skipping them.
	StrictMode bool

	// MaxRecords limits the number of records decoded. Zero means no limit.
	MaxRecords int
}

// DefaultParseOptions returns default parsing options.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{}
}
