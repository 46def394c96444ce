package tracejson

import (
	"github.com/metaflame/internal/parser"
	"github.com/metaflame/pkg/utils"
)

// Factory creates trace JSON parsers.
type Factory struct {
	logger utils.Logger
}

// NewFactory creates a new Factory.
func NewFactory(logger utils.Logger) *Factory {
	return &Factory{logger: logger}
}

// Create creates a trace JSON parser with the given options.
func (f *Factory) Create(opts ...parser.ParserOption) (parser.Parser, error) {
	parserOpts := parser.DefaultParseOptions()
	for _, opt := range opts {
		opt(parserOpts)
	}
	return NewParser(parserOpts, f.logger), nil
}

// RegisterWithRegistry registers the trace JSON parser for each supported format.
func RegisterWithRegistry(registry *parser.Registry, logger utils.Logger, opts ...parser.ParserOption) {
	p, _ := NewFactory(logger).Create(opts...)
	for _, format := range p.SupportedFormats() {
		registry.Register(format, p)
	}
}

// WithStrictModeOption returns a parser option that enables strict mode.
func WithStrictModeOption(strict bool) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*parser.ParseOptions); ok {
			o.StrictMode = strict
		}
	}
}

// WithMaxRecordsOption returns a parser option that caps the number of records.
func WithMaxRecordsOption(n int) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*parser.ParseOptions); ok {
			o.MaxRecords = n
		}
	}
}
