// Package tracejson decodes JSON arrays of trace records.
package tracejson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/metaflame/internal/parser"
	"github.com/metaflame/pkg/compression"
	"github.com/metaflame/pkg/model"
	"github.com/metaflame/pkg/utils"
)

// Parser decodes a JSON array of trace records as a token stream.
type Parser struct {
	opts   *parser.ParseOptions
	logger utils.Logger
}

// NewParser creates a trace JSON parser.
func NewParser(opts *parser.ParseOptions, logger utils.Logger) *Parser {
	if opts == nil {
		opts = parser.DefaultParseOptions()
	}
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Parser{opts: opts, logger: logger}
}

// Name returns "tracejson".
func (p *Parser) Name() string {
	return "tracejson"
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"json", "trace"}
}

// Parse decodes records from reader, which may be gzip or zstd compressed.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]model.Trace, error) {
	r, typ, err := compression.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrInvalidFormat, err)
	}
	defer r.Close()
	if typ != compression.TypeNone {
		p.logger.Debug("Decompressing %s trace input", typ)
	}

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, parser.ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrInvalidFormat, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: expected array of trace records, got %v", parser.ErrInvalidFormat, tok)
	}

	var traces []model.Trace
	skipped := 0
	for index := 0; dec.More(); index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.opts.MaxRecords > 0 && len(traces) >= p.opts.MaxRecords {
			p.logger.Warn("Stopping after %d records", p.opts.MaxRecords)
			return p.finish(traces, skipped)
		}

		var t model.Trace
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", parser.ErrInvalidFormat, index, err)
		}
		if err := validate(&t); err != nil {
			if p.opts.StrictMode {
				return nil, fmt.Errorf("record %d: %w", index, err)
			}
			skipped++
			continue
		}
		traces = append(traces, t)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrInvalidFormat, err)
	}
	return p.finish(traces, skipped)
}

func (p *Parser) finish(traces []model.Trace, skipped int) ([]model.Trace, error) {
	if skipped > 0 {
		p.logger.Warn("Skipped %d invalid trace records", skipped)
	}
	if len(traces) == 0 {
		return nil, parser.ErrEmptyInput
	}
	p.logger.Debug("Decoded %d trace records", len(traces))
	return traces, nil
}

func validate(t *model.Trace) error {
	if t.TID < 0 {
		return fmt.Errorf("%w: negative tid %d", parser.ErrInvalidRecord, t.TID)
	}
	if t.End() < t.Start {
		return fmt.Errorf("%w: end overflows", parser.ErrInvalidRecord)
	}
	return nil
}
