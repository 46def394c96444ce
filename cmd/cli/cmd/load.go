package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metaflame/internal/calltree"
	"github.com/metaflame/internal/parser"
	"github.com/metaflame/internal/parser/tracejson"
	"github.com/metaflame/internal/session"
	"github.com/metaflame/pkg/config"
	"github.com/metaflame/pkg/model"
	"github.com/metaflame/pkg/utils"
)

var (
	// Input flags shared by info, export and serve
	inputFile  string
	strictMode bool
	maxRecords int
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Trace file: JSON array, optionally gzip or zstd compressed (required)")
	cmd.Flags().BoolVar(&strictMode, "strict", false, "Fail on invalid records instead of skipping them")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "Stop after this many records (0 = no limit)")
}

// loadTraces parses path with the parser registered for its extension, falling back to
// trace JSON for unknown extensions.
func loadTraces(ctx context.Context, path string, log utils.Logger) ([]model.Trace, error) {
	registry := parser.NewRegistry()
	tracejson.RegisterWithRegistry(registry, log,
		tracejson.WithStrictModeOption(strictMode),
		tracejson.WithMaxRecordsOption(maxRecords),
	)

	p, ok := registry.ForPath(path)
	if !ok {
		p, _ = registry.Get("json")
		log.Debug("No parser for %q, assuming trace JSON", parser.FormatOf(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	traces, err := p.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return traces, nil
}

// sessionOptions maps the view and color config onto session options.
func sessionOptions(c *config.Config, log utils.Logger) []session.Option {
	view := c.View
	metric, axis := c.Metric(), c.Axis()
	return []session.Option{
		session.WithLogger(log),
		session.WithInspectorHeight(float32(view.InspectorHeight)),
		session.WithTreeOptions(
			calltree.WithScheme(c.ColorScheme()),
			calltree.WithSalt(c.Color.Salt),
			calltree.WithValueMode(c.ValueMode()),
		),
		session.WithOverviewDefaults(func(st *session.Settings) {
			st.Metric = metric
			st.Axis = axis
			st.NumBuckets = view.Buckets
			st.BarSpacing = view.Spacing
			st.MinFraction = view.MinFraction
		}),
	}
}

func openSession(ctx context.Context, c *config.Config, log utils.Logger) (*session.Session, error) {
	if err := requireInput(inputFile); err != nil {
		return nil, err
	}

	timer := utils.NewTimer("load", utils.WithLogger(log))
	var traces []model.Trace
	if _, err := timer.Time("parse", func() error {
		var err error
		traces, err = loadTraces(ctx, inputFile, log)
		return err
	}); err != nil {
		return nil, err
	}

	var sess *session.Session
	if _, err := timer.Time("build", func() error {
		var err error
		sess, err = session.New(ctx, traces, sessionOptions(c, log)...)
		return err
	}); err != nil {
		return nil, err
	}

	timer.PrintSummary()
	return sess, nil
}
