package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/metaflame/internal/exporter"
	"github.com/metaflame/internal/repository"
	"github.com/metaflame/internal/session"
	"github.com/metaflame/internal/storage"
	"github.com/metaflame/pkg/compression"
	"github.com/metaflame/pkg/config"
	"github.com/metaflame/pkg/utils"
)

var (
	// Export command flags
	exportViews       []string
	exportFormat      string
	exportCompression string
	exportDataset     string
	exportOutput      string
	exportSelect      int
	exportSelectFrom  string
)

// exportCmd renders views and uploads them to storage
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render views and upload them to storage",
	Long: `Render the left, right and inspector meshes of a trace file and upload each to
the configured storage under <dataset>/<view>.<ext>.

Meshes are written as JSON ({vertices, colors, settings}) or as a raw
little-endian float32 buffer (xyz triples followed by rgba quadruples), optionally
gzip or zstd compressed. When a database is configured every upload is recorded
in the export ledger.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addInputFlags(exportCmd)

	exportCmd.Flags().StringSliceVar(&exportViews, "view", nil, "Views to export: left, right, inspector (default all)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Mesh format: json or bin")
	exportCmd.Flags().StringVar(&exportCompression, "compression", "none", "Compression: none, gzip or zstd")
	exportCmd.Flags().StringVar(&exportDataset, "dataset", "", "Dataset name used in object keys (default: input file name)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Local output directory (overrides storage config)")
	exportCmd.Flags().IntVar(&exportSelect, "select", -1, "Select this overview slice into the inspector before exporting")
	exportCmd.Flags().StringVar(&exportSelectFrom, "select-from", "left", "Overview to select the slice from")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := GetLogger()
	c := GetConfig()

	req, err := buildExportRequest()
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, c, log)
	if err != nil {
		return err
	}
	if exportSelect >= 0 {
		from, err := session.ParseView(exportSelectFrom)
		if err != nil {
			return err
		}
		if err := sess.SelectSlice(ctx, from, exportSelect); err != nil {
			return err
		}
	}

	storageCfg := c.Storage
	if exportOutput != "" {
		storageCfg.Type = string(storage.StorageTypeLocal)
		storageCfg.LocalPath = exportOutput
	}
	store, err := storage.NewStorage(&storageCfg)
	if err != nil {
		return err
	}

	opts := []exporter.Option{exporter.WithLogger(log)}
	repos, err := openRepositories(ctx, &c.Database, log)
	if err != nil {
		return err
	}
	if repos != nil {
		defer repos.Close()
		opts = append(opts, exporter.WithRepository(repos.Export))
	}

	exports, err := exporter.New(store, opts...).Export(ctx, sess, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range exports {
		fmt.Fprintf(out, "%-10s %8d vertices %10d bytes  %s\n", e.View, e.Vertices, e.Size, e.URL)
	}
	return nil
}

func buildExportRequest() (exporter.Request, error) {
	format, err := exporter.ParseFormat(exportFormat)
	if err != nil {
		return exporter.Request{}, err
	}
	comp, err := compression.ParseType(exportCompression)
	if err != nil {
		return exporter.Request{}, err
	}

	views := make([]session.View, 0, len(exportViews))
	for _, name := range exportViews {
		v, err := session.ParseView(name)
		if err != nil {
			return exporter.Request{}, err
		}
		views = append(views, v)
	}

	dataset := exportDataset
	if dataset == "" {
		dataset = filepath.Base(inputFile)
	}
	return exporter.Request{
		Dataset:     dataset,
		Views:       views,
		Format:      format,
		Compression: comp,
	}, nil
}

// openRepositories connects to the export ledger, or returns nil when it is disabled.
func openRepositories(ctx context.Context, cfg *config.DatabaseConfig, log utils.Logger) (*repository.Repositories, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	repos, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("Export ledger on %s database", cfg.Type)
	return repos, nil
}
