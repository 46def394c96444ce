package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/metaflame/pkg/config"
	"github.com/metaflame/pkg/telemetry"
	"github.com/metaflame/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger            utils.Logger
	cfg               *config.Config
	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "metaflame",
	Short: "Aggregate profiling traces into flamegraph and overview meshes",
	Long: `metaflame folds timed stack traces into an aggregate call tree and renders it
as meshes: two 3D overviews that spread the tree across time buckets or threads,
and a 2D flamegraph inspector of one selected slice.

Meshes can be exported to local or COS object storage, or served over a JSON API
for a browser renderer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logLevel := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			logLevel = utils.LevelDebug
		}
		if cfg.Log.File != "" {
			fl, err := utils.NewFileLogger(logLevel, cfg.Log.File)
			if err != nil {
				return err
			}
			logger = fl
		} else {
			logger = utils.NewDefaultLogger(logLevel, os.Stderr)
		}
		utils.SetGlobalLogger(logger)

		opts := []telemetry.Option{
			telemetry.WithEndpoint(cfg.Telemetry.Endpoint),
			telemetry.WithServiceVersion(Version),
		}
		if cfg.Telemetry.Enabled {
			opts = append(opts, telemetry.WithEnabled(true))
		}
		shutdown, err := telemetry.Init(cmd.Context(), opts...)
		if err != nil {
			logger.Warn("Failed to initialize telemetry: %v", err)
		}
		telemetryShutdown = shutdown
		if telemetry.Enabled() {
			logger.Debug("Tracing enabled, exporting to %s", telemetry.GetConfig().Endpoint)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(context.Background()); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: config.yaml in ., ./configs, /etc/metaflame)")

	binName := BinName()
	rootCmd.Example = `  # Summarize a trace file
  ` + binName + ` info -i ./traces.json

  # Export every view as gzip-compressed JSON
  ` + binName + ` export -i ./traces.json --compression gzip

  # Export the inspector as a raw float buffer for slice 2 of the left overview
  ` + binName + ` export -i ./traces.json --view inspector --select 2 --format bin

  # Serve the session API
  ` + binName + ` serve -i ./traces.json -p 8080`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	if logger == nil {
		return &utils.NullLogger{}
	}
	return logger
}

// GetConfig returns the loaded configuration, or the defaults before the root command ran.
func GetConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

func requireInput(path string) error {
	if path == "" {
		return fmt.Errorf("input file is required (use -i)")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", path)
	}
	return nil
}
