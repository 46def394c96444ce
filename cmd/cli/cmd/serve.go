package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/metaflame/internal/webui"
)

var (
	// Serve command flags
	host string
	port int
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a trace's meshes over HTTP",
	Long: `Load a trace file and serve its session over a JSON API for a browser renderer.

The API exposes the left and right overview meshes and the inspector flamegraph,
and accepts view updates, slice selection, recoloring, scheme changes, pointer
lookups and highlight requests. Meshes are available as JSON or as raw float32
buffers (?format=bin).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addInputFlags(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Serve with default settings (127.0.0.1:8080)
  ` + binName + ` serve -i ./traces.json

  # Listen on all interfaces on port 9090
  ` + binName + ` serve -i ./traces.json --host 0.0.0.0 -p 9090`

	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port for web server (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	c := GetConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, c, log)
	if err != nil {
		return err
	}

	srvCfg := c.Server
	if host != "" {
		srvCfg.Host = host
	}
	if port != 0 {
		srvCfg.Port = port
	}

	var opts []webui.Option
	repos, err := openRepositories(ctx, &c.Database, log)
	if err != nil {
		return err
	}
	if repos != nil {
		defer repos.Close()
		opts = append(opts, webui.WithExports(repos.Export))
	}

	server := webui.NewServer(sess, srvCfg.Addr(), log, opts...)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
