package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/server"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
)

var serveOrigins []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer over a read-only HTTP JSON API",
	Long: `Load the graph and the embedding index once and answer search, paths,
coverage and evidence requests over HTTP until interrupted. Prometheus
metrics are exposed on /metrics.

Examples:
  explainer serve
  explainer serve --addr :9090 --origin http://localhost:5173`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "browser origin allowed by CORS, repeatable")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp(ctx, app.OpenOptions{Serving: true})
	if err != nil {
		return err
	}
	srv := server.New(a, a.Cfg.Server, version, serveOrigins)

	if ui.IsInteractive() {
		fmt.Fprintln(os.Stderr, ui.RenderInfoPanel("explainer API", fmt.Sprintf(
			"listening on http://%s\ngraph: %d triples from %d files\nsemantic search: %t",
			srv.Addr(), a.Store.Len(), len(a.Sources), a.Index != nil)))
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errChan:
		runErr = staged(stageRun, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown", "error", err)
	}
	wg.Wait()
	return runErr
}
