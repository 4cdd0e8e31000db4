package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/logger"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/views"
)

// openApp loads the configured graph and, unless skipped, the index.
func openApp(ctx context.Context, cfg config.Config, opts app.OpenOptions) (*app.Context, error) {
	logger.SetInputs(cfg.Graph.Paths...)
	a, err := app.Open(ctx, appFs, cfg, opts)
	if err != nil {
		return nil, staged(stageOf(err), err)
	}
	return a, nil
}

// loadApp is loadConfig followed by openApp.
func loadApp(ctx context.Context, opts app.OpenOptions) (*app.Context, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openApp(ctx, cfg, opts)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return staged(stageSerialize, fmt.Errorf("encode json: %w", err))
	}
	return nil
}

// writeView writes doc to out when set and reports where it went.
func writeView(w io.Writer, doc views.Document, out string) error {
	if out == "" {
		return nil
	}
	if err := views.Write(appFs, out, doc); err != nil {
		return staged(stageSerialize, err)
	}
	fmt.Fprintf(w, "wrote %s (%d nodes, %d edges)\n", out, len(doc.Nodes), len(doc.Edges))
	return nil
}
