package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	embindex "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/embedding"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
)

var indexOut string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the construct embedding index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed every construct and write the index artifact",
	Long: `Embed the label and description of every construct in the loaded graph
with the configured provider and write the vectors to a SQLite artifact.
The artifact records the model, so queries embedded with a different
model are rejected.

Examples:
  explainer index build
  explainer index build --out ontology/constructs.embeddings.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexBuild(cmd.Context(), cmd.OutOrStdout(), indexOut)
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the index artifact with the loaded graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexStatus(cmd.Context(), cmd.OutOrStdout(), jsonOutput)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd, indexStatusCmd)

	indexBuildCmd.Flags().StringVarP(&indexOut, "out", "o", "", "artifact path (default embedding.artifact)")
	indexStatusCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

func runIndexBuild(ctx context.Context, w io.Writer, out string) error {
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	if out == "" {
		out = a.Cfg.Embedding.Artifact
	}
	emb, err := a.NewEmbedder(ctx)
	if err != nil {
		return staged(stageConfig, err)
	}

	constructs := a.View.Constructs()
	start := time.Now()
	ix, err := embindex.Build(ctx, constructs, emb, embindex.BuildOptions{
		Model:   a.EmbeddingModelName(),
		Timeout: a.Cfg.Embedding.Timeout,
	})
	if err != nil {
		return staged(stageRun, err)
	}
	if err := embindex.Save(ix, out); err != nil {
		return staged(stageSerialize, err)
	}
	fmt.Fprintln(w, ui.RenderInfoPanel("Index built", fmt.Sprintf(
		"%d constructs, %d dimensions\nmodel: %s\nwrote %s in %s",
		ix.Len(), ix.Dimensions(), ix.Model(), out, time.Since(start).Round(time.Millisecond))))
	return nil
}

// IndexStatus compares an artifact with the constructs of the graph.
type IndexStatus struct {
	Artifact string   `json:"artifact"`
	Model    string   `json:"model"`
	Vectors  int      `json:"vectors"`
	Graph    int      `json:"graph_constructs"`
	Stale    []string `json:"stale,omitempty"`
	Orphans  []string `json:"orphans,omitempty"`
}

func runIndexStatus(ctx context.Context, w io.Writer, asJSON bool) error {
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	ix, err := embindex.Open(a.Cfg.Embedding.Artifact)
	if err != nil {
		return staged(stageLoad, err)
	}
	constructs := a.View.Constructs()
	st := IndexStatus{
		Artifact: a.Cfg.Embedding.Artifact,
		Model:    ix.Model(),
		Vectors:  ix.Len(),
		Graph:    len(constructs),
		Stale:    ix.Stale(constructs),
		Orphans:  ix.Orphans(constructs),
	}
	if asJSON {
		return printJSON(w, st)
	}

	body := fmt.Sprintf("model: %s\nvectors: %d, graph constructs: %d", st.Model, st.Vectors, st.Graph)
	if len(st.Stale) == 0 && len(st.Orphans) == 0 {
		fmt.Fprintln(w, ui.RenderInfoPanel("Index up to date", body))
		return nil
	}
	body += fmt.Sprintf("\nstale: %d, orphans: %d\nrun `explainer index build` to refresh", len(st.Stale), len(st.Orphans))
	fmt.Fprintln(w, ui.RenderWarningPanel("Index out of date", body))
	for _, iri := range st.Stale {
		fmt.Fprintf(w, "  stale   %s\n", iri)
	}
	for _, iri := range st.Orphans {
		fmt.Fprintf(w, "  orphan  %s\n", iri)
	}
	return nil
}
