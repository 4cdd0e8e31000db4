package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/logger"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/views"
)

type globalOptions struct {
	out         string
	maxMeasures int
}

type queryOptions struct {
	text    string
	k       int
	out     string
	json    bool
	filters search.Filters
}

type setOptions struct {
	measures string
	out      string
	json     bool
}

var (
	globalOpts globalOptions
	queryOpts  queryOptions
	setOpts    setOptions

	minEffect, maxEffect, maxPValue float64
)

var globalCmd = &cobra.Command{
	Use:   "global",
	Short: "Render the whole measure graph",
	Long: `Render every measure with its constructs, modalities, techniques and
levels as a node/edge document. Large graphs are capped with --max-measures.

Examples:
  explainer global --out views/global.json
  explainer global --graph ontology/teamMeasurement.ttl --graph ontology/instances.ttl --out global.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGlobal(cmd.Context(), cmd.OutOrStdout(), globalOpts)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank constructs semantically for a text",
	Long: `Embed the text, rank constructs by cosine similarity against the embedding
index and attach each construct's measures and evidence. Filters restrict the
attached measures, and a construct left with no matching measure is dropped.

Examples:
  explainer query --text "how well team members anticipate each other" --k 5
  explainer query --text "physiological synchrony" --modality ECG --level team --out q.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := queryOpts
		if cmd.Flags().Changed("min-effect") {
			opts.filters.MinEffect = &minEffect
		}
		if cmd.Flags().Changed("max-effect") {
			opts.filters.MaxEffect = &maxEffect
		}
		if cmd.Flags().Changed("max-p") {
			opts.filters.MaxPValue = &maxPValue
		}
		return runQuery(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Show the constructs a measure set covers",
	Long: `Read a measure set (one reference per line, or YAML) and report which
constructs it covers. Constructs covered by a single measure are gaps.

Examples:
  explainer set --measures my_study.txt
  explainer set --measures my_study.yaml --out coverage.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSet(cmd.Context(), cmd.OutOrStdout(), setOpts)
	},
}

func init() {
	rootCmd.AddCommand(globalCmd, queryCmd, setCmd)

	globalCmd.Flags().StringVarP(&globalOpts.out, "out", "o", "", "write the view to this .json or .yaml file")
	globalCmd.Flags().IntVar(&globalOpts.maxMeasures, "max-measures", views.DefaultMaxMeasures, "cap on rendered measures")

	queryCmd.Flags().StringVarP(&queryOpts.text, "text", "t", "", "free text to search for")
	queryCmd.Flags().IntVar(&queryOpts.k, "k", 0, "constructs to return (default search.default_k)")
	queryCmd.Flags().StringVarP(&queryOpts.out, "out", "o", "", "write the view to this .json or .yaml file")
	queryCmd.Flags().BoolVar(&queryOpts.json, "json", false, "print results as JSON")
	queryCmd.Flags().StringSliceVar(&queryOpts.filters.Levels, "level", nil, "keep measures at these levels of analysis")
	queryCmd.Flags().StringSliceVar(&queryOpts.filters.Modalities, "modality", nil, "keep measures using these modalities")
	queryCmd.Flags().StringSliceVar(&queryOpts.filters.Techniques, "technique", nil, "keep measures using these analytic techniques")
	queryCmd.Flags().Float64Var(&minEffect, "min-effect", 0, "minimum effect size value")
	queryCmd.Flags().Float64Var(&maxEffect, "max-effect", 0, "maximum effect size value")
	queryCmd.Flags().Float64Var(&maxPValue, "max-p", 0, "maximum p-value")
	_ = queryCmd.MarkFlagRequired("text")

	setCmd.Flags().StringVarP(&setOpts.measures, "measures", "m", "", "measure set file")
	setCmd.Flags().StringVarP(&setOpts.out, "out", "o", "", "write the view to this .json or .yaml file")
	setCmd.Flags().BoolVar(&setOpts.json, "json", false, "print the coverage report as JSON")
	_ = setCmd.MarkFlagRequired("measures")
}

func runGlobal(ctx context.Context, w io.Writer, opts globalOptions) error {
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	doc := views.Global(a.View, opts.maxMeasures)
	if opts.out == "" {
		fmt.Fprintln(w, ui.StyleTitle.Render(doc.Title))
		ui.RenderStats(w, a.Stats())
		return nil
	}
	return writeView(w, doc, opts.out)
}

func runQuery(ctx context.Context, w io.Writer, opts queryOptions) error {
	logger.SetQuery(opts.text)
	a, err := loadApp(ctx, app.OpenOptions{RequireIndex: true})
	if err != nil {
		return err
	}
	res, err := a.Search(ctx, opts.text, opts.k, opts.filters)
	if err != nil {
		return staged(stageQuery, err)
	}
	if err := writeView(w, views.Query(res.Query, res.K, res.Results), opts.out); err != nil {
		return err
	}
	if opts.json {
		return printJSON(w, res)
	}
	ui.RenderSearch(w, res)
	return nil
}

func runSet(ctx context.Context, w io.Writer, opts setOptions) error {
	refs, err := views.ReadMeasureSet(appFs, opts.measures)
	if err != nil {
		return staged(stageOf(err), err)
	}
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	logger.SetInputs(append(append([]string{}, a.Sources...), opts.measures)...)
	report, err := a.Coverage(refs)
	if err != nil {
		return staged(stageQuery, err)
	}
	doc, err := views.Set(a.View, report)
	if err != nil {
		return staged(stageQuery, err)
	}
	if err := writeView(w, doc, opts.out); err != nil {
		return err
	}
	if opts.json {
		return printJSON(w, report)
	}
	ui.RenderCoverage(w, report)
	return nil
}
