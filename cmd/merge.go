package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/logger"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/merge"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
)

type mergeFlags struct {
	input, output, prior, sheet, mode string
	base                              []string
	measNS, evidNS, instNS            string
	columns                           map[string]string
	allowNew, evidence, instancesOnly bool
	noPrior, json                     bool
}

var mergeOpts mergeFlags

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a measures workbook into the instance graph",
	Long: `Read the measures sheet of an .xlsx workbook (or a .csv export), resolve every
row's constructs, modalities, techniques and levels against the base graph
and write the merged graph as deterministic Turtle.

In lenient mode (default) rows that cannot be merged are skipped and
reported; in strict mode the first bad row aborts and nothing is written.
Rerunning a merge on the same input produces a byte-identical file.

Defaults: the base graphs are graph.paths without the output file, the
output is the last entry of graph.paths, and an existing output is read
back as the prior instance graph.

Examples:
  explainer merge --input measures.xlsx
  explainer merge --input measures.csv --output out/instances.ttl --mode strict
  explainer merge --input measures.xlsx --evidence --column construct="Target Construct"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runMerge(cmd.Context(), cmd.OutOrStdout(), cfg, mergeOpts, cmd.Flags().Changed)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	f := mergeCmd.Flags()
	f.StringVarP(&mergeOpts.input, "input", "i", "", "workbook (.xlsx) or measures .csv")
	f.StringVarP(&mergeOpts.output, "output", "o", "", "merged Turtle file (default last graph.paths entry)")
	f.StringSliceVar(&mergeOpts.base, "base", nil, "schema graph file(s)")
	f.StringVar(&mergeOpts.prior, "prior", "", "earlier instance graph (default the output file)")
	f.BoolVar(&mergeOpts.noPrior, "no-prior", false, "ignore any earlier instance graph")
	f.StringVar(&mergeOpts.sheet, "sheet", "", "measures worksheet (default merge.sheet)")
	f.StringVar(&mergeOpts.mode, "mode", "", "lenient or strict (default merge.mode)")
	f.StringVar(&mergeOpts.measNS, "meas-ns", "", "measurement namespace (default graph.meas_ns)")
	f.StringVar(&mergeOpts.evidNS, "evid-ns", "", "evidence namespace (default graph.evid_ns)")
	f.StringVar(&mergeOpts.instNS, "inst-ns", "", "instance namespace (default graph.inst_ns)")
	f.StringToStringVar(&mergeOpts.columns, "column", nil, "field=header column override, repeatable")
	f.BoolVar(&mergeOpts.allowNew, "allow-new-constructs", false, "mint constructs missing from the base graph")
	f.BoolVar(&mergeOpts.evidence, "evidence", false, "also merge the publications, studies, effects and class_relationships sheets")
	f.BoolVar(&mergeOpts.instancesOnly, "instances-only", false, "write only instance triples, not the base graph")
	f.BoolVar(&mergeOpts.json, "json", false, "print the merge report as JSON")
	_ = mergeCmd.MarkFlagRequired("input")
}

// mergeOptions combines config defaults with the flags that were set.
func mergeOptions(cfg config.Config, fl mergeFlags, changed func(string) bool) (merge.Options, error) {
	paths := cfg.Graph.Paths
	opts := merge.Options{
		Input:              fl.input,
		Output:             fl.output,
		Sheet:              cfg.Merge.Sheet,
		Mode:               merge.Mode(cfg.Merge.Mode),
		MeasNS:             cfg.Graph.MeasNS,
		EvidNS:             cfg.Graph.EvidNS,
		InstNS:             cfg.Graph.InstNS,
		Columns:            cfg.Merge.Columns,
		AllowNewConstructs: cfg.Merge.AllowNewConstructs,
		Evidence:           cfg.Merge.Evidence,
		InstancesOnly:      fl.instancesOnly,
	}
	if opts.Output == "" {
		if len(paths) == 0 {
			return merge.Options{}, fmt.Errorf("no --output given and graph.paths is empty")
		}
		opts.Output = paths[len(paths)-1]
	}
	if len(fl.base) > 0 {
		opts.BasePaths = fl.base
	} else {
		for _, p := range paths {
			if filepath.Clean(p) != filepath.Clean(opts.Output) {
				opts.BasePaths = append(opts.BasePaths, p)
			}
		}
	}
	switch {
	case fl.noPrior:
	case fl.prior != "":
		opts.PriorPath = fl.prior
	default:
		opts.PriorPath = opts.Output
	}
	if fl.sheet != "" {
		opts.Sheet = fl.sheet
	}
	if fl.mode != "" {
		opts.Mode = merge.Mode(fl.mode)
	}
	if fl.measNS != "" {
		opts.MeasNS = fl.measNS
	}
	if fl.evidNS != "" {
		opts.EvidNS = fl.evidNS
	}
	if fl.instNS != "" {
		opts.InstNS = fl.instNS
	}
	if len(fl.columns) > 0 {
		opts.Columns = fl.columns
	}
	if changed("allow-new-constructs") {
		opts.AllowNewConstructs = fl.allowNew
	}
	if changed("evidence") {
		opts.Evidence = fl.evidence
	}
	return opts, nil
}

func runMerge(ctx context.Context, w io.Writer, cfg config.Config, fl mergeFlags, changed func(string) bool) error {
	opts, err := mergeOptions(cfg, fl, changed)
	if err != nil {
		return staged(stageUsage, err)
	}
	logger.SetInputs(append(append([]string{opts.Input}, opts.BasePaths...), opts.PriorPath)...)

	report, err := merge.Run(ctx, appFs, opts)
	if err != nil {
		if report != nil && len(report.Skipped) > 0 && !fl.json {
			ui.RenderMergeReport(w, report)
		}
		return err
	}
	if fl.json {
		return printJSON(w, report)
	}
	ui.RenderMergeReport(w, report)
	return nil
}
