package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/logger"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
)

var (
	jsonOutput bool
	maxHops    int
	construct  string
	inspectTop int
	listLike   string
)

var pathsCmd = &cobra.Command{
	Use:   "paths <from> <to>",
	Short: "Find relationship paths between two constructs",
	Long: `List every simple path from one construct to another, shortest first.
Constructs are linked by shared measures, effect sizes and class-level
relationships. Constructs may be given by IRI, CURIE or label.

Examples:
  explainer paths "shared mental models" "team performance"
  explainer paths inst:construct_trust coordination --max-hops 2 --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPaths(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], maxHops, jsonOutput)
	},
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence [<a> <b>]",
	Short: "Aggregate and explain the evidence between constructs",
	Long: `With two constructs, collect the effect sizes and class-level relationships
linking them, directly or along the shortest path, and explain them.
With --construct, list every measure and evidence record of one construct.

Examples:
  explainer evidence coordination "team performance"
  explainer evidence --construct "shared mental models"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if construct != "" {
			if len(args) > 0 {
				return staged(stageUsage, apperr.InvalidArgument("use either two constructs or --construct"))
			}
			return runConstructEvidence(cmd.Context(), cmd.OutOrStdout(), construct, jsonOutput)
		}
		if len(args) != 2 {
			return staged(stageUsage, apperr.InvalidArgument("evidence needs two constructs, got %d", len(args)))
		}
		return runEvidence(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], jsonOutput)
	},
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "List modalities, levels, techniques and populations with counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), app.OpenOptions{SkipIndex: true})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), a.Facets())
		}
		ui.RenderFacets(cmd.OutOrStdout(), a.Facets())
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count triples, classes, constructs, measures, studies and effects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), app.OpenOptions{SkipIndex: true})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), a.Stats())
		}
		ui.RenderStats(cmd.OutOrStdout(), a.Stats())
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the most common classes and measure predicates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), app.OpenOptions{SkipIndex: true})
		if err != nil {
			return err
		}
		res := a.Inspect(inspectTop)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		ui.RenderInspect(cmd.OutOrStdout(), res)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:       "list <kind>",
	Short:     "List constructs, measures, modalities, techniques, levels, publications or effects",
	Args:      cobra.ExactArgs(1),
	ValidArgs: app.ListKindNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), app.OpenOptions{SkipIndex: true})
		if err != nil {
			return err
		}
		refs, err := a.List(args[0], listLike)
		if err != nil {
			return staged(stageUsage, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), refs)
		}
		ui.RenderRefs(cmd.OutOrStdout(), refs)
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <query>",
	Short: "Run a basic graph pattern query",
	Long: `Match a basic graph pattern against the loaded graph and print every
binding of its variables. Patterns are separated by '.', PREFIX lines may
declare extra namespaces:

  explainer select '?m meas:measuresConstruct ?c . ?c rdfs:label "trust"'

The configured meas, evid and inst prefixes and rdf, rdfs, owl, xsd, skos
are bound.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.Join(args, " ")
		logger.SetQuery(q)
		a, err := loadApp(cmd.Context(), app.OpenOptions{SkipIndex: true})
		if err != nil {
			return err
		}
		rows, err := a.Select(q)
		if err != nil {
			return staged(stageParse, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rows)
		}
		ui.RenderBindings(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd, evidenceCmd, facetsCmd, statsCmd, inspectCmd, listCmd, selectCmd)

	for _, c := range []*cobra.Command{pathsCmd, evidenceCmd, facetsCmd, statsCmd, inspectCmd, listCmd, selectCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	}
	pathsCmd.Flags().IntVar(&maxHops, "max-hops", -1, "longest path to consider (default reasoner.max_hops)")
	evidenceCmd.Flags().StringVar(&construct, "construct", "", "list all evidence for one construct")
	inspectCmd.Flags().IntVar(&inspectTop, "top", 25, "rows per section")
	listCmd.Flags().StringVar(&listLike, "like", "", "keep labels containing this text")
}

func runPaths(ctx context.Context, w io.Writer, from, to string, hops int, asJSON bool) error {
	logger.SetQuery(from + " -> " + to)
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	if hops < -1 {
		return staged(stageUsage, apperr.InvalidArgument("--max-hops must not be negative, got %d", hops))
	}
	res, err := a.Paths(ctx, from, to, hops)
	if err != nil {
		return staged(stageOf(err), err)
	}
	if asJSON {
		return printJSON(w, res)
	}
	ui.RenderPaths(w, res)
	return nil
}

func runEvidence(ctx context.Context, w io.Writer, x, y string, asJSON bool) error {
	logger.SetQuery(x + " <-> " + y)
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	res, err := a.Evidence(ctx, x, y)
	if err != nil {
		return staged(stageOf(err), err)
	}
	if asJSON {
		return printJSON(w, res)
	}
	ui.RenderEvidence(w, res)
	return nil
}

func runConstructEvidence(ctx context.Context, w io.Writer, ref string, asJSON bool) error {
	logger.SetQuery(ref)
	a, err := loadApp(ctx, app.OpenOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	res, err := a.EvidenceForConstruct(ref)
	if err != nil {
		return staged(stageOf(err), err)
	}
	if asJSON {
		return printJSON(w, res)
	}
	ui.RenderConstructEvidence(w, res)
	return nil
}
