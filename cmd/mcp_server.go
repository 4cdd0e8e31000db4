package cmd

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	mcppresenter "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can explore the
team-measurement ontology:

  search     rank constructs for free text, with measure filters
  paths      relationship paths between two constructs
  coverage   constructs covered by a measure set, and its gaps
  evidence   effect sizes and class-level relationships, explained
  ontology   facets, counts and entity lists

The server speaks JSON-RPC over stdio and runs until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpMarkdownResponse wraps Markdown content in an MCP tool result.
func mcpMarkdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// mcpErrorResponse wraps an error in an MCP tool result with IsError=true.
// Tool errors go in the result, not the protocol, so the client can see
// them and retry with different arguments.
func mcpErrorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	return mcpFormattedErrorResponse(mcppresenter.FormatError(err.Error()))
}

// mcpFormattedErrorResponse wraps pre-formatted error text with IsError=true.
func mcpFormattedErrorResponse(formattedError string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: formattedError}},
		IsError: true,
	}, nil
}

// mcpToolResponse converts a handler result into an MCP tool result.
func mcpToolResponse(result *mcppresenter.ToolResult, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpErrorResponse(err)
	}
	if result.Error != "" {
		return mcpFormattedErrorResponse(mcppresenter.FormatError(result.Error))
	}
	return mcpMarkdownResponse(result.Content)
}

// newMCPServer registers the explainer tools over a loaded app context.
func newMCPServer(a *app.Context) *mcpsdk.Server {
	impl := &mcpsdk.Implementation{
		Name:    "bioTDMS-explainer",
		Version: version,
	}
	serverOpts := &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			fmt.Fprintf(os.Stderr, "✓ MCP connection established\n")
			if viper.GetBool("verbose") {
				fmt.Fprintf(os.Stderr, "[DEBUG] Client initialized\n")
			}
		},
	}
	server := mcpsdk.NewServer(impl, serverOpts)

	searchTool := &mcpsdk.Tool{
		Name: "search",
		Description: `Rank team-performance constructs by semantic similarity to free text.
Each result lists the construct's measures and how much evidence exists for it.
Use {"query":"how well members coordinate"}. Optional: k, and filters with
levels, modalities, techniques, min_effect, max_effect, max_p.
Requires the embedding index (explainer index build).`,
	}
	mcpsdk.AddTool(server, searchTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcppresenter.SearchParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcppresenter.HandleSearch(ctx, a, params.Arguments))
	})

	pathsTool := &mcpsdk.Tool{
		Name: "paths",
		Description: `List relationship paths between two constructs, shortest first.
Constructs are linked by shared measures, effect sizes and class-level relationships.
Use {"from":"coordination","to":"team performance"}. Optional: max_hops.
Constructs may be IRIs, CURIEs (inst:construct_trust) or labels.`,
	}
	mcpsdk.AddTool(server, pathsTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcppresenter.PathsParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcppresenter.HandlePaths(ctx, a, params.Arguments))
	})

	coverageTool := &mcpsdk.Tool{
		Name: "coverage",
		Description: `Report which constructs a set of measures covers, which constructs
rest on a single measure (gaps) and which measures could not be resolved.
Use {"measures":["Speech overlap","Task score"]}.`,
	}
	mcpsdk.AddTool(server, coverageTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcppresenter.CoverageParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcppresenter.HandleCoverage(ctx, a, params.Arguments))
	})

	evidenceTool := &mcpsdk.Tool{
		Name: "evidence",
		Description: `Aggregate the empirical evidence behind constructs. Use action parameter:
- pair (default): effect sizes and class-level relationships linking a and b, explained
- construct: every measure and evidence record of one construct

REQUIRED FIELDS BY ACTION:
- pair: a, b
- construct: construct`,
	}
	mcpsdk.AddTool(server, evidenceTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcppresenter.EvidenceParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcppresenter.HandleEvidence(ctx, a, params.Arguments))
	})

	ontologyTool := &mcpsdk.Tool{
		Name: "ontology",
		Description: `Browse the ontology itself. Use action parameter:
- facets: modalities, levels, techniques and populations with measure counts
- stats: entity counts
- list: entities of one kind (kind required, like optional)`,
	}
	mcpsdk.AddTool(server, ontologyTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcppresenter.OntologyParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcppresenter.HandleOntology(ctx, a, params.Arguments))
	})

	return server
}

func runMCPServer(ctx context.Context) error {
	// stdout carries JSON-RPC only; status goes to stderr.
	fmt.Fprintln(os.Stderr, "bioTDMS explainer MCP server starting...")
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := loadApp(ctx, app.OpenOptions{Serving: true})
	if err != nil {
		return err
	}
	if a.Index == nil {
		fmt.Fprintf(os.Stderr, "⚠  %v; the search tool is unavailable\n", app.ErrNoIndex)
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "[DEBUG] Loaded %d triples from %v\n", a.Store.Len(), a.Sources)
	}

	server := newMCPServer(a)
	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return staged(stageRun, fmt.Errorf("MCP server failed: %w", err))
	}
	return nil
}
