package cmd

import (
	"context"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	mcppresenter "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/mcp"
)

func resultText(t *testing.T, res *mcpsdk.CallToolResultFor[any]) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPToolResponse(t *testing.T) {
	tests := []struct {
		name    string
		result  *mcppresenter.ToolResult
		err     error
		isError bool
		want    string
	}{
		{name: "content", result: &mcppresenter.ToolResult{Action: "stats", Content: "| Kind | Count |"}, want: "| Kind | Count |"},
		{name: "user error", result: &mcppresenter.ToolResult{Action: "paths", Error: "from and to are required"}, isError: true, want: "**Error**: from and to are required"},
		{name: "handler error", err: errors.New("boom"), isError: true, want: "**Error**: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mcpToolResponse(tt.result, tt.err)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, res.IsError)
			assert.Equal(t, tt.want, resultText(t, res))
		})
	}
}

func TestMCPHandlersOverFixture(t *testing.T) {
	withFixture(t)
	a, err := loadApp(context.Background(), app.OpenOptions{})
	require.NoError(t, err)
	require.NotNil(t, newMCPServer(a))

	res, err := mcpToolResponse(mcppresenter.HandleSearch(context.Background(), a, mcppresenter.SearchParams{Query: "coordination"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "embedding index not loaded")

	res, err = mcpToolResponse(mcppresenter.HandleOntology(context.Background(), a, mcppresenter.OntologyParams{Action: mcppresenter.OntologyActionStats}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "| Measures | 5 |")
}
