package mcpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/danielolaszy/ticketpulse/internal/mcpserver"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	keys    []string
	filters []string
}

func (f *fakeAnalyzer) DiscoverProjects(ctx context.Context) ([]models.Project, error) {
	return []models.Project{{Key: "AL", Name: "Ample", Repositories: []string{"acme/frontend"}}}, nil
}

func (f *fakeAnalyzer) AnalyzeProject(ctx context.Context, projectKey, statusFilter string) (*models.ProjectAnalysis, error) {
	f.keys = append(f.keys, projectKey)
	f.filters = append(f.filters, statusFilter)
	if projectKey != "AL" {
		return nil, fmt.Errorf("%w for %s", tracker.ErrNoRepositoryMapping, projectKey)
	}
	return &models.ProjectAnalysis{
		ProjectKey:   "AL",
		Repositories: []string{"acme/frontend"},
		Timestamp:    "2025-03-04T05:06:07Z",
		AssigneeAnalysis: map[string]*models.AssigneeAnalysis{
			"dev1@example.com": {Summary: models.Summary{TotalTickets: 2, Completed: 1, Pending: 1}},
		},
	}, nil
}

func (f *fakeAnalyzer) AnalyzeAll(ctx context.Context, statusFilter string) ([]models.ProjectOutcome, error) {
	f.filters = append(f.filters, statusFilter)
	analysis, _ := f.AnalyzeProject(ctx, "AL", statusFilter)
	return []models.ProjectOutcome{
		{ProjectKey: "AL", Analysis: analysis},
		{ProjectKey: "CB", Err: tracker.ErrNoIssues},
	}, nil
}

func (f *fakeAnalyzer) AssigneeBreakdown(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error) {
	f.keys = append(f.keys, projectKey)
	return []models.AssigneeBreakdown{{Assignee: "Dev One", TicketCount: 1}}, nil
}

func call(t *testing.T, analyzer *fakeAnalyzer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcpserver.NewMCPServer(analyzer)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result")
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestDiscoverProjects(t *testing.T) {
	res := call(t, &fakeAnalyzer{}, "discover_projects", map[string]any{})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `[{"key": "AL", "name": "Ample", "repositories": ["acme/frontend"]}]`, text(t, res))
}

func TestAnalyzeProject(t *testing.T) {
	t.Run("default filter and normalized key", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		res := call(t, analyzer, "analyze_project", map[string]any{"project_key": " al "})
		assert.False(t, res.IsError)
		assert.Equal(t, []string{"AL"}, analyzer.keys)
		assert.Equal(t, []string{"active"}, analyzer.filters)

		var analysis models.ProjectAnalysis
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &analysis))
		assert.Equal(t, "AL", analysis.ProjectKey)
	})

	t.Run("unmapped project", func(t *testing.T) {
		res := call(t, &fakeAnalyzer{}, "analyze_project", map[string]any{"project_key": "ZZ", "status_filter": "all"})
		assert.True(t, res.IsError)
		assert.JSONEq(t, `{"project_key": "ZZ", "error": "No repository mapping found for ZZ"}`, text(t, res))
	})

	t.Run("missing key", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		res := call(t, analyzer, "analyze_project", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "project_key is required")
		assert.Empty(t, analyzer.keys)
	})
}

func TestAnalyzeAllProjects(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	res := call(t, analyzer, "analyze_all_projects", map[string]any{"status_filter": "In Review"})
	assert.False(t, res.IsError)
	assert.Equal(t, "In Review", analyzer.filters[0])

	var outcomes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, "AL", outcomes[0]["project_key"])
	assert.Equal(t, map[string]any{"project_key": "CB", "error": "No issues found"}, outcomes[1])
}

func TestAssigneeBreakdown(t *testing.T) {
	res := call(t, &fakeAnalyzer{}, "get_assignee_breakdown", map[string]any{"project_key": "AL"})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `[{"assignee": "Dev One", "ticket_count": 1, "tickets": null}]`, text(t, res))
}

func TestProjectReport(t *testing.T) {
	res := call(t, &fakeAnalyzer{}, "project_report", map[string]any{"project_key": "AL"})
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "PROJECT COMPLETION REPORT: AL")
	assert.Contains(t, text(t, res), "Total Tickets: 2")

	res = call(t, &fakeAnalyzer{}, "project_report", map[string]any{"project_key": "ZZ"})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: No repository mapping found for ZZ\n", text(t, res))
}
