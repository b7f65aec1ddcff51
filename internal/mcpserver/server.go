// Package mcpserver exposes project analysis as Model Context Protocol tools.
package mcpserver

import (
	"context"

	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Analyzer is the tracker surface offered to MCP clients.
type Analyzer interface {
	DiscoverProjects(ctx context.Context) ([]models.Project, error)
	AnalyzeProject(ctx context.Context, projectKey, statusFilter string) (*models.ProjectAnalysis, error)
	AnalyzeAll(ctx context.Context, statusFilter string) ([]models.ProjectOutcome, error)
	AssigneeBreakdown(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error)
}

const statusFilterDescription = "Ticket status filter: 'active' (not done), 'all', or a literal status name. Defaults to 'active'."

// NewMCPServer registers the analysis tools without starting the server.
func NewMCPServer(analyzer Analyzer) *server.MCPServer {
	s := server.NewMCPServer(
		"ticketpulse",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{analyzer: analyzer}

	s.AddTool(mcp.NewTool("discover_projects",
		mcp.WithDescription("List JIRA projects and the GitHub repositories mapped to each."),
	), h.handleDiscoverProjects)

	s.AddTool(mcp.NewTool("analyze_project",
		mcp.WithDescription("Estimate completion of a project's tickets from its assignees' commits."),
		mcp.WithString("project_key", mcp.Description("JIRA project key (e.g., 'AL')."), mcp.Required()),
		mcp.WithString("status_filter", mcp.Description(statusFilterDescription)),
	), h.handleAnalyzeProject)

	s.AddTool(mcp.NewTool("analyze_all_projects",
		mcp.WithDescription("Analyze every mapped project in turn. Failed projects are reported, not fatal."),
		mcp.WithString("status_filter", mcp.Description(statusFilterDescription)),
	), h.handleAnalyzeAllProjects)

	s.AddTool(mcp.NewTool("get_assignee_breakdown",
		mcp.WithDescription("List a project's tickets grouped by assignee."),
		mcp.WithString("project_key", mcp.Description("JIRA project key."), mcp.Required()),
	), h.handleAssigneeBreakdown)

	s.AddTool(mcp.NewTool("project_report",
		mcp.WithDescription("Analyze a project and render the plain-text completion report."),
		mcp.WithString("project_key", mcp.Description("JIRA project key."), mcp.Required()),
		mcp.WithString("status_filter", mcp.Description(statusFilterDescription)),
	), h.handleProjectReport)

	return s
}

// Serve runs the MCP server over stdio until the client disconnects.
func Serve(_ context.Context, analyzer Analyzer) error {
	return server.ServeStdio(NewMCPServer(analyzer))
}
