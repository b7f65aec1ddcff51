package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultStatusFilter = "active"

type toolHandler struct {
	analyzer Analyzer
}

func (h *toolHandler) handleDiscoverProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := h.analyzer.DiscoverProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}
	return jsonResult(projects)
}

func (h *toolHandler) handleAnalyzeProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := projectKey(request)
	if errResult != nil {
		return errResult, nil
	}

	analysis, err := h.analyzer.AnalyzeProject(ctx, key, statusFilter(request))
	if err != nil {
		logging.Warn("analyze_project failed", "project_key", key, "error", err)
		return errorResult(key, err), nil
	}
	return jsonResult(analysis)
}

func (h *toolHandler) handleAnalyzeAllProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcomes, err := h.analyzer.AnalyzeAll(ctx, statusFilter(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("batch analysis interrupted after %d projects: %v", len(outcomes), err)), nil
	}
	return jsonResult(outcomes)
}

func (h *toolHandler) handleAssigneeBreakdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := projectKey(request)
	if errResult != nil {
		return errResult, nil
	}

	breakdown, err := h.analyzer.AssigneeBreakdown(ctx, key)
	if err != nil {
		return errorResult(key, err), nil
	}
	return jsonResult(breakdown)
}

func (h *toolHandler) handleProjectReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := projectKey(request)
	if errResult != nil {
		return errResult, nil
	}

	analysis, err := h.analyzer.AnalyzeProject(ctx, key, statusFilter(request))
	if err != nil {
		return mcp.NewToolResultError(tracker.ReportOutcome(models.ProjectOutcome{ProjectKey: key, Err: err})), nil
	}
	return mcp.NewToolResultText(tracker.Report(analysis)), nil
}

func projectKey(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	key := strings.ToUpper(strings.TrimSpace(request.GetString("project_key", "")))
	if key == "" {
		return "", mcp.NewToolResultError("project_key is required")
	}
	return key, nil
}

func statusFilter(request mcp.CallToolRequest) string {
	return request.GetString("status_filter", defaultStatusFilter)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err in the same {"project_key", "error"} shape a batch
// outcome uses.
func errorResult(key string, err error) *mcp.CallToolResult {
	data, _ := json.Marshal(models.ErrorResult{ProjectKey: key, Error: err.Error()})
	return mcp.NewToolResultError(string(data))
}
