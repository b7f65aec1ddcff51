package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielolaszy/ticketpulse/internal/jira"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnalyzer struct {
	filters  []string
	keys     []string
	outcomes []models.ProjectOutcome
	batchErr error
}

func (f *fakeAnalyzer) DiscoverProjects(ctx context.Context) ([]models.Project, error) {
	return []models.Project{
		{Key: "AL", Name: "Ample", Repositories: []string{"acme/frontend"}},
		{Key: "XX", Name: "Unmapped", Repositories: []string{}},
	}, nil
}

func (f *fakeAnalyzer) AnalyzeProject(ctx context.Context, projectKey, statusFilter string) (*models.ProjectAnalysis, error) {
	f.keys = append(f.keys, projectKey)
	f.filters = append(f.filters, statusFilter)
	switch projectKey {
	case "AL":
		return &models.ProjectAnalysis{
			ProjectKey:   "AL",
			Repositories: []string{"acme/frontend"},
			Timestamp:    "2025-03-04T05:06:07Z",
			AssigneeAnalysis: map[string]*models.AssigneeAnalysis{
				"dev1@example.com": {Summary: models.Summary{TotalTickets: 1, Pending: 1}},
			},
		}, nil
	case "SLOW":
		return nil, fmt.Errorf("jira search failed: %w", context.DeadlineExceeded)
	default:
		return nil, fmt.Errorf("%w for %s", tracker.ErrNoRepositoryMapping, projectKey)
	}
}

func (f *fakeAnalyzer) AnalyzeAll(ctx context.Context, statusFilter string) ([]models.ProjectOutcome, error) {
	f.filters = append(f.filters, statusFilter)
	return f.outcomes, f.batchErr
}

func (f *fakeAnalyzer) AssigneeBreakdown(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error) {
	return []models.AssigneeBreakdown{{Assignee: "Dev One", TicketCount: 2}}, nil
}

func serve(t *testing.T, analyzer Analyzer, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	NewRouter(analyzer).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestProjects(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, http.MethodGet, "/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"key": "AL", "name": "Ample", "repositories": ["acme/frontend"]},
		{"key": "XX", "name": "Unmapped", "repositories": []}
	]`, rec.Body.String())
}

func TestAnalysis(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantCode   int
		wantFilter string
		wantBody   string
	}{
		{
			name:       "Default filter",
			target:     "/projects/AL/analysis",
			wantCode:   http.StatusOK,
			wantFilter: "active",
		},
		{
			name:       "Explicit filter",
			target:     "/projects/AL/analysis?status=all",
			wantCode:   http.StatusOK,
			wantFilter: "all",
		},
		{
			name:       "Unmapped project",
			target:     "/projects/ZZ/analysis",
			wantCode:   http.StatusNotFound,
			wantFilter: "active",
			wantBody:   `{"project_key": "ZZ", "error": "No repository mapping found for ZZ"}`,
		},
		{
			name:       "Upstream timeout",
			target:     "/projects/SLOW/analysis",
			wantCode:   http.StatusGatewayTimeout,
			wantFilter: "active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{}
			rec := serve(t, analyzer, http.MethodGet, tt.target)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, []string{tt.wantFilter}, analyzer.filters)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAnalysisBody(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, http.MethodGet, "/projects/AL/analysis")
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis models.ProjectAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "AL", analysis.ProjectKey)
	assert.Equal(t, 1, analysis.AssigneeAnalysis["dev1@example.com"].Summary.Pending)
}

func TestReport(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, http.MethodGet, "/projects/AL/report?status=all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "PROJECT COMPLETION REPORT: AL")

	rec = serve(t, &fakeAnalyzer{}, http.MethodGet, "/projects/ZZ/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Error: No repository mapping found for ZZ\n", rec.Body.String())
}

func TestAssignees(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, http.MethodGet, "/projects/AL/assignees")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"project_key": "AL", "assignees": [{"assignee": "Dev One", "ticket_count": 2, "tickets": null}]}`, rec.Body.String())
}

func TestBatch(t *testing.T) {
	analyzer := &fakeAnalyzer{outcomes: []models.ProjectOutcome{
		{ProjectKey: "AL", Analysis: &models.ProjectAnalysis{ProjectKey: "AL", Timestamp: "2025-03-04T05:06:07Z"}},
		{ProjectKey: "CB", Err: tracker.ErrNoIssues},
	}}

	rec := serve(t, analyzer, http.MethodPost, "/batch?status=all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"all"}, analyzer.filters)
	assert.JSONEq(t, `[
		{"project_key": "AL", "repositories": null, "assignee_analysis": null, "timestamp": "2025-03-04T05:06:07Z"},
		{"project_key": "CB", "error": "No issues found"}
	]`, rec.Body.String())

	rec = serve(t, analyzer, http.MethodGet, "/batch")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchInterrupted(t *testing.T) {
	analyzer := &fakeAnalyzer{batchErr: context.Canceled}

	rec := serve(t, analyzer, http.MethodPost, "/batch")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "context canceled")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "No issues", err: tracker.ErrNoIssues, want: http.StatusNotFound},
		{name: "No mapping", err: fmt.Errorf("%w for ZZ", tracker.ErrNoRepositoryMapping), want: http.StatusNotFound},
		{name: "Invalid key", err: fmt.Errorf("%w: %q", jira.ErrInvalidProjectKey, "AL OR 1=1"), want: http.StatusBadRequest},
		{name: "Deadline", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{name: "Upstream", err: errors.New("JIRA client not initialized"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
