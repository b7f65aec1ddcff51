// Package httpapi exposes project analysis over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielolaszy/ticketpulse/internal/jira"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/gin-gonic/gin"
)

// DefaultStatusFilter is used when a request carries no status parameter.
const DefaultStatusFilter = "active"

const shutdownTimeout = 10 * time.Second

// Analyzer is the tracker surface served over HTTP.
type Analyzer interface {
	DiscoverProjects(ctx context.Context) ([]models.Project, error)
	AnalyzeProject(ctx context.Context, projectKey, statusFilter string) (*models.ProjectAnalysis, error)
	AnalyzeAll(ctx context.Context, statusFilter string) ([]models.ProjectOutcome, error)
	AssigneeBreakdown(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error)
}

type handler struct {
	analyzer Analyzer
}

// NewRouter registers the API routes.
func NewRouter(analyzer Analyzer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &handler{analyzer: analyzer}
	router.GET("/healthz", h.health)
	router.GET("/projects", h.projects)
	router.GET("/projects/:key/analysis", h.analysis)
	router.GET("/projects/:key/report", h.report)
	router.GET("/projects/:key/assignees", h.assignees)
	router.POST("/batch", h.batch)
	return router
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, analyzer Analyzer) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(analyzer),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) projects(c *gin.Context) {
	projects, err := h.analyzer.DiscoverProjects(c.Request.Context())
	if err != nil {
		logging.Error("failed to list projects", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *handler) analysis(c *gin.Context) {
	key := c.Param("key")
	analysis, err := h.analyzer.AnalyzeProject(c.Request.Context(), key, c.DefaultQuery("status", DefaultStatusFilter))
	if err != nil {
		c.JSON(statusFor(err), models.ErrorResult{ProjectKey: key, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *handler) report(c *gin.Context) {
	key := c.Param("key")
	analysis, err := h.analyzer.AnalyzeProject(c.Request.Context(), key, c.DefaultQuery("status", DefaultStatusFilter))
	if err != nil {
		c.String(statusFor(err), "Error: %s\n", err.Error())
		return
	}
	c.String(http.StatusOK, tracker.Report(analysis))
}

func (h *handler) assignees(c *gin.Context) {
	key := c.Param("key")
	breakdown, err := h.analyzer.AssigneeBreakdown(c.Request.Context(), key)
	if err != nil {
		logging.Error("failed to get assignee breakdown", "project_key", key, "error", err)
		c.JSON(statusFor(err), models.ErrorResult{ProjectKey: key, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_key": key, "assignees": breakdown})
}

func (h *handler) batch(c *gin.Context) {
	outcomes, err := h.analyzer.AnalyzeAll(c.Request.Context(), c.DefaultQuery("status", DefaultStatusFilter))
	if err != nil {
		logging.Warn("batch analysis interrupted", "error", err, "completed", len(outcomes))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "results": outcomes})
		return
	}
	c.JSON(http.StatusOK, outcomes)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, jira.ErrInvalidProjectKey):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrNoRepositoryMapping), errors.Is(err, tracker.ErrNoIssues):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
