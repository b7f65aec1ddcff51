package jira

import (
	"context"
	"fmt"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/pkg/models"
)

// RESTClient talks to the JIRA REST API.
type RESTClient struct {
	client *jira.Client
}

// NewRESTClient creates a JIRA REST client using basic auth with an API token.
func NewRESTClient(cfg config.JiraConfig) (*RESTClient, error) {
	logging.Debug("jira configuration",
		"url", cfg.URL,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token))

	// Create JIRA authentication transport
	tp := jira.BasicAuthTransport{
		Username: cfg.Username,
		Password: cfg.Token,
	}

	client, err := jira.NewClient(tp.Client(), cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error creating JIRA client: %w", err)
	}

	return &RESTClient{client: client}, nil
}

// Search runs a JQL query and returns the typed issues.
func (c *RESTClient) Search(ctx context.Context, jql string, maxResults int) (RawSearchResult, error) {
	if c.client == nil {
		return RawSearchResult{}, fmt.Errorf("JIRA client not initialized")
	}

	issues, resp, err := c.client.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
		MaxResults: maxResults,
		Fields:     searchFields,
	})
	if err != nil {
		return RawSearchResult{}, fmt.Errorf("failed to search JIRA issues: %w (status: %d)", err, statusCode(resp))
	}

	return RawSearchResult{Issues: issues}, nil
}

// ListProjects returns every project visible to the user.
func (c *RESTClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	if c.client == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	list, resp, err := c.client.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list JIRA projects: %w (status: %d)", err, statusCode(resp))
	}

	projects := make([]models.Project, 0, len(*list))
	for _, p := range *list {
		projects = append(projects, models.Project{Key: p.Key, Name: p.Name})
	}
	return projects, nil
}

// Close is a no-op; the HTTP transport holds no session.
func (c *RESTClient) Close() error {
	return nil
}

func statusCode(resp *jira.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
