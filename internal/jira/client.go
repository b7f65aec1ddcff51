// Package jira retrieves tickets from JIRA and groups them by assignee.
package jira

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/pkg/models"
)

// Status filters understood by BuildJQL. Any other value is matched literally
// against the ticket status name.
const (
	FilterAll    = "all"
	FilterActive = "active"
)

// ErrInvalidProjectKey is returned for keys that cannot be placed in a query.
var ErrInvalidProjectKey = errors.New("invalid project key")

var projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidateProjectKey rejects anything but an upper-case JIRA project key.
func ValidateProjectKey(projectKey string) error {
	if !projectKeyPattern.MatchString(projectKey) {
		return fmt.Errorf("%w: %q", ErrInvalidProjectKey, projectKey)
	}
	return nil
}

// searchFields are the issue fields a ticket snapshot needs.
var searchFields = []string{"summary", "status", "issuetype", "priority", "assignee"}

// RawSearchResult is what a transport returns for a JQL search: either typed
// issues or the transport's text payload, which still has to be decoded.
type RawSearchResult struct {
	Issues []jira.Issue
	Text   string
}

// Source is a JIRA transport.
type Source interface {
	Search(ctx context.Context, jql string, maxResults int) (RawSearchResult, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	Close() error
}

// Client fetches tickets through a Source and normalizes them.
type Client struct {
	source     Source
	maxResults int
	timeout    time.Duration
}

// NewClient wraps a transport. A zero timeout disables the per-call deadline.
func NewClient(source Source, maxResults int, timeout time.Duration) *Client {
	if maxResults <= 0 {
		maxResults = 100
	}
	return &Client{
		source:     source,
		maxResults: maxResults,
		timeout:    timeout,
	}
}

// NewSource connects the transport selected by cfg.Jira.Transport.
func NewSource(ctx context.Context, cfg *config.Config) (Source, error) {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	switch cfg.Jira.Transport {
	case config.TransportMCP:
		return NewMCPClient(ctx, cfg.Jira)
	default:
		return NewRESTClient(cfg.Jira)
	}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	if c.source == nil {
		return nil
	}
	return c.source.Close()
}

// BuildJQL returns the query for a project and status filter. The key is
// validated first since it is placed in the query unquoted.
func BuildJQL(projectKey, statusFilter string) (string, error) {
	if err := ValidateProjectKey(projectKey); err != nil {
		return "", err
	}

	switch statusFilter {
	case FilterActive:
		return fmt.Sprintf("project = %s AND statusCategory != Done ORDER BY updated DESC", projectKey), nil
	case FilterAll, "":
		return fmt.Sprintf("project = %s ORDER BY updated DESC", projectKey), nil
	default:
		literal := strings.ReplaceAll(statusFilter, `'`, `\'`)
		return fmt.Sprintf("project = %s AND status = '%s' ORDER BY updated DESC", projectKey, literal), nil
	}
}

// FetchTickets returns the project's tickets in tracker order.
func (c *Client) FetchTickets(ctx context.Context, projectKey, statusFilter string) ([]models.Ticket, error) {
	if c.source == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	jql, err := BuildJQL(projectKey, statusFilter)
	if err != nil {
		return nil, err
	}
	logging.Info("fetching issues", "project_key", projectKey, "jql", jql)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := c.source.Search(ctx, jql, c.maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search JIRA issues for %s: %w", projectKey, err)
	}

	tickets, err := DecodeSearchResult(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JIRA issues for %s: %w", projectKey, err)
	}

	logging.Debug("issues fetched", "project_key", projectKey, "count", len(tickets))
	return tickets, nil
}

// FetchTicketsByAssignee returns the project's tickets grouped by assignee
// identity. Tickets keep tracker order inside each group.
func (c *Client) FetchTicketsByAssignee(ctx context.Context, projectKey, statusFilter string) (map[string][]models.Ticket, error) {
	tickets, err := c.FetchTickets(ctx, projectKey, statusFilter)
	if err != nil {
		return nil, err
	}

	grouped := GroupByAssignee(tickets)
	logging.Info("grouped issues by assignee", "project_key", projectKey, "assignees", len(grouped))
	return grouped, nil
}

// GroupByAssignee buckets tickets by Ticket.AssigneeIdentity.
func GroupByAssignee(tickets []models.Ticket) map[string][]models.Ticket {
	grouped := make(map[string][]models.Ticket)
	for _, ticket := range tickets {
		identity := ticket.AssigneeIdentity()
		grouped[identity] = append(grouped[identity], ticket)
	}
	return grouped
}

// BreakdownByAssignee lists every ticket in the project per assignee, largest
// workload first.
func (c *Client) BreakdownByAssignee(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error) {
	grouped, err := c.FetchTicketsByAssignee(ctx, projectKey, FilterAll)
	if err != nil {
		return nil, err
	}

	breakdown := make([]models.AssigneeBreakdown, 0, len(grouped))
	for assignee, tickets := range grouped {
		breakdown = append(breakdown, models.AssigneeBreakdown{
			Assignee:    assignee,
			TicketCount: len(tickets),
			Tickets:     tickets,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TicketCount != breakdown[j].TicketCount {
			return breakdown[i].TicketCount > breakdown[j].TicketCount
		}
		return breakdown[i].Assignee < breakdown[j].Assignee
	})
	return breakdown, nil
}

// ListProjects returns the tracker's projects (key and name).
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	if c.source == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	projects, err := c.source.ListProjects(ctx)
	if err != nil {
		if errors.Is(err, ErrParse) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list JIRA projects: %w", err)
	}
	logging.Info("discovered projects", "count", len(projects))
	return projects, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
