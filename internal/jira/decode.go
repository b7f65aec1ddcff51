package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/ticketpulse/pkg/models"
)

// ErrParse is returned when a search or project payload is not in a
// recognized shape. Decoding never returns partial data.
var ErrParse = errors.New("unrecognized JIRA response")

const (
	defaultSummary   = "No summary"
	defaultStatus    = "Unknown"
	defaultIssueType = "Unknown"
	defaultPriority  = "None"
)

var (
	// KEY-123: summary [Status] (Assignee)
	issueLine = regexp.MustCompile(`^([A-Z][A-Z0-9_]*-\d+): (.*) \[([^\]]*)\] \(([^)]*)\)$`)
	// KEY: Project name
	projectLine = regexp.MustCompile(`^([A-Z][A-Z0-9_]*): (.+)$`)
	// Found N issues:
	tableHeader = regexp.MustCompile(`^Found (\d+) issues?:$`)
)

const noIssuesHeader = "No issues found matching the query."

// searchDocument is the JSON body of a search response.
type searchDocument struct {
	Issues *[]jira.Issue `json:"issues"`
}

// DecodeSearchResult normalizes a transport result into tickets. Typed issues
// are used as-is; text is decoded as a JSON search document when it looks
// like one and as the line-oriented issue table otherwise.
func DecodeSearchResult(raw RawSearchResult) ([]models.Ticket, error) {
	if raw.Text == "" {
		return normalizeIssues(raw.Issues)
	}

	text := strings.TrimSpace(raw.Text)
	if strings.HasPrefix(text, "{") {
		var doc searchDocument
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("%w: invalid search document: %v", ErrParse, err)
		}
		if doc.Issues == nil {
			return nil, fmt.Errorf("%w: search document has no issues field", ErrParse)
		}
		return normalizeIssues(*doc.Issues)
	}

	return decodeIssueTable(text)
}

func normalizeIssues(issues []jira.Issue) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, len(issues))
	for i, issue := range issues {
		if issue.Key == "" {
			return nil, fmt.Errorf("%w: issue %d has no key", ErrParse, i)
		}
		tickets = append(tickets, ticketFromIssue(issue))
	}
	return tickets, nil
}

func ticketFromIssue(issue jira.Issue) models.Ticket {
	ticket := models.Ticket{
		Key:       issue.Key,
		Summary:   defaultSummary,
		Status:    defaultStatus,
		IssueType: defaultIssueType,
		Priority:  defaultPriority,
	}

	fields := issue.Fields
	if fields == nil {
		return ticket
	}
	if fields.Summary != "" {
		ticket.Summary = fields.Summary
	}
	if fields.Status != nil && fields.Status.Name != "" {
		ticket.Status = fields.Status.Name
		ticket.StatusCategory = fields.Status.StatusCategory.Name
	}
	if fields.Type.Name != "" {
		ticket.IssueType = fields.Type.Name
	}
	if fields.Priority != nil && fields.Priority.Name != "" {
		ticket.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil {
		ticket.AssigneeDisplayName = fields.Assignee.DisplayName
		ticket.AssigneeEmail = fields.Assignee.EmailAddress
	}
	return ticket
}

// decodeIssueTable parses "Found N issues:" followed by exactly N issue
// lines, or the lone "No issues found matching the query." answer. Any other
// header, a count mismatch or text after the empty answer is ErrParse.
func decodeIssueTable(text string) ([]models.Ticket, error) {
	lines := strings.Split(text, "\n")
	header := strings.TrimSpace(lines[0])
	if strings.HasPrefix(header, "Error") {
		return nil, fmt.Errorf("search failed: %s", header)
	}

	var rows []string
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}

	if header == noIssuesHeader {
		if len(rows) > 0 {
			return nil, fmt.Errorf("%w: %d lines after empty result", ErrParse, len(rows))
		}
		return []models.Ticket{}, nil
	}

	m := tableHeader.FindStringSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrParse, header)
	}
	want, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: issue count %q: %v", ErrParse, m[1], err)
	}
	if len(rows) != want {
		return nil, fmt.Errorf("%w: header announces %d issues, got %d", ErrParse, want, len(rows))
	}

	tickets := make([]models.Ticket, 0, len(rows))
	for n, line := range rows {
		m := issueLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: issue %d: %q", ErrParse, n+1, line)
		}

		ticket := models.Ticket{
			Key:       m[1],
			Summary:   strings.TrimSpace(m[2]),
			Status:    strings.TrimSpace(m[3]),
			IssueType: defaultIssueType,
			Priority:  defaultPriority,
		}
		if assignee := strings.TrimSpace(m[4]); assignee != models.UnassignedIdentity {
			ticket.AssigneeDisplayName = assignee
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// decodeProjectTable parses one "KEY: Name" project per line.
func decodeProjectTable(text string) ([]models.Project, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "Error") {
		return nil, fmt.Errorf("project listing failed: %s", firstLine(text))
	}

	var projects []models.Project
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := projectLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: project line %d: %q", ErrParse, n+1, line)
		}
		projects = append(projects, models.Project{Key: m[1], Name: strings.TrimSpace(m[2])})
	}
	return projects, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
