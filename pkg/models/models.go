// Package models defines data structures shared across the application.
package models

import (
	"encoding/json"
)

// UnassignedIdentity is the assignee identity used for tickets without an assignee.
const UnassignedIdentity = "Unassigned"

// Ticket represents a JIRA ticket snapshot taken at analysis time.
type Ticket struct {
	// Key is the full JIRA ticket identifier (e.g., "AL-123")
	Key string `json:"key"`

	// Summary is the ticket's summary field
	Summary string `json:"summary"`

	// Status is the tracker's own status name (e.g., "In Review")
	Status string `json:"status"`

	// StatusCategory is the status category name (e.g., "Done")
	StatusCategory string `json:"status_category,omitempty"`

	// IssueType is the JIRA issue type (e.g., "Story", "Bug", "Task")
	IssueType string `json:"issue_type"`

	// Priority is the JIRA priority name
	Priority string `json:"priority"`

	// AssigneeDisplayName is the assignee's display name, empty when unassigned
	AssigneeDisplayName string `json:"assignee_display_name"`

	// AssigneeEmail is the assignee's email address when the tracker exposes it
	AssigneeEmail string `json:"assignee_email,omitempty"`
}

// AssigneeIdentity returns the key used to group the ticket with the rest of
// its assignee's work: the email, else the display name, else "Unassigned".
func (t Ticket) AssigneeIdentity() string {
	if t.AssigneeEmail != "" {
		return t.AssigneeEmail
	}
	if t.AssigneeDisplayName != "" {
		return t.AssigneeDisplayName
	}
	return UnassignedIdentity
}

// Commit represents a single commit fetched from a GitHub repository.
type Commit struct {
	// SHA is the full commit identifier
	SHA string `json:"sha"`

	// ShortSHA is the first 7 characters of SHA
	ShortSHA string `json:"short_sha"`

	// Message is the full commit message, possibly multi-line
	Message string `json:"message"`

	// AuthorName is the git author name
	AuthorName string `json:"author_name"`

	// AuthorEmail is the git author email
	AuthorEmail string `json:"author_email"`

	// AuthoredDate is the author date in ISO-8601 form
	AuthoredDate string `json:"authored_date"`

	// Repository is the "owner/name" identifier the commit was fetched from
	Repository string `json:"repository"`
}

// ShortSHALength is the number of characters kept in Commit.ShortSHA.
const ShortSHALength = 7

// ShortenSHA returns the display form of a commit SHA.
func ShortenSHA(sha string) string {
	if len(sha) <= ShortSHALength {
		return sha
	}
	return sha[:ShortSHALength]
}

// MatchStatus is the estimated completion state of a ticket.
type MatchStatus string

const (
	// StatusCompleted means strong evidence the ticket is done (confidence 90-100).
	StatusCompleted MatchStatus = "COMPLETED"
	// StatusLikelyDone means a single strong semantic or component match (confidence 60-89).
	StatusLikelyDone MatchStatus = "LIKELY_DONE"
	// StatusInProgress means weak or partial evidence (confidence 30-59).
	StatusInProgress MatchStatus = "IN_PROGRESS"
	// StatusPending means no relevant evidence (confidence 0-29).
	StatusPending MatchStatus = "PENDING"
)

// Valid reports whether s is one of the four known statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusLikelyDone, StatusInProgress, StatusPending:
		return true
	}
	return false
}

// MatchType tags the kind of evidence linking a commit to a ticket.
type MatchType string

const (
	MatchExplicitReference MatchType = "explicit_reference"
	MatchSemantic          MatchType = "semantic_match"
	MatchComponent         MatchType = "component_match"
	MatchAuthor            MatchType = "author_match"
)

// Valid reports whether t is one of the known match types.
func (t MatchType) Valid() bool {
	switch t {
	case MatchExplicitReference, MatchSemantic, MatchComponent, MatchAuthor:
		return true
	}
	return false
}

// MatchedCommit pairs a commit with the evidence types that linked it to a ticket.
type MatchedCommit struct {
	Commit     Commit      `json:"commit"`
	MatchTypes []MatchType `json:"match_types"`
}

// MatchResult is the classification of one ticket.
type MatchResult struct {
	Ticket         Ticket          `json:"ticket"`
	Status         MatchStatus     `json:"status"`
	Confidence     int             `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	MatchedCommits []MatchedCommit `json:"matched_commits"`
	MatchTypes     []MatchType     `json:"match_types"`
}

// Summary holds per-status counts for one assignee.
type Summary struct {
	TotalTickets int `json:"total_tickets"`
	Completed    int `json:"completed"`
	LikelyDone   int `json:"likely_done"`
	InProgress   int `json:"in_progress"`
	Pending      int `json:"pending"`
	TotalCommits int `json:"total_commits"`
}

// SkippedRepository records a repository that could not contribute commits.
type SkippedRepository struct {
	Repository string `json:"repository"`
	Reason     string `json:"reason"`
}

// AssigneeAnalysis groups one assignee's tickets, commits and classifications.
type AssigneeAnalysis struct {
	Tickets             []Ticket            `json:"tickets"`
	Commits             []Commit            `json:"commits"`
	Matches             []MatchResult       `json:"matches"`
	Summary             Summary             `json:"summary"`
	SkippedRepositories []SkippedRepository `json:"skipped_repositories,omitempty"`
}

// ProjectAnalysis is the complete analysis of one JIRA project.
type ProjectAnalysis struct {
	ProjectKey       string                       `json:"project_key"`
	Repositories     []string                     `json:"repositories"`
	AssigneeAnalysis map[string]*AssigneeAnalysis `json:"assignee_analysis"`
	Timestamp        string                       `json:"timestamp"`
}

// ProjectOutcome is the result of analyzing one project in a batch: either
// an analysis or an error, never both.
type ProjectOutcome struct {
	ProjectKey string
	Analysis   *ProjectAnalysis
	Err        error
}

// MarshalJSON renders a failed outcome as {"project_key", "error"} and a
// successful one as the bare ProjectAnalysis.
func (o ProjectOutcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil || o.Analysis == nil {
		msg := "analysis missing"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		return json.Marshal(ErrorResult{ProjectKey: o.ProjectKey, Error: msg})
	}
	return json.Marshal(o.Analysis)
}

// ErrorResult is the serialized form of an analysis that failed.
type ErrorResult struct {
	ProjectKey string `json:"project_key,omitempty"`
	Error      string `json:"error"`
}

// Project is a JIRA project annotated with its mapped repositories.
type Project struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Repositories []string `json:"repositories"`
}

// Mapped reports whether the project has at least one repository.
func (p Project) Mapped() bool {
	return len(p.Repositories) > 0
}

// AssigneeBreakdown lists the tickets held by one assignee.
type AssigneeBreakdown struct {
	Assignee    string   `json:"assignee"`
	TicketCount int      `json:"ticket_count"`
	Tickets     []Ticket `json:"tickets"`
}

// GitHubUser is the authenticated code-host identity.
type GitHubUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
	URL   string `json:"url"`
}
