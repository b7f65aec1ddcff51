package tracker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielolaszy/ticketpulse/pkg/models"
)

const (
	reportWidth       = 80
	reportCommits     = 3
	reportMessageSize = 70
)

// Summarize counts matches per status. Totals come from the ticket list and
// the commit count, not from the matches.
func Summarize(tickets []models.Ticket, matches []models.MatchResult, commitCount int) models.Summary {
	summary := models.Summary{
		TotalTickets: len(tickets),
		TotalCommits: commitCount,
	}
	for _, match := range matches {
		switch match.Status {
		case models.StatusCompleted:
			summary.Completed++
		case models.StatusLikelyDone:
			summary.LikelyDone++
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusPending:
			summary.Pending++
		}
	}
	return summary
}

// Totals aggregates the assignee summaries of one project.
type Totals struct {
	Tickets    int `json:"tickets"`
	Completed  int `json:"completed"`
	LikelyDone int `json:"likely_done"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Commits    int `json:"commits"`
}

// Done is the number of tickets classified COMPLETED or LIKELY_DONE.
func (t Totals) Done() int {
	return t.Completed + t.LikelyDone
}

// ProjectTotals sums the assignee summaries of an analysis.
func ProjectTotals(analysis *models.ProjectAnalysis) Totals {
	var totals Totals
	if analysis == nil {
		return totals
	}
	for _, assignee := range analysis.AssigneeAnalysis {
		totals.Tickets += assignee.Summary.TotalTickets
		totals.Completed += assignee.Summary.Completed
		totals.LikelyDone += assignee.Summary.LikelyDone
		totals.InProgress += assignee.Summary.InProgress
		totals.Pending += assignee.Summary.Pending
		totals.Commits += assignee.Summary.TotalCommits
	}
	return totals
}

// QuickSummary is the one-line batch status of an outcome.
func QuickSummary(outcome models.ProjectOutcome) string {
	if outcome.Err != nil || outcome.Analysis == nil {
		return fmt.Sprintf("Error: %v", outcome.Err)
	}
	totals := ProjectTotals(outcome.Analysis)
	return fmt.Sprintf("Summary: %d/%d tickets completed/likely done", totals.Done(), totals.Tickets)
}

// Report renders an analysis as plain text. Assignees are ordered by
// identity; each ticket lists at most three matched commits.
func Report(analysis *models.ProjectAnalysis) string {
	rule := strings.Repeat("=", reportWidth)
	var b strings.Builder

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "PROJECT COMPLETION REPORT: %s\n", analysis.ProjectKey)
	fmt.Fprintf(&b, "Generated: %s\n", analysis.Timestamp)
	fmt.Fprintf(&b, "Repositories: %s\n", strings.Join(analysis.Repositories, ", "))
	b.WriteString(rule + "\n")

	identities := make([]string, 0, len(analysis.AssigneeAnalysis))
	for identity := range analysis.AssigneeAnalysis {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	for _, identity := range identities {
		data := analysis.AssigneeAnalysis[identity]
		fmt.Fprintf(&b, "\nASSIGNEE: %s\n", identity)
		b.WriteString(strings.Repeat("-", reportWidth) + "\n")

		s := data.Summary
		fmt.Fprintf(&b, "Total Tickets: %d\n", s.TotalTickets)
		fmt.Fprintf(&b, "Total Commits: %d\n", s.TotalCommits)
		fmt.Fprintf(&b, "Completed: %d\n", s.Completed)
		fmt.Fprintf(&b, "Likely Done: %d\n", s.LikelyDone)
		fmt.Fprintf(&b, "In Progress: %d\n", s.InProgress)
		fmt.Fprintf(&b, "Pending: %d\n", s.Pending)
		for _, skipped := range data.SkippedRepositories {
			fmt.Fprintf(&b, "Skipped Repository: %s (%s)\n", skipped.Repository, skipped.Reason)
		}

		b.WriteString("\nTICKET DETAILS:\n")
		for _, match := range data.Matches {
			writeMatch(&b, match)
		}
	}

	b.WriteString("\n" + rule + "\n")
	return b.String()
}

// ReportOutcome renders an outcome, reporting failures as a single line.
func ReportOutcome(outcome models.ProjectOutcome) string {
	if outcome.Err != nil || outcome.Analysis == nil {
		return fmt.Sprintf("Error: %v\n", outcome.Err)
	}
	return Report(outcome.Analysis)
}

func writeMatch(b *strings.Builder, match models.MatchResult) {
	ticket := match.Ticket
	fmt.Fprintf(b, "\n  [%s] %s\n", ticket.Key, ticket.Summary)
	fmt.Fprintf(b, "     Jira Status: %s | Type: %s\n", ticket.Status, ticket.IssueType)
	fmt.Fprintf(b, "     Analysis: %s (Confidence: %d%%)\n", match.Status, match.Confidence)
	reasoning := match.Reasoning
	if reasoning == "" {
		reasoning = "N/A"
	}
	fmt.Fprintf(b, "     Reasoning: %s\n", reasoning)

	if len(match.MatchedCommits) == 0 {
		return
	}
	b.WriteString("     Related Commits:\n")
	for i, mc := range match.MatchedCommits {
		if i == reportCommits {
			break
		}
		c := mc.Commit
		short := c.ShortSHA
		if short == "" {
			short = models.ShortenSHA(c.SHA)
		}
		fmt.Fprintf(b, "       - [%s] %s: %s\n", c.Repository, short, headline(c.Message))
	}
}

// headline is the first line of a commit message cut to 70 characters.
func headline(message string) string {
	line := message
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimRight(line, "\r")
	runes := []rune(line)
	if len(runes) > reportMessageSize {
		return string(runes[:reportMessageSize])
	}
	return line
}
