package matcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielolaszy/ticketpulse/pkg/models"
)

// SchemaHint describes the answer shape the oracle must produce.
const SchemaHint = `[{"ticket_key": string, "summary": string, ` +
	`"status": "COMPLETED"|"LIKELY_DONE"|"IN_PROGRESS"|"PENDING", "confidence": integer 0-100, ` +
	`"reasoning": string, "matched_commits": [short sha], ` +
	`"match_types": ["explicit_reference"|"semantic_match"|"component_match"|"author_match"]}]`

type ticketView struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
}

type commitView struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Repo    string `json:"repo"`
}

// BuildPrompt renders the batch for the oracle.
func BuildPrompt(batch Batch) (string, error) {
	tickets := make([]ticketView, 0, len(batch.Tickets))
	for _, t := range batch.Tickets {
		tickets = append(tickets, ticketView{
			Key:      t.Key,
			Summary:  t.Summary,
			Status:   t.Status,
			Type:     t.IssueType,
			Priority: t.Priority,
		})
	}

	commits := make([]commitView, 0, len(batch.Commits))
	for _, c := range batch.Commits {
		short := c.ShortSHA
		if short == "" {
			short = models.ShortenSHA(c.SHA)
		}
		commits = append(commits, commitView{
			SHA:     short,
			Message: c.Message,
			Author:  c.AuthorName,
			Date:    c.AuthoredDate,
			Repo:    c.Repository,
		})
	}

	ticketJSON, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tickets: %w", err)
	}
	commitJSON, err := json.MarshalIndent(commits, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode commits: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a senior technical project manager estimating whether JIRA tickets are done, using the assignee's GitHub commits as evidence.\n\n")
	b.WriteString("### CONTEXT\n")
	fmt.Fprintf(&b, "- Project: %s\n", batch.ProjectKey)
	fmt.Fprintf(&b, "- Assignee: %s\n", batch.Assignee)
	fmt.Fprintf(&b, "- Total tickets: %d\n", len(batch.Tickets))
	fmt.Fprintf(&b, "- Total commits: %d\n\n", len(batch.Commits))
	b.WriteString("### JIRA TICKETS\n")
	b.Write(ticketJSON)
	b.WriteString("\n\n### GITHUB COMMITS\n")
	b.Write(commitJSON)
	b.WriteString("\n\n")
	b.WriteString(instructions)
	return b.String(), nil
}

const instructions = `### INSTRUCTIONS
For each ticket decide whether the commits show the work was done.

Evidence types (use these exact tags in match_types):
- explicit_reference: the commit message contains the ticket key (AL-123, AL123, al-123)
- semantic_match: the commit describes the work in the ticket summary,
  e.g. ticket "Fix login button alignment" and commit "adjusted auth page button styles"
- component_match: the commit touches a component the ticket names
- author_match: related work by the same assignee

Status tiers:
- COMPLETED (confidence 90-100): explicit reference or several strong semantic matches
- LIKELY_DONE (confidence 60-89): one good semantic or component match
- IN_PROGRESS (confidence 30-59): partial or weak evidence
- PENDING (confidence 0-29): no relevant commits

Check every commit for every ticket. Several weak signals together can indicate completion.
If unsure, answer PENDING.

### OUTPUT
Return only a JSON array with one object per ticket, no markdown:
[
  {
    "ticket_key": "AL-1",
    "summary": "Ticket summary",
    "status": "COMPLETED",
    "confidence": 95,
    "reasoning": "Commit 7b3f1a2 references AL-1 directly.",
    "matched_commits": ["7b3f1a2"],
    "match_types": ["explicit_reference"]
  }
]
`
