// Package matcher classifies tickets against the commits of their assignee.
//
// Classification is delegated to an oracle (a language model). Classify
// returns exactly one MatchResult per input ticket, in input order; when the
// oracle is missing or its answer cannot be used the results degrade to
// PENDING instead of an error.
package matcher

import (
	"context"

	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/oracle"
	"github.com/danielolaszy/ticketpulse/pkg/models"
)

const (
	// FallbackReasoning is attached to every ticket when the oracle cannot be used.
	FallbackReasoning = "LLM analysis unavailable - manual review required"
	// NotClassifiedReasoning is attached to tickets the oracle left out of its answer.
	NotClassifiedReasoning = "not classified by oracle"
)

// Batch is one assignee's work within a project.
type Batch struct {
	ProjectKey string
	Assignee   string
	Tickets    []models.Ticket
	Commits    []models.Commit
}

// Engine classifies batches.
type Engine struct {
	oracle oracle.Classifier
}

// NewEngine returns an engine backed by c. A nil c classifies every ticket
// with the fallback.
func NewEngine(c oracle.Classifier) *Engine {
	return &Engine{oracle: c}
}

// Classify returns one MatchResult per ticket in batch.Tickets, in order.
func (e *Engine) Classify(ctx context.Context, batch Batch) []models.MatchResult {
	log := logging.With("project_key", batch.ProjectKey, "assignee", batch.Assignee)

	if len(batch.Tickets) == 0 {
		return []models.MatchResult{}
	}
	if e == nil || e.oracle == nil {
		log.Warn("oracle not available, skipping analysis", "tickets", len(batch.Tickets))
		return Fallback(batch.Tickets, FallbackReasoning)
	}

	prompt, err := BuildPrompt(batch)
	if err != nil {
		log.Error("failed to build prompt", "error", err)
		return Fallback(batch.Tickets, FallbackReasoning)
	}

	log.Info("analyzing tickets with oracle", "tickets", len(batch.Tickets), "commits", len(batch.Commits))

	answer, err := e.oracle.Classify(ctx, prompt, SchemaHint)
	if err != nil {
		log.Error("oracle analysis failed, falling back", "error", err)
		return Fallback(batch.Tickets, FallbackReasoning)
	}

	verdicts, err := parseVerdicts(answer)
	if err != nil {
		log.Error("oracle answer not decodable, falling back", "error", err)
		return Fallback(batch.Tickets, FallbackReasoning)
	}

	results := reconcile(batch, verdicts)
	log.Info("oracle analyzed tickets", "verdicts", len(verdicts), "results", len(results))
	return results
}

// Fallback classifies every ticket as PENDING with zero confidence.
func Fallback(tickets []models.Ticket, reasoning string) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(tickets))
	for _, ticket := range tickets {
		results = append(results, pending(ticket, reasoning))
	}
	return results
}

func pending(ticket models.Ticket, reasoning string) models.MatchResult {
	return models.MatchResult{
		Ticket:         ticket,
		Status:         models.StatusPending,
		Confidence:     0,
		Reasoning:      reasoning,
		MatchedCommits: []models.MatchedCommit{},
		MatchTypes:     []models.MatchType{},
	}
}

// TierFor maps a confidence score to its status band.
func TierFor(confidence int) models.MatchStatus {
	switch {
	case confidence >= 90:
		return models.StatusCompleted
	case confidence >= 60:
		return models.StatusLikelyDone
	case confidence >= 30:
		return models.StatusInProgress
	default:
		return models.StatusPending
	}
}

// tierBand returns the inclusive confidence range of a status.
func tierBand(status models.MatchStatus) (lo, hi int) {
	switch status {
	case models.StatusCompleted:
		return 90, 100
	case models.StatusLikelyDone:
		return 60, 89
	case models.StatusInProgress:
		return 30, 59
	default:
		return 0, 29
	}
}

// lowerTier returns the less advanced of two statuses.
func lowerTier(a, b models.MatchStatus) models.MatchStatus {
	loA, _ := tierBand(a)
	loB, _ := tierBand(b)
	if loA <= loB {
		return a
	}
	return b
}
