package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/pkg/models"
)

// minSHAPrefix is the shortest commit reference resolved against the batch.
const minSHAPrefix = 4

// verdict is one element of the oracle's answer. Only the shape is trusted.
type verdict struct {
	TicketKey      string     `json:"ticket_key"`
	Summary        string     `json:"summary"`
	Status         string     `json:"status"`
	Confidence     confidence `json:"confidence"`
	Reasoning      string     `json:"reasoning"`
	MatchedCommits []string   `json:"matched_commits"`
	MatchTypes     []string   `json:"match_types"`
}

// confidence accepts 95, 95.5, "95" and "95%". Anything else reads as 0.
type confidence float64

func (c *confidence) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = confidence(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*c = confidence(f)
			return nil
		}
	}
	*c = 0
	return nil
}

// parseVerdicts decodes the oracle's answer. Markdown code fences around the
// JSON are removed first.
func parseVerdicts(answer string) ([]verdict, error) {
	body := stripCodeFences(answer)
	if body == "" {
		return nil, fmt.Errorf("empty answer")
	}

	var verdicts []verdict
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(&verdicts); err != nil {
		return nil, fmt.Errorf("answer is not a JSON array of verdicts: %w", err)
	}
	return verdicts, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence and its language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// reconcile turns verdicts into one result per batch ticket. Verdicts for
// unknown tickets are ignored and only the first verdict per ticket counts.
func reconcile(batch Batch, verdicts []verdict) []models.MatchResult {
	log := logging.With("project_key", batch.ProjectKey, "assignee", batch.Assignee)

	known := make(map[string]bool, len(batch.Tickets))
	for _, ticket := range batch.Tickets {
		known[normalizeKey(ticket.Key)] = true
	}

	byKey := make(map[string]verdict, len(verdicts))
	for _, v := range verdicts {
		key := normalizeKey(v.TicketKey)
		if !known[key] {
			log.Debug("ignoring verdict for unknown ticket", "ticket_key", v.TicketKey)
			continue
		}
		if _, dup := byKey[key]; dup {
			log.Debug("ignoring duplicate verdict", "ticket_key", v.TicketKey)
			continue
		}
		byKey[key] = v
	}

	results := make([]models.MatchResult, 0, len(batch.Tickets))
	for _, ticket := range batch.Tickets {
		v, ok := byKey[normalizeKey(ticket.Key)]
		if !ok {
			results = append(results, pending(ticket, NotClassifiedReasoning))
			continue
		}
		results = append(results, toResult(ticket, v, batch.Commits))
	}
	return results
}

func toResult(ticket models.Ticket, v verdict, commits []models.Commit) models.MatchResult {
	score := clampConfidence(float64(v.Confidence))

	// A stated status that disagrees with the score settles on the lower of
	// the two tiers and the score is pulled into that tier's band.
	status := models.MatchStatus(strings.ToUpper(strings.TrimSpace(v.Status)))
	if !status.Valid() {
		status = models.StatusPending
	}
	if tier := TierFor(score); tier != status {
		status = lowerTier(status, tier)
		lo, hi := tierBand(status)
		score = min(max(score, lo), hi)
	}

	matchTypes := normalizeMatchTypes(v.MatchTypes)

	return models.MatchResult{
		Ticket:         ticket,
		Status:         status,
		Confidence:     score,
		Reasoning:      strings.TrimSpace(v.Reasoning),
		MatchedCommits: resolveCommits(v.MatchedCommits, matchTypes, commits),
		MatchTypes:     matchTypes,
	}
}

func clampConfidence(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	score := int(math.Round(f))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeMatchTypes(raw []string) []models.MatchType {
	types := make([]models.MatchType, 0, len(raw))
	seen := make(map[models.MatchType]bool, len(raw))
	for _, r := range raw {
		t := models.MatchType(strings.ToLower(strings.TrimSpace(r)))
		if !t.Valid() || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}

// resolveCommits maps the oracle's short shas onto batch commits by
// case-insensitive prefix. References that match nothing are dropped. When the
// oracle gave as many match types as commits, they are paired by position;
// otherwise every commit carries the full list.
func resolveCommits(refs []string, matchTypes []models.MatchType, commits []models.Commit) []models.MatchedCommit {
	paired := len(refs) == len(matchTypes)

	matched := make([]models.MatchedCommit, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for i, ref := range refs {
		commit, ok := findCommit(ref, commits)
		if !ok || seen[commit.SHA] {
			continue
		}
		seen[commit.SHA] = true

		types := matchTypes
		if paired {
			types = []models.MatchType{matchTypes[i]}
		}
		matched = append(matched, models.MatchedCommit{
			Commit:     commit,
			MatchTypes: append([]models.MatchType{}, types...),
		})
	}
	return matched
}

func findCommit(ref string, commits []models.Commit) (models.Commit, bool) {
	prefix := strings.ToLower(strings.TrimSpace(ref))
	if len(prefix) < minSHAPrefix {
		return models.Commit{}, false
	}
	for _, commit := range commits {
		if strings.HasPrefix(strings.ToLower(commit.SHA), prefix) {
			return commit, true
		}
	}
	return models.Commit{}, false
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
