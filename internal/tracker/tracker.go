// Package tracker drives project analysis: it resolves repositories, pulls
// tickets and commits per assignee, classifies them and aggregates the results.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danielolaszy/ticketpulse/internal/jira"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/matcher"
	"github.com/danielolaszy/ticketpulse/internal/repomap"
	"github.com/danielolaszy/ticketpulse/pkg/models"
)

var (
	// ErrNoRepositoryMapping is returned for projects without mapped repositories.
	ErrNoRepositoryMapping = errors.New("No repository mapping found")
	// ErrNoIssues is returned when the ticket query matched nothing.
	ErrNoIssues = errors.New("No issues found")
)

// NoCommitsReasoning is attached to the tickets of assignees without commits.
const NoCommitsReasoning = "No commits found for assignee"

// TicketSource retrieves tickets from the tracker.
type TicketSource interface {
	FetchTicketsByAssignee(ctx context.Context, projectKey, statusFilter string) (map[string][]models.Ticket, error)
	BreakdownByAssignee(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// CommitSource retrieves commits from the code host.
type CommitSource interface {
	FetchCommits(ctx context.Context, repositories []string, authorEmail string, limitPerRepo int) ([]models.Commit, []models.SkippedRepository)
	CurrentUser(ctx context.Context) (models.GitHubUser, error)
}

// Classifier classifies one assignee's tickets.
type Classifier interface {
	Classify(ctx context.Context, batch matcher.Batch) []models.MatchResult
}

// Notifier receives every successful project analysis.
type Notifier interface {
	NotifyProject(ctx context.Context, analysis *models.ProjectAnalysis) error
}

// Options tunes a Tracker.
type Options struct {
	// CommitLimit is the number of recent commits read per repository.
	CommitLimit int
	// ProjectDelay is the pause between projects in AnalyzeAll.
	ProjectDelay time.Duration
	// Now stamps analyses; defaults to time.Now.
	Now func() time.Time
}

// Tracker analyzes projects.
type Tracker struct {
	tickets  TicketSource
	commits  CommitSource
	engine   Classifier
	repos    *repomap.Map
	notifier Notifier
	opts     Options
}

// New creates a Tracker. A nil repos uses the built-in repository table.
func New(tickets TicketSource, commits CommitSource, engine Classifier, repos *repomap.Map, opts Options) *Tracker {
	if repos == nil {
		repos = repomap.Default()
	}
	if opts.CommitLimit <= 0 {
		opts.CommitLimit = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		tickets: tickets,
		commits: commits,
		engine:  engine,
		repos:   repos,
		opts:    opts,
	}
}

// SetNotifier registers a best-effort notifier for analyzed projects.
func (t *Tracker) SetNotifier(n Notifier) {
	t.notifier = n
}

// Repositories exposes the repository table.
func (t *Tracker) Repositories() *repomap.Map {
	return t.repos
}

// AnalyzeProject classifies every ticket in the project. It fails before any
// ticket fetch when the project has no repositories, and with ErrNoIssues
// when the query returns nothing. No partial analysis is ever returned.
func (t *Tracker) AnalyzeProject(ctx context.Context, projectKey, statusFilter string) (*models.ProjectAnalysis, error) {
	projectKey = strings.ToUpper(strings.TrimSpace(projectKey))
	if err := jira.ValidateProjectKey(projectKey); err != nil {
		return nil, err
	}
	log := logging.With("project_key", projectKey)

	repos := t.repos.Resolve(projectKey)
	if len(repos) == 0 {
		log.Warn("no github repositories mapped for project")
		return nil, fmt.Errorf("%w for %s", ErrNoRepositoryMapping, projectKey)
	}
	log.Info("analyzing project", "repositories", strings.Join(repos, ", "), "status_filter", statusFilter)

	grouped, err := t.tickets.FetchTicketsByAssignee(ctx, projectKey, statusFilter)
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		log.Warn("no issues found for project")
		return nil, ErrNoIssues
	}

	identities := make([]string, 0, len(grouped))
	for identity := range grouped {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	assignees := make(map[string]*models.AssigneeAnalysis, len(grouped))
	for _, identity := range identities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		assignees[identity] = t.analyzeAssignee(ctx, projectKey, identity, grouped[identity], repos)
	}

	analysis := &models.ProjectAnalysis{
		ProjectKey:       projectKey,
		Repositories:     repos,
		AssigneeAnalysis: assignees,
		Timestamp:        t.opts.Now().Format(time.RFC3339),
	}

	totals := ProjectTotals(analysis)
	log.Info("project analyzed",
		"assignees", len(assignees),
		"tickets", totals.Tickets,
		"completed", totals.Completed,
		"likely_done", totals.LikelyDone)

	t.notify(ctx, analysis)
	return analysis, nil
}

func (t *Tracker) analyzeAssignee(ctx context.Context, projectKey, identity string, tickets []models.Ticket, repos []string) *models.AssigneeAnalysis {
	log := logging.With("project_key", projectKey, "assignee", identity)
	log.Info("analyzing assignee", "tickets", len(tickets))

	// The first ticket's email filters commits; no email means no filter.
	email := tickets[0].AssigneeEmail
	commits, skipped := t.commits.FetchCommits(ctx, repos, email, t.opts.CommitLimit)
	if commits == nil {
		commits = []models.Commit{}
	}

	var matches []models.MatchResult
	if len(commits) == 0 {
		log.Info("no commits found for assignee")
		matches = matcher.Fallback(tickets, NoCommitsReasoning)
	} else {
		matches = t.engine.Classify(ctx, matcher.Batch{
			ProjectKey: projectKey,
			Assignee:   identity,
			Tickets:    tickets,
			Commits:    commits,
		})
	}

	summary := Summarize(tickets, matches, len(commits))
	log.Info("assignee summary",
		"completed", summary.Completed,
		"likely_done", summary.LikelyDone,
		"in_progress", summary.InProgress,
		"pending", summary.Pending)

	return &models.AssigneeAnalysis{
		Tickets:             tickets,
		Commits:             commits,
		Matches:             matches,
		Summary:             summary,
		SkippedRepositories: skipped,
	}
}

func (t *Tracker) notify(ctx context.Context, analysis *models.ProjectAnalysis) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.NotifyProject(ctx, analysis); err != nil {
		logging.Warn("failed to send project notification", "project_key", analysis.ProjectKey, "error", err)
	}
}

// AnalyzeAll analyzes every configured project in key order, one at a time.
// A failing project is recorded in its outcome and the run continues. The
// pause between projects stops early when ctx is cancelled, in which case
// the outcomes gathered so far are returned with ctx's error.
func (t *Tracker) AnalyzeAll(ctx context.Context, statusFilter string) ([]models.ProjectOutcome, error) {
	keys := t.repos.Keys()
	outcomes := make([]models.ProjectOutcome, 0, len(keys))

	for i, key := range keys {
		if i > 0 && t.opts.ProjectDelay > 0 {
			timer := time.NewTimer(t.opts.ProjectDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return outcomes, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		analysis, err := t.AnalyzeProject(ctx, key, statusFilter)
		if err != nil {
			logging.Error("error analyzing project", "project_key", key, "error", err)
			outcomes = append(outcomes, models.ProjectOutcome{ProjectKey: key, Err: err})
			continue
		}
		outcomes = append(outcomes, models.ProjectOutcome{ProjectKey: key, Analysis: analysis})
	}

	logging.Info("batch analysis complete", "projects", len(outcomes))
	return outcomes, nil
}

// DiscoverProjects lists tracker projects with their mapped repositories.
func (t *Tracker) DiscoverProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := t.tickets.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Repositories = t.repos.Resolve(projects[i].Key)
	}
	return projects, nil
}

// AssigneeBreakdown lists the project's tickets per assignee.
func (t *Tracker) AssigneeBreakdown(ctx context.Context, projectKey string) ([]models.AssigneeBreakdown, error) {
	projectKey = strings.ToUpper(strings.TrimSpace(projectKey))
	if err := jira.ValidateProjectKey(projectKey); err != nil {
		return nil, err
	}
	return t.tickets.BreakdownByAssignee(ctx, projectKey)
}

// CurrentUser returns the authenticated code host identity.
func (t *Tracker) CurrentUser(ctx context.Context) (models.GitHubUser, error) {
	return t.commits.CurrentUser(ctx)
}
