package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/github"
	"github.com/danielolaszy/ticketpulse/internal/jira"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/matcher"
	"github.com/danielolaszy/ticketpulse/internal/notify"
	"github.com/danielolaszy/ticketpulse/internal/oracle"
	"github.com/danielolaszy/ticketpulse/internal/repomap"
)

// Session owns the connections of one run. Close it when done.
type Session struct {
	*Tracker
	jira *jira.Client
}

// Open connects the ticket and commit sources described by cfg. The oracle
// and Slack are optional: without them tickets fall back to PENDING and no
// notification is sent.
func Open(ctx context.Context, cfg *config.Config) (*Session, error) {
	source, err := jira.NewSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to JIRA: %w", err)
	}
	tickets := jira.NewClient(source, cfg.Jira.MaxResults, cfg.Analysis.RequestTimeout)

	commits, err := github.NewClient(cfg)
	if err != nil {
		tickets.Close()
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	engine := matcher.NewEngine(nil)
	azure, err := oracle.New(cfg)
	switch {
	case err == nil:
		engine = matcher.NewEngine(azure)
	case errors.Is(err, oracle.ErrOracleUnavailable):
	default:
		logging.Error("failed to initialize oracle, continuing without it", "error", err)
	}

	t := New(tickets, commits, engine, repomap.New(cfg.Repositories, cfg.GitHub.Owner), Options{
		CommitLimit:  cfg.Analysis.CommitLimit,
		ProjectDelay: cfg.Analysis.ProjectDelay,
	})

	if cfg.Slack.Configured() {
		notifier, err := notify.NewSlackNotifier(cfg.Slack)
		if err != nil {
			logging.Warn("slack notifications disabled", "error", err)
		} else {
			t.SetNotifier(notifier)
		}
	}

	logging.Info("session opened",
		"jira_transport", cfg.Jira.Transport,
		"projects", len(t.Repositories().Keys()))
	return &Session{Tracker: t, jira: tickets}, nil
}

// Close releases the ticket source.
func (s *Session) Close() error {
	if s == nil || s.jira == nil {
		return nil
	}
	return s.jira.Close()
}
