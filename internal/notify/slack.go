// Package notify posts project analysis summaries to chat.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/slack-go/slack"
)

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts one message per analyzed project.
type SlackNotifier struct {
	api     poster
	channel string
}

// NewSlackNotifier creates a notifier for the configured channel. Extra
// options are passed to the Slack client.
func NewSlackNotifier(cfg config.SlackConfig, options ...slack.Option) (*SlackNotifier, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("missing required environment variables: %v", missingSlack(cfg))
	}
	logging.Info("slack notifications enabled",
		"channel", cfg.Channel,
		"token", logging.MaskSensitive(cfg.Token))
	return &SlackNotifier{
		api:     slack.New(cfg.Token, options...),
		channel: cfg.Channel,
	}, nil
}

func missingSlack(cfg config.SlackConfig) []string {
	var missing []string
	if cfg.Token == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if cfg.Channel == "" {
		missing = append(missing, "SLACK_CHANNEL")
	}
	return missing
}

// NotifyProject posts the project's summary.
func (n *SlackNotifier) NotifyProject(ctx context.Context, analysis *models.ProjectAnalysis) error {
	_, ts, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(Message(analysis), false))
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	logging.Debug("slack message posted", "channel", n.channel, "ts", ts, "project_key", analysis.ProjectKey)
	return nil
}

// Message renders the chat summary of an analysis: a headline with the
// project totals followed by one line per assignee.
func Message(analysis *models.ProjectAnalysis) string {
	identities := make([]string, 0, len(analysis.AssigneeAnalysis))
	var tickets, done int
	for identity, data := range analysis.AssigneeAnalysis {
		identities = append(identities, identity)
		tickets += data.Summary.TotalTickets
		done += data.Summary.Completed + data.Summary.LikelyDone
	}
	sort.Strings(identities)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %d/%d tickets completed/likely done\n", analysis.ProjectKey, done, tickets)
	for _, identity := range identities {
		s := analysis.AssigneeAnalysis[identity].Summary
		fmt.Fprintf(&b, "• %s: %d completed, %d likely done, %d in progress, %d pending (%d commits)\n",
			identity, s.Completed, s.LikelyDone, s.InProgress, s.Pending, s.TotalCommits)
	}
	return strings.TrimRight(b.String(), "\n")
}
