// Package cmd provides the command-line interface for ticketpulse.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ticketpulse",
	Short: "Ticketpulse estimates JIRA ticket completion from GitHub commits",
	Long: `Ticketpulse is a CLI tool that correlates the JIRA tickets of a project with the
recent GitHub commits of each assignee. Every ticket is classified as COMPLETED,
LIKELY_DONE, IN_PROGRESS or PENDING with a confidence score, giving a view of
delivery that does not depend on tickets being moved by hand.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so long batch runs stop between projects.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is .ticketpulse.yaml in the current or home directory)")
	rootCmd.PersistentFlags().StringP("status", "s", "active", "ticket status filter: 'active', 'all' or a JIRA status name")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "directory for report artifacts (overrides ARTIFACT_DIR)")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(assigneesCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

// loadConfig reads configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.Artifact.Dir = outputDir
	}
	return cfg, nil
}

// openSession loads configuration and connects to JIRA and GitHub. The
// caller must Close the session.
func openSession(cmd *cobra.Command) (*config.Config, *tracker.Session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	session, err := tracker.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, session, nil
}

func closeSession(session *tracker.Session) {
	if err := session.Close(); err != nil {
		logging.Warn("failed to close session", "error", err)
	}
}

func statusFilter(cmd *cobra.Command) (string, error) {
	return cmd.Flags().GetString("status")
}
