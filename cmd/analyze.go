package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/danielolaszy/ticketpulse/internal/artifact"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/spf13/cobra"
)

// projectAnalyzer is the part of a tracker session the analysis commands use.
type projectAnalyzer interface {
	AnalyzeProject(ctx context.Context, projectKey, statusFilter string) (*models.ProjectAnalysis, error)
	AnalyzeAll(ctx context.Context, statusFilter string) ([]models.ProjectOutcome, error)
}

// analyzeCmd analyzes a single project.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <PROJECT_KEY>",
	Short: "Estimate ticket completion for one JIRA project",
	Long: `Analyze a JIRA project: fetch its tickets, group them by assignee, read each
assignee's recent commits from the project's GitHub repositories and classify
every ticket.

The text report is printed and two artifacts are written:
  report_<KEY>_<YYYYMMDD_HHMMSS>.json
  report_<KEY>_<YYYYMMDD_HHMMSS>.txt

Example:
  ticketpulse analyze AL --status all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := statusFilter(cmd)
		if err != nil {
			return err
		}

		cfg, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeSession(session)

		store, err := artifact.NewStore(cmd.Context(), cfg.Artifact)
		if err != nil {
			return err
		}

		return runAnalyze(cmd.Context(), cmd.OutOrStdout(), session, store, args[0], filter, time.Now())
	},
}

func runAnalyze(ctx context.Context, out io.Writer, analyzer projectAnalyzer, store artifact.Store, projectKey, filter string, now time.Time) error {
	analysis, err := analyzer.AnalyzeProject(ctx, projectKey, filter)
	if err != nil {
		return fmt.Errorf("failed to analyze project %s: %w", projectKey, err)
	}

	report := tracker.Report(analysis)
	fmt.Fprint(out, report)
	if err := printSummaryTable(out, []models.ProjectOutcome{{ProjectKey: analysis.ProjectKey, Analysis: analysis}}); err != nil {
		return err
	}

	base := artifact.ProjectReportName(analysis.ProjectKey, now)
	jsonPath, err := artifact.WriteJSON(ctx, store, base+".json", analysis)
	if err != nil {
		return err
	}
	textPath, err := store.Put(ctx, base+".txt", []byte(report))
	if err != nil {
		return err
	}

	logging.Info("analysis saved", "json", jsonPath, "report", textPath)
	fmt.Fprintf(out, "\nResults saved to: %s\nReport saved to: %s\n", jsonPath, textPath)
	return nil
}
