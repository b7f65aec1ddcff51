package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/danielolaszy/ticketpulse/internal/artifact"
	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/spf13/cobra"
)

// batchCmd analyzes every mapped project.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every project with mapped repositories",
	Long: `Analyze all projects in the repository mapping, one at a time and in key order,
pausing between projects (analysis.delay). A failing project is reported and
the run continues. Results are written to batch_analysis_<YYYYMMDD_HHMMSS>.json.

Interrupting the run stops it before the next project; the projects finished
so far are still saved.`,
	Args: cobra.NoArgs,
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

		return runBatch(cmd.Context(), cmd.OutOrStdout(), session, store, filter, time.Now())
	},
}

func runBatch(ctx context.Context, out io.Writer, analyzer projectAnalyzer, store artifact.Store, filter string, now time.Time) error {
	outcomes, runErr := analyzer.AnalyzeAll(ctx, filter)

	for _, outcome := range outcomes {
		fmt.Fprintf(out, "%s: %s\n", outcome.ProjectKey, tracker.QuickSummary(outcome))
	}
	if err := printSummaryTable(out, outcomes); err != nil {
		return err
	}

	// Partial results are saved before reporting an interruption. The store
	// gets a fresh context so a cancelled run can still write its artifact.
	path, err := artifact.WriteJSON(context.WithoutCancel(ctx), store, artifact.BatchName(now), outcomes)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nBatch results saved to: %s\n", path)

	if runErr != nil {
		return fmt.Errorf("batch analysis interrupted after %d projects: %w", len(outcomes), runErr)
	}
	return nil
}
