package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danielolaszy/ticketpulse/internal/tracker"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const maxTableRepositories = 3

var (
	completedColor  = color.New(color.FgGreen, color.Bold)
	likelyDoneColor = color.New(color.FgGreen)
	inProgressColor = color.New(color.FgYellow)
	pendingColor    = color.New(color.FgHiBlack)
	errorColor      = color.New(color.FgRed, color.Bold)
)

// printSummaryTable prints one row per project outcome with status counts.
func printSummaryTable(out io.Writer, outcomes []models.ProjectOutcome) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Project", "Tickets", "Completed", "Likely Done", "In Progress", "Pending", "Commits", "Done"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, outcome := range outcomes {
		if outcome.Err != nil || outcome.Analysis == nil {
			data = append(data, []string{
				outcome.ProjectKey,
				errorColor.Sprint("error"), "-", "-", "-", "-", "-", "-",
			})
			continue
		}
		totals := tracker.ProjectTotals(outcome.Analysis)
		data = append(data, []string{
			outcome.ProjectKey,
			strconv.Itoa(totals.Tickets),
			completedColor.Sprint(totals.Completed),
			likelyDoneColor.Sprint(totals.LikelyDone),
			inProgressColor.Sprint(totals.InProgress),
			pendingColor.Sprint(totals.Pending),
			strconv.Itoa(totals.Commits),
			donePercent(totals),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func donePercent(totals tracker.Totals) string {
	if totals.Tickets == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", totals.Done()*100/totals.Tickets)
}

// printProjects prints the discovered projects, marking the analyzable ones.
func printProjects(out io.Writer, projects []models.Project) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Key", "Name", "Repositories"})

	green := color.New(color.FgGreen).SprintFunc()
	grey := color.New(color.FgHiBlack).SprintFunc()

	var data [][]string
	mapped := 0
	for _, p := range projects {
		repos := grey("(no repo mapping)")
		if p.Mapped() {
			mapped++
			repos = green("✓ ") + summarizeRepositories(p.Repositories)
		}
		data = append(data, []string{p.Key, p.Name, repos})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d projects, %d with repository mapping\n", len(projects), mapped)
	return err
}

func summarizeRepositories(repos []string) string {
	if len(repos) <= maxTableRepositories {
		return strings.Join(repos, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(repos[:maxTableRepositories], ", "), len(repos)-maxTableRepositories)
}

// printBreakdown prints ticket counts per assignee.
func printBreakdown(out io.Writer, breakdown []models.AssigneeBreakdown) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Assignee", "Tickets", "Keys"})

	var data [][]string
	for _, b := range breakdown {
		keys := make([]string, 0, len(b.Tickets))
		for _, t := range b.Tickets {
			keys = append(keys, t.Key)
		}
		data = append(data, []string{b.Assignee, strconv.Itoa(b.TicketCount), strings.Join(keys, " ")})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
