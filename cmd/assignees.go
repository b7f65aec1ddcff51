package cmd

import (
	"github.com/spf13/cobra"
)

// assigneesCmd shows how a project's tickets are spread across assignees.
var assigneesCmd = &cobra.Command{
	Use:   "assignees <PROJECT_KEY>",
	Short: "Show a project's tickets per assignee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeSession(session)

		breakdown, err := session.AssigneeBreakdown(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printBreakdown(cmd.OutOrStdout(), breakdown)
	},
}
