package cmd

import (
	"github.com/spf13/cobra"
)

// projectsCmd lists JIRA projects with their mapped repositories.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List JIRA projects and their GitHub repositories",
	Long: `List every JIRA project visible to the configured account, marking the
projects that have GitHub repositories mapped and can therefore be analyzed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeSession(session)

		projects, err := session.DiscoverProjects(cmd.Context())
		if err != nil {
			return err
		}

		return printProjects(cmd.OutOrStdout(), projects)
	},
}
