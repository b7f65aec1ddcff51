package cmd

import (
	"fmt"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/github"
	"github.com/spf13/cobra"
)

// whoamiCmd prints the GitHub identity behind GITHUB_TOKEN. It needs no JIRA
// configuration.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated GitHub user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}

		client, err := github.NewClient(cfg)
		if err != nil {
			return err
		}

		user, err := client.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Login: %s\n", user.Login)
		fmt.Fprintf(out, "Name:  %s\n", valueOr(user.Name, "-"))
		fmt.Fprintf(out, "Email: %s\n", valueOr(user.Email, "-"))
		fmt.Fprintf(out, "URL:   %s\n", user.URL)
		return nil
	},
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
