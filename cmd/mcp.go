package cmd

import (
	"github.com/danielolaszy/ticketpulse/internal/mcpserver"
	"github.com/spf13/cobra"
)

// mcpCmd serves the analysis tools over the MCP stdio transport. Logs go to
// stderr so stdout carries only the protocol.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the ticketpulse MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents discover projects and run ticket completion analysis.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeSession(session)

		return mcpserver.Serve(cmd.Context(), session)
	},
}
