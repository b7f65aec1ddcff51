package cmd

import (
	"github.com/danielolaszy/ticketpulse/internal/httpapi"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve project analysis over HTTP",
	Long: `Start an HTTP server exposing:

  GET  /healthz
  GET  /projects
  GET  /projects/:key/analysis?status=
  GET  /projects/:key/report?status=
  GET  /projects/:key/assignees
  POST /batch?status=

The listen address comes from --addr, HTTP_ADDR or http.addr (default :8080).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeSession(session)

		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return err
		}
		if addr == "" {
			addr = cfg.HTTP.Addr
		}

		return httpapi.Serve(cmd.Context(), addr, session)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address")
}
