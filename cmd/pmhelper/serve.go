package main

import (
	"fmt"

	"github.com/HendryAvila/pmhelper/internal/server"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP agent API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		addr := app.Config.HTTP.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return server.ListenAndServe(cmd.Context(), addr, server.NewHTTPHandler(app), app.Log)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdin/stdout. Logs go to stderr.

Add to your MCP client config:

  {
    "mcpServers": {
      "pmhelper": {
        "command": "pmhelper",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		s := server.NewMCPServer(app)
		app.Log.Info().Str("version", server.Version).Msg("mcp server on stdio")
		if err := mcpserver.ServeStdio(s); err != nil {
			return fmt.Errorf("serving stdio: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http.addr)")
}
