// pmhelper: product-management agents over MCP and HTTP.
//
// Three agents draft PRDs, technical specifications and roadmaps, and
// persist them through a REST backend using model tool calls.
//
// Usage:
//
//	pmhelper mcp          # MCP server (stdio transport)
//	pmhelper serve        # HTTP agent API
//	pmhelper chat "..."   # one turn against an agent
//	pmhelper templates    # list templates
//	pmhelper devbackend   # local sqlite persistence backend
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/pmhelper/internal/config"
	"github.com/HendryAvila/pmhelper/internal/logging"
	"github.com/HendryAvila/pmhelper/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pmhelper",
	Short: "Product-management agents for PRDs, specs and roadmaps",
	Long: `pmhelper runs three agents (PRD, technical specification and roadmap)
that draft documents with a language model and save them through the
persistence backend via tool calls.

Configuration comes from --config (yaml, json or toml) and PMH_* environment
variables, for example PMH_LLM_PROVIDER and PMH_BACKEND_URL.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file")
	rootCmd.AddCommand(mcpCmd, serveCmd, chatCmd, templatesCmd, devbackendCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and returns it with a logger to stderr.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Pretty), nil
}

// loadApp reads and validates the config and wires every component.
func loadApp() (*server.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app, err := server.Build(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("building components: %w", err)
	}
	return app, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pmhelper v%s\n", server.Version)
	},
}
