package main

import (
	"github.com/HendryAvila/pmhelper/internal/devbackend"
	"github.com/HendryAvila/pmhelper/internal/logging"
	"github.com/HendryAvila/pmhelper/internal/server"
	"github.com/spf13/cobra"
)

var (
	devDB   string
	devAddr string
)

var devbackendCmd = &cobra.Command{
	Use:   "devbackend",
	Short: "Serve the persistence REST API from a local sqlite file",
	Long: `Serve the persistence REST API from a local sqlite file.

Point backend.url (PMH_BACKEND_URL) at it to run the agents without the
production backend:

  pmhelper devbackend --addr :4000 &
  PMH_BACKEND_URL=http://localhost:4000 pmhelper serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.DevBackend.DB
		if devDB != "" {
			path = devDB
		}
		addr := cfg.DevBackend.Addr
		if devAddr != "" {
			addr = devAddr
		}

		store, err := devbackend.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		log = logging.Component(log, "devbackend")
		log.Info().Str("db", path).Msg("database ready")
		return server.ListenAndServe(cmd.Context(), addr, devbackend.NewHandler(store, log), log)
	},
}

func init() {
	devbackendCmd.Flags().StringVar(&devDB, "db", "", "sqlite file (overrides devbackend.db)")
	devbackendCmd.Flags().StringVar(&devAddr, "addr", "", "listen address (overrides devbackend.addr)")
}
