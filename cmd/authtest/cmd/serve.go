package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nfrund/authtest/internal/config"
	"github.com/nfrund/authtest/internal/logging"
	"github.com/nfrund/authtest/internal/server"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addrFlag != "" {
			cfg.Addr = addrFlag
		}
		logging.New(cfg.LogFormat, cfg.LogLevel)

		s, err := server.New(cfg)
		if err != nil {
			slog.Error("Failed to initialise server", "error", err)
			return err
		}
		return s.Start(cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides APP_ADDR)")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}
