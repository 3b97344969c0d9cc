package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authtest",
	Short: "Email/password identity provider test application",
	Long: `authtest serves a small web application that signs users up, in and out
through an identity provider and calls a backend "me" endpoint with the
signed-in user's bearer token.

Available commands:
  serve      Start the web server (default)
  config     Print the effective configuration
  version    Print the version

Use "authtest [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
