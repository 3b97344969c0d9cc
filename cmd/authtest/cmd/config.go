package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/authtest/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		rows := [][2]string{
			{"APP_ADDR", cfg.Addr},
			{"SESSION_SECRET", mask(cfg.SessionSecret)},
			{"BACKEND_BASE_URL", cfg.BackendBaseURL},
			{"IDENTITY_PROVIDER", cfg.IdentityProvider},
			{"FIREBASE_API_KEY", mask(cfg.FirebaseAPIKey)},
			{"FIREBASE_AUTH_EMULATOR_HOST", cfg.FirebaseEmulatorHost},
			{"MEMORY_STORE_PATH", cfg.MemoryStorePath},
			{"MEMORY_TOKEN_SECRET", mask(cfg.MemoryTokenSecret)},
			{"MEMORY_INIT_DELAY", cfg.MemoryInitDelay.String()},
			{"SIGNUP_BLOCK_ON_MISMATCH", fmt.Sprint(cfg.BlockSignUpOnMismatch)},
			{"SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout.String()},
			{"LOG_FORMAT", cfg.LogFormat},
			{"LOG_LEVEL", cfg.LogLevel},
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%-28s %s\n", r[0], r[1])
		}
		return nil
	},
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
