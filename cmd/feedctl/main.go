package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mr1hm/resqlink/internal/backend"
	"github.com/mr1hm/resqlink/internal/config"
	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "feedctl",
	Short:         "Inspect the disaster feed, live SOS updates and announcements",
	Long:          "Command-line access to the GDACS disaster feed, the live SOS feed and the announcement board of the application backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if u, _ := cmd.Flags().GetString("api"); u != "" {
			c.Backend.BaseURL = u
		}
		cfg = c

		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = cfg.Logging.Level
		}
		logging.SetupText(level, os.Stderr)
		return nil
	},
}

func newBackendClient() *backend.Client {
	return backend.NewClient(fetch.NewClient(), cfg.Backend.BaseURL, clockwork.NewRealClock())
}

func init() {
	rootCmd.PersistentFlags().String("api", "", "application backend base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "log level on stderr (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
