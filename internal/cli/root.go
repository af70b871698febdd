// Package cli implements the governctl operator CLI: one-shot governance
// maintenance against the shared Postgres instance, without an API server.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"castellan/internal/platform/config"
	"castellan/internal/platform/db"
)

var rootCmd = &cobra.Command{
	Use:   "governctl",
	Short: "Operator tooling for castellan governance",
	Long:  "Runs governance maintenance as one-shot commands: Segregation-of-Duties scans, access-request SLA sweeps, and compliance reports.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads config and opens the shared database. Callers own Close.
func connect() (*db.Postgres, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "governctl")
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return pg, logger, nil
}
