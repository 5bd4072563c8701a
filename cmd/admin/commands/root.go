package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/secdesk/backend/internal/config"
	"github.com/secdesk/backend/internal/db"
	"github.com/secdesk/backend/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	dbURL      string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "secdesk-admin",
	Short: "Administrative tasks for the SecDesk backend",
	Long: `secdesk-admin runs maintenance tasks against the SecDesk database:
schema migrations, seeding initial accounts and printing the incident summary.
It can also probe a running server's health endpoint.

Connection settings come from the same environment (and .env file) as the
server; --db overrides DATABASE_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "WARN"
		if verbose {
			level = "DEBUG"
		}
		logger.Initialize(level, "")
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig reads the database settings; --db wins over DATABASE_URL.
func loadConfig() (*config.DatabaseConfig, error) {
	if dbURL != "" {
		if err := os.Setenv("DATABASE_URL", dbURL); err != nil {
			return nil, err
		}
	}
	return config.LoadDatabase()
}

func openDB(ctx context.Context) (*gorm.DB, *config.DatabaseConfig, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := db.Ping(ctx, gdb); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("database unreachable: %w", err)
	}
	return gdb, cfg, closeFn, nil
}
