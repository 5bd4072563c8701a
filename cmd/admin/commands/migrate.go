package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/secdesk/backend/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage the embedded schema migrations.

Subcommands:
  up      - Apply pending migrations
  status  - Show migration status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateUp(cmd.Context())
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Show every embedded migration and whether it has been applied.

Examples:
  secdesk-admin migrate status
  secdesk-admin migrate status --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateStatus(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrateUp(ctx context.Context) error {
	gdb, _, closeDB, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := db.Migrate(ctx, gdb); err != nil {
		return err
	}
	fmt.Println("Database migrations completed successfully")
	return nil
}

func runMigrateStatus(ctx context.Context) error {
	gdb, _, closeDB, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	statuses, err := db.Status(ctx, gdb)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tFILE\tSTATE\tAPPLIED AT")
	for _, s := range statuses {
		state, appliedAt := "pending", "-"
		if s.Applied {
			state = "applied"
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, s.Path, state, appliedAt)
	}
	return w.Flush()
}
