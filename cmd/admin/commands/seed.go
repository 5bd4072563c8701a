package commands

import (
	"fmt"

	"github.com/secdesk/backend/internal/seed"
	"github.com/secdesk/backend/internal/store"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the initial accounts",
	Long: `Create the accounts listed in the seed file. Accounts whose email
already exists are skipped, so the command is safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gdb, cfg, closeDB, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		path := cfg.SeedFile
		if seedFile != "" {
			path = seedFile
		}
		f, err := seed.LoadFile(path)
		if err != nil {
			return err
		}

		res, err := seed.Users(ctx, store.NewGormStore(gdb), f.Users)
		if err != nil {
			return err
		}
		fmt.Printf("Seeding completed: %d created, %d already present\n", res.Created, res.Skipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed file (defaults to SEED_FILE)")
	rootCmd.AddCommand(seedCmd)
}
