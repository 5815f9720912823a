package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/db"
	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres schema migrations (store=postgres)",
	RunE:  runMigrate,
}

var migrateList bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List the embedded migrations without applying them")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateList {
		names, err := db.MigrationNames()
		if err != nil {
			fail(exitcode.ValidationError, err, "read migrations failed")
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	if cfg.Store != store.KindPostgres {
		log.Info().Str("store", cfg.Store).Msg("nothing to migrate for this store")
		return nil
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		fail(exitcode.StoreError, err, "database connection failed")
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		fail(exitcode.StoreError, err, "migration failed")
	}

	log.Info().Msg("all migrations applied successfully")
	return nil
}
