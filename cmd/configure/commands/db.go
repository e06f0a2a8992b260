package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/cupid-code/internal/config"
	"github.com/benvon/cupid-code/internal/database"
	"github.com/spf13/cobra"
)

// withDB loads configuration, opens the database for the duration of fn and closes it afterwards
func withDB(cmd *cobra.Command, fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	return fn(cmd.Context(), db)
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
				fmt.Println("Database schema is up to date.")
				return nil
			})
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
