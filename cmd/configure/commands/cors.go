package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/benvon/cupid-code/internal/validation"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options. The server picks changes up without a restart.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				c, err := database.NewCorsConfigRepository(db).Get(ctx)
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				if c == nil {
					fmt.Println("No CORS configuration in database. Use 'cors set' to add one.")
					return nil
				}
				fmt.Println("CORS configuration:")
				fmt.Printf("  Allowed origins: %s\n", c.AllowedOrigins)
				fmt.Printf("  Allow credentials: %v\n", c.AllowCredentials)
				fmt.Printf("  Max-Age: %d\n", c.MaxAge)
				fmt.Printf("  Updated: %s\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated http(s) origins, or *).",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			if err := validation.ValidateOrigins(origins); err != nil {
				return err
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age cannot be negative")
			}
			c := &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewCorsConfigRepository(db).Set(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				fmt.Println("CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
