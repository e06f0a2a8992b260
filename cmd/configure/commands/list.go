package commands

import (
	"context"
	"fmt"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured identity providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				configs, err := database.NewIdentityConfigRepository(db).GetAll(ctx)
				if err != nil {
					return fmt.Errorf("failed to list identity providers: %w", err)
				}

				if len(configs) == 0 {
					fmt.Println("No identity providers configured")
					return nil
				}

				fmt.Println("Configured identity providers:")
				for _, c := range configs {
					fmt.Printf("  - Provider: %s\n", c.Provider)
					fmt.Printf("    Issuer: %s\n", c.Issuer)
					fmt.Printf("    Client ID: %s\n", c.ClientID)
					fmt.Printf("    Token URL: %s\n", c.ResolvedTokenURL())
					fmt.Printf("    JWKS URL: %s\n", c.ResolvedJWKSURL())
					if c.SignupURL != nil {
						fmt.Printf("    Sign-up URL: %s\n", *c.SignupURL)
					}
					fmt.Println()
				}
				return nil
			})
		},
	}
}
