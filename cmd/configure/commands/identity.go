package commands

import (
	"context"
	"fmt"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/spf13/cobra"
)

// NewIdentityCmd creates the identity provider configuration command
func NewIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage identity providers",
		Long:  "Create, update or remove the identity provider used for login and sign-up",
	}
	cmd.AddCommand(newIdentitySetCmd())
	cmd.AddCommand(newIdentityDeleteCmd())
	return cmd
}

func newIdentitySetCmd() *cobra.Command {
	var issuer, clientID, clientSecret, tokenURL, signupURL, jwksURL string

	cmd := &cobra.Command{
		Use:   "set <provider-name>",
		Short: "Create or update an identity provider",
		Long:  "Store an identity provider. The server selects one by IDENTITY_PROVIDER (default \"default\").",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			if provider == "" {
				return fmt.Errorf("provider name cannot be empty")
			}
			if issuer == "" || clientID == "" {
				return fmt.Errorf("required flags: --issuer, --client-id")
			}

			c := &models.IdentityConfig{
				Provider:     provider,
				Issuer:       issuer,
				ClientID:     clientID,
				ClientSecret: optional(clientSecret),
				TokenURL:     optional(tokenURL),
				SignupURL:    optional(signupURL),
				JWKSUrl:      optional(jwksURL),
			}

			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewIdentityConfigRepository(db).Upsert(ctx, c); err != nil {
					return err
				}
				fmt.Printf("Saved identity provider: %s\n", provider)
				fmt.Printf("  Token URL: %s\n", c.ResolvedTokenURL())
				fmt.Printf("  JWKS URL: %s\n", c.ResolvedJWKSURL())
				if c.SignupURL == nil {
					fmt.Println("  Sign-up: disabled (no --signup-url)")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "", "Token issuer URL (required)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID (required)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret (optional for public clients)")
	cmd.Flags().StringVar(&tokenURL, "token-url", "", "Token endpoint (default {issuer}/oauth2/token)")
	cmd.Flags().StringVar(&signupURL, "signup-url", "", "Account creation endpoint (sign-up is disabled without it)")
	cmd.Flags().StringVar(&jwksURL, "jwks-url", "", "Key set endpoint (default {issuer}/.well-known/jwks.json)")

	return cmd
}

func newIdentityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider-name>",
		Short: "Remove an identity provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewIdentityConfigRepository(db).Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Deleted identity provider: %s\n", args[0])
				return nil
			})
		},
	}
}
