package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/services/identity"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test identity provider configuration",
		Long:  "Fetch the provider's key set and check that its token endpoint answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf("--provider is required")
			}

			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				c, err := database.NewIdentityConfigRepository(db).GetByProvider(ctx, provider)
				if err != nil {
					return err
				}

				fmt.Printf("Testing identity provider: %s\n", provider)
				fmt.Printf("Issuer: %s\n", c.Issuer)

				client := &http.Client{Timeout: 10 * time.Second}

				fmt.Printf("\nFetching key set: %s\n", c.ResolvedJWKSURL())
				set, err := identity.NewJWKSManager().WithHTTPClient(client).GetJWKS(ctx, c.ResolvedJWKSURL())
				if err != nil {
					return err
				}
				fmt.Printf("✓ Key set has %d key(s)\n", set.Len())

				// an empty password grant must be rejected, not fail at the transport
				fmt.Printf("\nTesting token endpoint: %s\n", c.ResolvedTokenURL())
				form := url.Values{"grant_type": {"password"}, "client_id": {c.ClientID}}
				req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ResolvedTokenURL(), strings.NewReader(form.Encode()))
				if err != nil {
					return fmt.Errorf("failed to build token request: %w", err)
				}
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				resp, err := client.Do(req)
				if err != nil {
					return fmt.Errorf("failed to reach token endpoint: %w", err)
				}
				_ = resp.Body.Close()
				if resp.StatusCode >= http.StatusInternalServerError {
					return fmt.Errorf("token endpoint returned status: %d", resp.StatusCode)
				}
				fmt.Printf("✓ Token endpoint answered with status %d\n", resp.StatusCode)

				if c.SignupURL == nil {
					fmt.Println("\nSign-up is not configured")
				}

				fmt.Println("\n✓ Identity provider configuration test passed")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "default", "Provider name to test")

	return cmd
}
