package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benvon/cupid-code/internal/models"
	"golang.org/x/oauth2"
)

// Client talks to the identity provider on behalf of the login and sign-up screens
type Client struct {
	config     *oauth2.Config
	signupURL  string
	httpClient *http.Client
}

// NewClient creates a new identity client from provider config
func NewClient(cfg *models.IdentityConfig) *Client {
	clientSecret := ""
	if cfg.ClientSecret != nil {
		clientSecret = *cfg.ClientSecret
	}
	signupURL := ""
	if cfg.SignupURL != nil {
		signupURL = *cfg.SignupURL
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"openid", "email", "profile", "offline_access"},
		Endpoint: oauth2.Endpoint{
			TokenURL: cfg.ResolvedTokenURL(),
		},
	}

	return &Client{
		config:     config,
		signupURL:  signupURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the HTTP client used for provider calls
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// SignupEnabled reports whether a sign-up endpoint is configured
func (c *Client) SignupEnabled() bool {
	return c.signupURL != ""
}

// SignIn exchanges email and password for tokens using the password grant
func (c *Client) SignIn(ctx context.Context, email, password string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				reason := ErrInvalidCredentials.Error()
				if retrieveErr.ErrorDescription != "" {
					reason = retrieveErr.ErrorDescription
				}
				return nil, newAuthError(ErrInvalidCredentials, reason, err)
			}
		}
		return nil, newAuthError(ErrProviderUnavailable, "", fmt.Errorf("password grant failed: %w", err))
	}

	return token, nil
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SignUp registers the account with the provider and then signs in
func (c *Client) SignUp(ctx context.Context, email, password string) (*oauth2.Token, error) {
	if !c.SignupEnabled() {
		return nil, newAuthError(ErrSignupUnavailable, "", nil)
	}

	body, err := json.Marshal(signupRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-up request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.signupURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-up request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newAuthError(ErrProviderUnavailable, "", fmt.Errorf("sign-up request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := readReason(resp.Body)
		switch resp.StatusCode {
		case http.StatusConflict:
			if reason == "" {
				reason = ErrAccountExists.Error()
			}
			return nil, newAuthError(ErrAccountExists, reason, nil)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			if reason == "" {
				reason = ErrInvalidCredentials.Error()
			}
			return nil, newAuthError(ErrInvalidCredentials, reason, nil)
		default:
			return nil, newAuthError(ErrProviderUnavailable, "",
				fmt.Errorf("sign-up endpoint returned status %d", resp.StatusCode))
		}
	}

	return c.SignIn(ctx, email, password)
}

// readReason extracts a short message from a provider error body
func readReason(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed signupErrorBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}
