package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(keys.setJSON)
	}))
	// subtests run in parallel after this function returns
	t.Cleanup(srv.Close)

	verifier := NewVerifier(NewJWKSManager().WithHTTPClient(srv.Client()), testIssuer, "cupid-code", srv.URL)
	other := newTestKeys(t)

	tests := []struct {
		name    string
		token   string
		wantErr bool
		check   func(*testing.T, string, string)
	}{
		{
			name: "valid token",
			token: keys.sign(t, testIssuer, "user-1", time.Now().Add(time.Hour), map[string]any{
				"email":          "ada@example.com",
				"name":           "Ada",
				"email_verified": true,
			}),
		},
		{
			name:    "wrong issuer",
			token:   keys.sign(t, "https://evil.example.com", "user-1", time.Now().Add(time.Hour), nil),
			wantErr: true,
		},
		{
			name: "issued for another client",
			token: keys.sign(t, testIssuer, "user-1", time.Now().Add(time.Hour), map[string]any{
				"aud": []string{"other-client"},
			}),
			wantErr: true,
		},
		{
			name:    "expired",
			token:   keys.sign(t, testIssuer, "user-1", time.Now().Add(-time.Hour), nil),
			wantErr: true,
		},
		{
			name:    "signed by unknown key",
			token:   other.sign(t, testIssuer, "user-1", time.Now().Add(time.Hour), nil),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := verifier.Verify(context.Background(), tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				if strings.Contains(err.Error(), "failed to get JWKS") {
					t.Errorf("Expected token rejection, got key set failure: %v", err)
				}
				return
			}
			if claims.Sub != "user-1" {
				t.Errorf("Expected sub user-1, got %s", claims.Sub)
			}
			if claims.Email != "ada@example.com" || claims.Name != "Ada" || !claims.EmailVerified {
				t.Errorf("Unexpected profile claims: %+v", claims)
			}
			if claims.Iss != testIssuer {
				t.Errorf("Expected issuer %s, got %s", testIssuer, claims.Iss)
			}
			if claims.Aud != "cupid-code" {
				t.Errorf("Expected audience cupid-code, got %s", claims.Aud)
			}
		})
	}
}
