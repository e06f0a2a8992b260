package models

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func TestCorsConfig_Origins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"comma", "https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"dedup", "x, x, y", []string{"x", "y"}},
		{"trim", "  a  ,  b  ,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := (&CorsConfig{AllowedOrigins: tt.raw}).Origins()
			if len(got) != len(tt.want) {
				t.Fatalf("Origins(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Origins(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIdentityConfig_ResolvedURLs(t *testing.T) {
	t.Parallel()

	cfg := &IdentityConfig{Issuer: "https://id.example.com/"}
	if got := cfg.ResolvedTokenURL(); got != "https://id.example.com/oauth2/token" {
		t.Errorf("Expected default token URL, got %s", got)
	}
	if got := cfg.ResolvedJWKSURL(); got != "https://id.example.com/.well-known/jwks.json" {
		t.Errorf("Expected default JWKS URL, got %s", got)
	}

	cfg.TokenURL = strPtr("https://id.example.com/token")
	cfg.JWKSUrl = strPtr("https://keys.example.com/jwks")
	if got := cfg.ResolvedTokenURL(); got != "https://id.example.com/token" {
		t.Errorf("Expected explicit token URL, got %s", got)
	}
	if got := cfg.ResolvedJWKSURL(); got != "https://keys.example.com/jwks" {
		t.Errorf("Expected explicit JWKS URL, got %s", got)
	}
}

func TestUser_DisplayName(t *testing.T) {
	t.Parallel()

	u := &User{Email: "a@example.com"}
	if u.DisplayName() != "a@example.com" {
		t.Errorf("Expected email fallback, got %s", u.DisplayName())
	}
	u.Name = strPtr("Ada")
	if u.DisplayName() != "Ada" {
		t.Errorf("Expected name, got %s", u.DisplayName())
	}
}
