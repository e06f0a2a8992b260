package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testIssuer = "https://id.example.com"

type testKeys struct {
	private jwk.Key
	setJSON []byte
}

func newTestKeys(t *testing.T) *testKeys {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	priv, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("Failed to wrap key: %v", err)
	}
	if err := priv.Set(jwk.KeyIDKey, "test-key"); err != nil {
		t.Fatalf("Failed to set kid: %v", err)
	}
	if err := priv.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("Failed to set alg: %v", err)
	}
	pub, err := priv.PublicKey()
	if err != nil {
		t.Fatalf("Failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatalf("Failed to add key: %v", err)
	}
	setJSON, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Failed to marshal key set: %v", err)
	}
	return &testKeys{private: priv, setJSON: setJSON}
}

func (k *testKeys) sign(t *testing.T, issuer, subject string, expires time.Time, extra map[string]any) string {
	t.Helper()

	b := jwt.NewBuilder().
		Issuer(issuer).
		Subject(subject).
		Audience([]string{"cupid-code"}).
		IssuedAt(time.Now().Add(-time.Minute)).
		Expiration(expires)
	for name, v := range extra {
		b = b.Claim(name, v)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, k.private))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return string(signed)
}

func stringPtr(s string) *string {
	return &s
}
