package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/alanahq/alana-server/internal/logger"
)

// signToken mints an RS256 token with the provider's key.
func (p *testProvider) signToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.MapClaims(claims))
	tok.Header["kid"] = p.kid
	signed, err := tok.SignedString(p.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (p *testProvider) baseClaims() map[string]any {
	return map[string]any{
		"iss":            p.issuer(),
		"sub":            "provider-subject-1",
		"email":          "ada@example.com",
		"email_verified": true,
		"given_name":     "Ada",
		"family_name":    "Lovelace",
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
}

func newTestValidator(p *testProvider, clientID string) *OIDCValidator {
	cfg := Config{OIDCIssuer: p.issuer(), OIDCClientID: clientID}
	return NewOIDCValidator(cfg, NewKeySetCache(p.issuer(), nil), logger.NewDefault())
}

func TestOIDCVerifyValidToken(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	claims, err := v.Verify(context.Background(), p.signToken(t, p.baseClaims()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("email = %q, want %q", claims.Email, "ada@example.com")
	}
	if claims.Subject != "provider-subject-1" {
		t.Errorf("subject = %q, want %q", claims.Subject, "provider-subject-1")
	}
	if !claims.EmailVerified {
		t.Error("email_verified should be true")
	}
}

func TestOIDCVerifyTamperedPayload(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	token := p.signToken(t, p.baseClaims())
	parts := strings.Split(token, ".")
	tampered := parts[0] + ".eyJlbWFpbCI6ImV2aWxAZXhhbXBsZS5jb20ifQ." + parts[2]

	if _, err := v.Verify(context.Background(), tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestOIDCVerifyUnknownKeyID(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.MapClaims(p.baseClaims()))
	tok.Header["kid"] = "not-in-the-key-set"
	signed, err := tok.SignedString(p.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := v.Verify(context.Background(), signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestOIDCVerifyExpiredToken(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	claims := p.baseClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()

	if _, err := v.Verify(context.Background(), p.signToken(t, claims)); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestOIDCVerifyIssuerMismatch(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	claims := p.baseClaims()
	claims["iss"] = "https://someone-else.example.com"

	if _, err := v.Verify(context.Background(), p.signToken(t, claims)); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestOIDCVerifyAudience(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "my-client")

	claims := p.baseClaims()
	claims["aud"] = "another-client"
	if _, err := v.Verify(context.Background(), p.signToken(t, claims)); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("wrong audience: got %v, want ErrTokenInvalid", err)
	}

	claims["aud"] = []any{"another-client", "my-client"}
	if _, err := v.Verify(context.Background(), p.signToken(t, claims)); err != nil {
		t.Errorf("audience list containing client id should pass: %v", err)
	}
}

func TestOIDCVerifyAudienceSkippedWithoutClientID(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	claims := p.baseClaims()
	claims["aud"] = "whoever"
	if _, err := v.Verify(context.Background(), p.signToken(t, claims)); err != nil {
		t.Errorf("audience should not be checked without a client id: %v", err)
	}
}

func TestOIDCVerifyRejectsHMACToken(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims(p.baseClaims()))
	signed, err := tok.SignedString([]byte("local-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := v.Verify(context.Background(), signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid for HS256", err)
	}
}

func TestOIDCVerifyMalformedToken(t *testing.T) {
	p := newTestProvider(t)
	v := newTestValidator(p, "")

	if _, err := v.Verify(context.Background(), "not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestOIDCVerifyNotApplicableWhenProviderDown(t *testing.T) {
	p := newTestProvider(t)
	token := p.signToken(t, p.baseClaims())

	cfg := Config{OIDCIssuer: p.issuer()}
	v := NewOIDCValidator(cfg, NewKeySetCache(p.issuer(), nil), logger.NewDefault())

	p.server.Close()
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("got %v, want ErrNotApplicable when key set cannot be fetched", err)
	}
}

func TestOIDCVerifyNotApplicableWithoutIssuer(t *testing.T) {
	v := NewOIDCValidator(Config{}, NewKeySetCache("", nil), logger.NewDefault())
	if _, err := v.Verify(context.Background(), "whatever"); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("got %v, want ErrNotApplicable", err)
	}
	if v.Enabled() {
		t.Error("validator without issuer should report disabled")
	}
}
