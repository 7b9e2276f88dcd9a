package auth

import (
	"context"
	"testing"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

func newTestVerifier(t *testing.T, cfg Config, users UserStore) *CredentialVerifier {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret-key"
	}
	v, err := NewCredentialVerifier(cfg, users, logger.NewDefault())
	if err != nil {
		t.Fatalf("NewCredentialVerifier: %v", err)
	}
	return v
}

func TestAuthenticateEmptyBearer(t *testing.T) {
	v := newTestVerifier(t, Config{}, newFakeUserStore())
	if _, err := v.Authenticate(context.Background(), ""); !apperr.IsCode(err, apperr.CodeUnauthenticated) {
		t.Errorf("got %v, want UNAUTHENTICATED", err)
	}
}

func TestAuthenticateLocalToken(t *testing.T) {
	store := newFakeUserStore()
	v := newTestVerifier(t, Config{}, store)

	seeded := &model.User{Email: "local@example.com", FullName: "Local User", IsActive: true}
	if err := store.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := v.Tokens().Issue(seeded.ID.String())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	user, err := v.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("resolved user %s, want %s", user.ID, seeded.ID)
	}
}

func TestAuthenticateLocalTokenUnknownSubject(t *testing.T) {
	v := newTestVerifier(t, Config{}, newFakeUserStore())

	token, err := v.Tokens().Issue("no-such-user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := v.Authenticate(context.Background(), token); !apperr.IsCode(err, apperr.CodeUnauthenticated) {
		t.Errorf("got %v, want UNAUTHENTICATED", err)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	v := newTestVerifier(t, Config{}, newFakeUserStore())
	if _, err := v.Authenticate(context.Background(), "garbage"); !apperr.IsCode(err, apperr.CodeUnauthenticated) {
		t.Errorf("got %v, want UNAUTHENTICATED", err)
	}
}

func TestAuthenticateSSOProvisionsUser(t *testing.T) {
	p := newTestProvider(t)
	store := newFakeUserStore()
	v := newTestVerifier(t, Config{OIDCIssuer: p.issuer()}, store)

	user, err := v.Authenticate(context.Background(), p.signToken(t, p.baseClaims()))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.FullName != "Ada Lovelace" {
		t.Errorf("full name = %q, want %q", user.FullName, "Ada Lovelace")
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want %q", user.Email, "ada@example.com")
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
}

func TestAuthenticatePolicyViolationIsTerminal(t *testing.T) {
	p := newTestProvider(t)
	store := newFakeUserStore()
	v := newTestVerifier(t, Config{OIDCIssuer: p.issuer(), RequireMFA: true}, store)

	// A valid provider token without a second factor must not fall
	// through to the local path.
	claims := p.baseClaims()
	claims["amr"] = []any{"pwd"}
	_, err := v.Authenticate(context.Background(), p.signToken(t, claims))
	if !apperr.IsCode(err, apperr.CodePolicyViolation) {
		t.Fatalf("got %v, want POLICY_VIOLATION", err)
	}
	if store.creates != 0 {
		t.Errorf("creates = %d, want 0 for a rejected identity", store.creates)
	}
}

func TestAuthenticateLocalTokenWithOIDCConfigured(t *testing.T) {
	p := newTestProvider(t)
	store := newFakeUserStore()
	v := newTestVerifier(t, Config{OIDCIssuer: p.issuer()}, store)

	seeded := &model.User{Email: "local@example.com", FullName: "Local User", IsActive: true}
	if err := store.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// A locally issued HS256 token is invalid on the OIDC path and must
	// fall through to local verification.
	token, err := v.Tokens().Issue(seeded.ID.String())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	user, err := v.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("resolved user %s, want %s", user.ID, seeded.ID)
	}
}

func TestAuthenticateFallsBackWhenProviderDown(t *testing.T) {
	p := newTestProvider(t)
	store := newFakeUserStore()
	v := newTestVerifier(t, Config{OIDCIssuer: p.issuer()}, store)
	p.server.Close()

	seeded := &model.User{Email: "local@example.com", FullName: "Local User", IsActive: true}
	if err := store.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := v.Tokens().Issue(seeded.ID.String())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	user, err := v.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate with provider down: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("resolved user %s, want %s", user.ID, seeded.ID)
	}
}

func TestAuthenticateRepeatedSSOLogin(t *testing.T) {
	p := newTestProvider(t)
	store := newFakeUserStore()
	v := newTestVerifier(t, Config{OIDCIssuer: p.issuer()}, store)
	ctx := context.Background()

	token := p.signToken(t, p.baseClaims())
	first, err := v.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("first Authenticate: %v", err)
	}
	second, err := v.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("second Authenticate: %v", err)
	}

	if first.ID != second.ID {
		t.Error("repeated sso logins should resolve to the same user")
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
	if store.updates != 0 {
		t.Errorf("updates = %d, want 0 for unchanged claims", store.updates)
	}
}
