package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alanahq/alana-server/internal/logger"
)

// ErrNotApplicable reports that OIDC validation could not be attempted for
// this request: no issuer is configured or the key set is unavailable. The
// orchestrator falls through to local token verification.
var ErrNotApplicable = errors.New("auth: oidc validation not applicable")

// ErrTokenInvalid reports a token that was checked against the provider's
// keys and failed: bad structure, unknown key, bad signature, wrong issuer
// or audience, or expired. The specific reason is attached for logging and
// never returned to clients.
var ErrTokenInvalid = errors.New("auth: oidc token invalid")

// defaultSigningAlgs are the provider signature algorithms accepted by
// default. HMAC algorithms are deliberately absent; locally issued tokens
// never take the OIDC path.
var defaultSigningAlgs = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// OIDCValidator decides whether a bearer string is a valid, current token
// issued by the configured identity provider.
type OIDCValidator struct {
	issuer   string
	clientID string
	algs     []string
	keys     *KeySetCache
	log      *logger.Logger
}

// NewOIDCValidator creates a validator for the configured issuer, backed by
// the given key set cache.
func NewOIDCValidator(cfg Config, keys *KeySetCache, log *logger.Logger) *OIDCValidator {
	return &OIDCValidator{
		issuer:   strings.TrimRight(cfg.OIDCIssuer, "/"),
		clientID: cfg.OIDCClientID,
		algs:     defaultSigningAlgs,
		keys:     keys,
		log:      log.WithComponent("oidc"),
	}
}

// Enabled reports whether an identity provider is configured.
func (v *OIDCValidator) Enabled() bool { return v.issuer != "" }

// Verify validates a raw bearer token against the provider's keys and
// returns its claims. The error distinguishes ErrNotApplicable (try the
// local path) from ErrTokenInvalid (checked and rejected).
func (v *OIDCValidator) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	if !v.Enabled() {
		return nil, ErrNotApplicable
	}

	parts := strings.Split(rawToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed structure", ErrTokenInvalid)
	}

	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: decode header: %v", ErrTokenInvalid, err)
	}
	alg := getString(header, "alg")
	kid := getString(header, "kid")

	if !v.algSupported(alg) {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", ErrTokenInvalid, alg)
	}

	// A provider outage must not hard-reject users who hold other means of
	// authenticating, so an unavailable key set falls toward the local path.
	keySet, err := v.keys.Get(ctx)
	if err != nil {
		v.log.Warn("key set unavailable, skipping oidc validation",
			logger.Fields(logger.FieldError, err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrNotApplicable, err)
	}

	key, ok := keySet.Key(kid)
	if !ok {
		return nil, fmt.Errorf("%w: key %q not in current key set", ErrTokenInvalid, kid)
	}
	pub, err := key.publicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if err := verifySignature(rawToken, alg, pub); err != nil {
		return nil, fmt.Errorf("%w: verify signature: %v", ErrTokenInvalid, err)
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrTokenInvalid, err)
	}
	claims := claimsFromPayload(payload)

	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: issuer mismatch: got %q, expected %q", ErrTokenInvalid, claims.Issuer, v.issuer)
	}
	if claims.ExpiresAt.IsZero() || time.Now().After(claims.ExpiresAt) {
		return nil, fmt.Errorf("%w: token expired", ErrTokenInvalid)
	}
	if v.clientID != "" && !containsString(claims.Audience, v.clientID) {
		return nil, fmt.Errorf("%w: audience %v does not contain %q", ErrTokenInvalid, claims.Audience, v.clientID)
	}

	return claims, nil
}

func (v *OIDCValidator) algSupported(alg string) bool {
	return containsString(v.algs, alg)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
