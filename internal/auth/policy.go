package auth

import (
	"strings"

	"github.com/alanahq/alana-server/internal/apperr"
)

// mfaMethods are the "amr" values recognized as a second factor.
var mfaMethods = map[string]struct{}{
	"mfa":      {},
	"otp":      {},
	"totp":     {},
	"webauthn": {},
	"hwk":      {},
}

// PolicyEnforcer applies organization-wide trust requirements to claims
// whose signature has already been verified. Policy failures are forbidden
// outcomes, distinct from authentication failures: the token is valid but
// insufficiently trustworthy.
type PolicyEnforcer struct {
	requireEmailVerified bool
	requireMFA           bool
}

// NewPolicyEnforcer creates an enforcer from configuration.
func NewPolicyEnforcer(cfg Config) *PolicyEnforcer {
	return &PolicyEnforcer{
		requireEmailVerified: cfg.RequireEmailVerified,
		requireMFA:           cfg.RequireMFA,
	}
}

// Enforce checks the claims against the configured policy. An email claim
// is mandatory regardless of configuration: it is the principal lookup key.
func (p *PolicyEnforcer) Enforce(claims *Claims) error {
	if claims.Email == "" {
		return apperr.MalformedIdentity("email")
	}

	if p.requireEmailVerified && !claims.EmailVerified {
		return apperr.PolicyViolation("Email must be verified. Please verify your email with the SSO provider.")
	}

	if p.requireMFA && !usedMFA(claims) {
		return apperr.PolicyViolation("Multi-factor authentication is required. Please set up MFA in your account settings.")
	}

	return nil
}

// usedMFA reports whether the claims carry evidence of a second factor:
// a recognized "amr" method or an "acr" value containing "mfa".
func usedMFA(claims *Claims) bool {
	for _, method := range claims.AMR {
		if _, ok := mfaMethods[method]; ok {
			return true
		}
	}
	return strings.Contains(strings.ToLower(claims.ACR), "mfa")
}
