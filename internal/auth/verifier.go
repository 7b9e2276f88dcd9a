package auth

import (
	"context"
	"errors"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

// CredentialVerifier is the single entry point for request authentication.
// It owns the fallback ordering between the OIDC and local token paths and
// returns a resolved user or a typed rejection.
type CredentialVerifier struct {
	oidc        *OIDCValidator
	policy      *PolicyEnforcer
	provisioner *Provisioner
	tokens      *TokenService
	users       UserStore
	log         *logger.Logger
}

// NewCredentialVerifier wires the full authentication subsystem from
// configuration: key set cache, OIDC validator, policy enforcer,
// provisioner, and local token service.
func NewCredentialVerifier(cfg Config, users UserStore, log *logger.Logger) (*CredentialVerifier, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := NewTokenService(cfg)
	if err != nil {
		return nil, err
	}

	keys := NewKeySetCache(cfg.OIDCIssuer, nil)

	return &CredentialVerifier{
		oidc:        NewOIDCValidator(cfg, keys, log),
		policy:      NewPolicyEnforcer(cfg),
		provisioner: NewProvisioner(users, log),
		tokens:      tokens,
		users:       users,
		log:         log.WithComponent("auth"),
	}, nil
}

// Tokens returns the local token service, used by the login handler.
func (v *CredentialVerifier) Tokens() *TokenService { return v.tokens }

// Authenticate resolves a bearer token to a user.
//
// When an identity provider is configured the OIDC path runs first: a valid
// provider token passes the claims policy and is provisioned to a local
// user. An invalid or not-applicable OIDC outcome falls through to local
// token verification, so dual-mode deployments tolerate users holding
// either kind of token. Policy violations are terminal: the credential was
// valid, the identity just fails an organizational rule.
//
// Activity is not checked here; callers gate state-mutating endpoints on
// User.IsActive separately.
func (v *CredentialVerifier) Authenticate(ctx context.Context, bearer string) (*model.User, error) {
	if bearer == "" {
		return nil, apperr.Unauthenticated()
	}

	if v.oidc.Enabled() {
		claims, err := v.oidc.Verify(ctx, bearer)
		switch {
		case err == nil:
			if policyErr := v.policy.Enforce(claims); policyErr != nil {
				v.log.Warn("sso identity rejected by policy", logger.Fields(
					logger.FieldEmail, claims.Email,
					logger.FieldError, policyErr.Error(),
				))
				return nil, policyErr
			}
			return v.provisioner.Provision(ctx, claims)
		case errors.Is(err, ErrTokenInvalid):
			// Fall through: the bearer may be a locally issued token.
			v.log.Debug("oidc validation rejected token, trying local path",
				logger.Fields(logger.FieldError, err.Error()))
		case errors.Is(err, ErrNotApplicable):
			// Fall through silently.
		default:
			return nil, apperr.Unauthenticated().WithCause(err)
		}
	}

	subject, err := v.tokens.Subject(bearer)
	if err != nil {
		v.log.Debug("local token verification failed",
			logger.Fields(logger.FieldError, err.Error()))
		return nil, apperr.Unauthenticated().WithCause(err)
	}

	user, err := v.users.FindByID(ctx, subject)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	return user, nil
}
