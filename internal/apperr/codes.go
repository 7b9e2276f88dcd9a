package apperr

// Code is a machine-readable error code.
type Code string

// Authentication and policy codes.
const (
	// CodeUnauthenticated indicates a missing, invalid, or expired credential
	// of either kind (local token or OIDC token).
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodePolicyViolation indicates a cryptographically valid identity that
	// fails an organizational trust rule (verified email, MFA).
	CodePolicyViolation Code = "POLICY_VIOLATION"
	// CodeMalformedIdentity indicates a claims set missing a required field.
	// Clients see it as an authentication failure; logs keep the distinction.
	CodeMalformedIdentity Code = "MALFORMED_IDENTITY"
	// CodeUpstreamUnavailable indicates the identity provider could not be
	// reached. Never surfaced to clients directly.
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	// CodeTokenExpired indicates an expired local access token.
	CodeTokenExpired Code = "TOKEN_EXPIRED"
	// CodeForbidden indicates the principal lacks permission for the action.
	CodeForbidden Code = "FORBIDDEN"
)

// Request and resource codes.
const (
	// CodeInvalidInput indicates a request that failed validation.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeNotFound indicates a missing resource.
	CodeNotFound Code = "NOT_FOUND"
	// CodeAlreadyExists indicates a uniqueness conflict.
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	// CodeConflict indicates a conflict with the current resource state.
	CodeConflict Code = "CONFLICT"
)

// Infrastructure codes.
const (
	// CodeInternal indicates an unexpected server error.
	CodeInternal Code = "INTERNAL"
	// CodeDatabase indicates a persistence failure.
	CodeDatabase Code = "DATABASE_ERROR"
)
