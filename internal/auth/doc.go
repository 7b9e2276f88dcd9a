// Package auth decides, for every incoming request, who is making it and
// whether they may proceed.
//
// A request carries one opaque bearer string. CredentialVerifier is the
// single entry point: when an identity provider is configured it tries OIDC
// validation first (signature against the cached JWKS, issuer, audience,
// expiry), applies the organization's claims policy, and provisions a local
// user for the external identity; otherwise, or when the OIDC path reports
// invalid or not-applicable, it falls back to verifying a locally issued
// access token.
//
// Subpackages:
//
//   - auth/password — password hashing (bcrypt, argon2id)
//   - auth/authctx  — typed principal propagation through request context
package auth
