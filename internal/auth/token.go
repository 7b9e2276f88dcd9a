package auth

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims carried by a locally issued access token.
type AccessClaims struct {
	gojwt.RegisteredClaims
}

// TokenService mints and verifies locally issued bearer tokens. Tokens are
// stateless: nothing is persisted server-side.
type TokenService struct {
	secret []byte
	method gojwt.SigningMethod
	ttl    time.Duration
}

// NewTokenService creates a token service from configuration.
func NewTokenService(cfg Config) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: token secret is required")
	}

	var method gojwt.SigningMethod
	switch cfg.Algorithm {
	case "", "HS256":
		method = gojwt.SigningMethodHS256
	case "HS384":
		method = gojwt.SigningMethodHS384
	case "HS512":
		method = gojwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported signing algorithm: %s", cfg.Algorithm)
	}

	ttl := cfg.AccessTokenTTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	return &TokenService{secret: []byte(cfg.Secret), method: method, ttl: ttl}, nil
}

// Issue mints a signed access token for the given user id.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := gojwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// TTL returns the configured access token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Subject verifies a token's signature and expiry and returns its subject.
func (s *TokenService) Subject(tokenString string) (string, error) {
	claims := &AccessClaims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{s.method.Alg()}))
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("auth: invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("auth: token missing subject")
	}
	return claims.Subject, nil
}

func (s *TokenService) keyFunc(token *gojwt.Token) (any, error) {
	if token.Method.Alg() != s.method.Alg() {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return s.secret, nil
}
