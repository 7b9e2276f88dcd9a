package auth

import "time"

// Claims is the decoded payload of a provider token. Values are untrusted
// until the token's signature and registered claims have been checked.
type Claims struct {
	// Subject is the "sub" claim, the provider's unique user identifier.
	Subject string

	// Email is the "email" claim. The principal lookup key; required.
	Email string

	// EmailVerified is the "email_verified" claim.
	EmailVerified bool

	// Name, GivenName, FamilyName are the provider's name claims.
	Name       string
	GivenName  string
	FamilyName string

	// AMR lists the authentication method references ("amr").
	AMR []string

	// ACR is the authentication context class reference ("acr").
	ACR string

	// Issuer is the "iss" claim.
	Issuer string

	// Audience is the "aud" claim, normalized to a slice.
	Audience []string

	// ExpiresAt is the "exp" claim.
	ExpiresAt time.Time

	// Raw holds every claim for provider-specific extraction.
	Raw map[string]any
}

// claimsFromPayload maps a decoded token payload onto Claims.
func claimsFromPayload(payload map[string]any) *Claims {
	c := &Claims{
		Subject:       getString(payload, "sub"),
		Email:         getString(payload, "email"),
		EmailVerified: getBool(payload, "email_verified"),
		Name:          getString(payload, "name"),
		GivenName:     getString(payload, "given_name"),
		FamilyName:    getString(payload, "family_name"),
		AMR:           getStringSlice(payload, "amr"),
		ACR:           getString(payload, "acr"),
		Issuer:        getString(payload, "iss"),
		Audience:      getAudience(payload),
		Raw:           payload,
	}
	if exp, ok := getFloat64(payload, "exp"); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return c
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func getBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func getFloat64(m map[string]any, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

func getStringSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getAudience normalizes "aud", which providers emit as either a string
// or an array of strings.
func getAudience(m map[string]any) []string {
	switch v := m["aud"].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
