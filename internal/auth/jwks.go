package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrKeySetUnavailable reports that no usable key set could be obtained:
// no issuer is configured, the provider is unreachable, or the cached set
// has aged out and could not be refreshed. Callers treat it as "OIDC
// validation not possible right now", never as an authentication failure.
var ErrKeySetUnavailable = errors.New("auth: no usable key set available")

// keySetTTL is the freshness window for cached provider keys.
const keySetTTL = time.Hour

// jwksHTTPTimeout bounds the discovery and key-set fetches so a hung
// provider cannot stall request processing.
const jwksHTTPTimeout = 10 * time.Second

// jwk is one public signing key from the provider's key set.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`

	// RSA fields
	N string `json:"n"`
	E string `json:"e"`

	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// KeySet is one complete fetched key set, immutable once built.
type KeySet struct {
	keys map[string]*jwk
}

// Key returns the signing key with the given key id.
func (s *KeySet) Key(kid string) (*jwk, bool) {
	k, ok := s.keys[kid]
	return k, ok
}

// Len returns the number of signing keys in the set.
func (s *KeySet) Len() int { return len(s.keys) }

type jwksDoc struct {
	Keys []jwk `json:"keys"`
}

type discoveryDoc struct {
	Issuer  string `json:"issuer"`
	JWKSUri string `json:"jwks_uri"`
}

// KeySetCache serves the identity provider's current signing keys with
// minimal upstream calls. The cached record is replaced atomically, so
// readers always observe either the previous complete set or the new one.
// A refresh mutex collapses concurrent cache misses into a single upstream
// fetch; waiters re-check freshness after acquiring it.
type KeySetCache struct {
	issuer string
	client *http.Client
	ttl    time.Duration

	mu        sync.RWMutex
	keys      *KeySet
	fetchedAt time.Time

	refreshMu sync.Mutex
}

// NewKeySetCache creates a cache for the given issuer. An empty issuer
// yields a cache that always reports unavailable, without network calls.
func NewKeySetCache(issuer string, client *http.Client) *KeySetCache {
	if client == nil {
		client = &http.Client{Timeout: jwksHTTPTimeout}
	}
	return &KeySetCache{
		issuer: strings.TrimRight(issuer, "/"),
		client: client,
		ttl:    keySetTTL,
	}
}

// Get returns the current key set. A record fetched within the freshness
// window is returned without any network call; otherwise one caller
// refreshes while concurrent callers wait for its result. A stale record
// is never served past the window: an unreachable provider with an expired
// cache yields ErrKeySetUnavailable.
func (c *KeySetCache) Get(ctx context.Context) (*KeySet, error) {
	if c.issuer == "" {
		return nil, ErrKeySetUnavailable
	}

	if ks := c.current(); ks != nil {
		return ks, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have completed the refresh while we waited.
	if ks := c.current(); ks != nil {
		return ks, nil
	}

	ks, err := c.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	c.mu.Lock()
	c.keys = ks
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return ks, nil
}

// current returns the cached set if it is still within the freshness window.
func (c *KeySetCache) current() *KeySet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.keys == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil
	}
	return c.keys
}

// fetch retrieves the discovery document and then the key set it points at.
func (c *KeySetCache) fetch(ctx context.Context) (*KeySet, error) {
	var disco discoveryDoc
	wellKnown := c.issuer + "/.well-known/openid-configuration"
	if err := c.getJSON(ctx, wellKnown, &disco); err != nil {
		return nil, fmt.Errorf("discovery: %v", err)
	}
	if disco.JWKSUri == "" {
		return nil, errors.New("discovery document missing jwks_uri")
	}

	var doc jwksDoc
	if err := c.getJSON(ctx, disco.JWKSUri, &doc); err != nil {
		return nil, fmt.Errorf("jwks: %v", err)
	}

	keys := make(map[string]*jwk, len(doc.Keys))
	for i := range doc.Keys {
		k := doc.Keys[i]
		if k.Use == "sig" || k.Use == "" {
			keys[k.Kid] = &k
		}
	}
	return &KeySet{keys: keys}, nil
}

func (c *KeySetCache) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // close error is safe to ignore on reads

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s returned %d: %s", url, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
