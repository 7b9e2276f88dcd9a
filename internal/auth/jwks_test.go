package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testProvider is a fake identity provider serving a discovery document
// and a JWKS endpoint, counting key set fetches.
type testProvider struct {
	server     *httptest.Server
	key        *rsa.PrivateKey
	kid        string
	jwksFetches atomic.Int64
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	p := &testProvider{key: key, kid: "test-key-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"issuer":   p.server.URL,
			"jwks_uri": p.server.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		p.jwksFetches.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": p.kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *testProvider) issuer() string { return p.server.URL }

func TestKeySetCacheServesFromCache(t *testing.T) {
	p := newTestProvider(t)
	cache := NewKeySetCache(p.issuer(), nil)

	for i := 0; i < 3; i++ {
		ks, err := cache.Get(context.Background())
		if err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
		if ks.Len() != 1 {
			t.Fatalf("Get #%d: key count = %d, want 1", i, ks.Len())
		}
	}

	if n := p.jwksFetches.Load(); n != 1 {
		t.Errorf("jwks fetches = %d, want 1", n)
	}
}

func TestKeySetCacheRefreshesAfterExpiry(t *testing.T) {
	p := newTestProvider(t)
	cache := NewKeySetCache(p.issuer(), nil)
	cache.ttl = 10 * time.Millisecond

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if n := p.jwksFetches.Load(); n != 2 {
		t.Errorf("jwks fetches = %d, want 2", n)
	}
}

func TestKeySetCacheCollapsesConcurrentFetches(t *testing.T) {
	p := newTestProvider(t)
	cache := NewKeySetCache(p.issuer(), nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Get: %v", err)
	}

	if n := p.jwksFetches.Load(); n != 1 {
		t.Errorf("jwks fetches = %d, want 1", n)
	}
}

func TestKeySetCacheUnavailableWhenUnreachable(t *testing.T) {
	cache := NewKeySetCache("http://127.0.0.1:1", nil)
	if _, err := cache.Get(context.Background()); !errors.Is(err, ErrKeySetUnavailable) {
		t.Errorf("got %v, want ErrKeySetUnavailable", err)
	}
}

func TestKeySetCacheNeverServesStale(t *testing.T) {
	p := newTestProvider(t)
	cache := NewKeySetCache(p.issuer(), nil)
	cache.ttl = 10 * time.Millisecond

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	// Take the provider down and age the cache out.
	p.server.Close()
	time.Sleep(20 * time.Millisecond)

	if _, err := cache.Get(context.Background()); !errors.Is(err, ErrKeySetUnavailable) {
		t.Errorf("got %v, want ErrKeySetUnavailable for stale cache with provider down", err)
	}
}

func TestKeySetCacheEmptyIssuer(t *testing.T) {
	cache := NewKeySetCache("", nil)
	if _, err := cache.Get(context.Background()); !errors.Is(err, ErrKeySetUnavailable) {
		t.Errorf("got %v, want ErrKeySetUnavailable", err)
	}
}

func TestKeySetCacheMissingJWKSUri(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"issuer": "x"}`)
	}))
	defer server.Close()

	cache := NewKeySetCache(server.URL, nil)
	if _, err := cache.Get(context.Background()); !errors.Is(err, ErrKeySetUnavailable) {
		t.Errorf("got %v, want ErrKeySetUnavailable", err)
	}
}
