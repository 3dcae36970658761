package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentportal/rentportal-cli/internal/credstore"
)

func newTestClient(t *testing.T, handler http.Handler, store credstore.Store, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, store, opts...)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func validToken(t *testing.T) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
}

func expiredToken(t *testing.T) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
}

func seededStore(access, refresh string) *credstore.Memory {
	return credstore.NewMemory(map[string]string{
		credstore.KeyAccessToken:  access,
		credstore.KeyRefreshToken: refresh,
	})
}

func assertCategory(t *testing.T, err error, want Category) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if e.Category != want {
		t.Fatalf("expected category %s, got %s (%s)", want, e.Category, e.Message)
	}
	return e
}

func assertCleared(t *testing.T, store credstore.Store) {
	t.Helper()
	for _, key := range []string{credstore.KeyAccessToken, credstore.KeyRefreshToken} {
		v, err := credstore.Lookup(context.Background(), store, key)
		if err != nil {
			t.Fatalf("lookup %s: %v", key, err)
		}
		if v != "" {
			t.Errorf("expected %s to be cleared, got %q", key, v)
		}
	}
}

// countingStore records every access made to the wrapped store.
type countingStore struct {
	credstore.Store
	gets    atomic.Int32
	sets    atomic.Int32
	removes atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, key string) (string, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.sets.Add(1)
	return s.Store.Set(ctx, key, value)
}

func (s *countingStore) Remove(ctx context.Context, key string) error {
	s.removes.Add(1)
	return s.Store.Remove(ctx, key)
}

// gate holds a handler until release is called.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) wait() {
	g.entered <- struct{}{}
	<-g.release
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}
