// Test helpers for running commands against a mock portal.
//
// A typical test routes the endpoints it needs, seeds a session and runs
// the command with injected streams:
//
//	handler := newRouteHandler().
//	    On("GET", "/api/tenant/payments", jsonResponse(200, `[{"id": "p1", "amount": 1200}]`))
//	env := setupTestEnvWithHandler(t, handler)
//	env.login(t)
//
//	out, _, err := runCommand(t, "", "payments", "list", "-o", "json")
package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentportal/rentportal-cli/internal/credstore"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// runCommand executes the CLI with stdin and returns what it wrote to
// stdout and stderr.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runRoot(t, newRootCmd(), stdin, args)
}

// runCommandWith mounts extra under the real root and runs "extra args...".
func runCommandWith(t *testing.T, extra *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	root.AddCommand(extra)
	return runRoot(t, root, "", append([]string{extra.Name()}, args...))
}

func runRoot(t *testing.T, root *cobra.Command, stdin string, args []string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &out,
		ErrOut: &errOut,
		In:     strings.NewReader(stdin),
	})
	err := run(ctx, root, args)
	return out.String(), errOut.String(), err
}

type testEnv struct {
	server *httptest.Server
	store  credstore.Store
}

// setupTestEnvWithHandler points the CLI at a mock portal with an empty
// keyring for the default profile.
func setupTestEnvWithHandler(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("RP_BASE_URL", server.URL)
	t.Setenv("RP_ALLOW_INSECURE", "1")
	t.Setenv("RP_OUTPUT", "text")
	t.Setenv("RP_ROLE", "tenant")
	t.Setenv("RP_PROFILE", "")
	t.Setenv("RP_CREDENTIAL_BACKEND", "")
	t.Setenv("RP_TIMEOUT", "")
	t.Setenv("RP_DEBUG", "")
	t.Setenv("RP_CACHE_DIR", t.TempDir())
	t.Setenv("RP_NO_UPDATE_CHECK", "1")

	testRing = keyring.NewArrayKeyring(nil)
	return &testEnv{server: server, store: credstore.NewKeyring(testRing, "default")}
}

// login stores a valid session and returns the access token.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	tok := signedToken(t, time.Hour)
	require.NoError(t, credstore.SaveTokens(context.Background(), e.store, tok, "refresh-1"))
	return tok
}

// loginExpired stores a session whose access token has expired.
func (e *testEnv) loginExpired(t *testing.T) string {
	t.Helper()
	tok := signedToken(t, -time.Minute)
	require.NoError(t, credstore.SaveTokens(context.Background(), e.store, tok, "refresh-1"))
	return tok
}

func (e *testEnv) stored(t *testing.T, key string) string {
	t.Helper()
	v, err := credstore.Lookup(context.Background(), e.store, key)
	require.NoError(t, err)
	return v
}

// signedToken returns an HS256 token expiring ttl from now.
func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "u1",
		"email": "tenant@example.com",
		"role":  "tenant",
		"exp":   time.Now().Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// routeHandler routes "METHOD /path" to handlers and records every request.
type routeHandler struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []*http.Request
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.routes[method+" "+path] = handler
	return rh
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rh.mu.Lock()
	rh.requests = append(rh.requests, r.Clone(context.Background()))
	handler, ok := rh.routes[r.Method+" "+r.URL.Path]
	rh.mu.Unlock()
	if ok {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// count returns how many requests hit method and path.
func (rh *routeHandler) count(method, path string) int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	n := 0
	for _, r := range rh.requests {
		if r.Method == method && r.URL.Path == path {
			n++
		}
	}
	return n
}

// authHeaders returns the Authorization headers sent to method and path.
func (rh *routeHandler) authHeaders(method, path string) []string {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	var out []string
	for _, r := range rh.requests {
		if r.Method == method && r.URL.Path == path {
			out = append(out, r.Header.Get("Authorization"))
		}
	}
	return out
}

func TestTestInfrastructure(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/test", jsonResponse(200, `{"method": "get"}`)).
		On("POST", "/api/test", jsonResponse(201, `{"method": "post"}`))
	env := setupTestEnvWithHandler(t, handler)

	assert.Equal(t, env.server.URL, os.Getenv("RP_BASE_URL"))

	resp, err := http.Get(env.server.URL + "/api/test")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = http.Post(env.server.URL+"/api/test", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 201, resp.StatusCode)

	resp, err = http.Get(env.server.URL + "/api/unknown")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, 2, handler.count("GET", "/api/test")+handler.count("GET", "/api/unknown"))

	tok := env.login(t)
	assert.Equal(t, tok, env.stored(t, credstore.KeyAccessToken))
	assert.Equal(t, "refresh-1", env.stored(t, credstore.KeyRefreshToken))
}
