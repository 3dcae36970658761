package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/alicebob/miniredis/v2"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/credstore"
)

// withMockKeyring sets up a mock keyring for the duration of a test
func withMockKeyring(t *testing.T, ring keyring.Keyring) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))
}

// clearEnv blanks every variable Resolve reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvBaseURL, EnvRole, EnvTimeout, EnvProfile, EnvAllowInsecure,
		EnvCredentialBackend, EnvRedisURL, EnvRedisPrefix, EnvSessionTTL,
	} {
		t.Setenv(key, "")
	}
}

func TestResolveDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "https://portal.example.com/")

	s, err := Resolve(Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.BaseURL != "https://portal.example.com" {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.Role != api.RoleTenant || s.Timeout != api.DefaultTimeout {
		t.Errorf("role/timeout = %s/%s", s.Role, s.Timeout)
	}
	if s.Profile != defaultProfile || s.CredentialBackend != BackendKeyring {
		t.Errorf("profile/backend = %s/%s", s.Profile, s.CredentialBackend)
	}
}

func TestResolveOverridesWinOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "https://env.example.com")
	t.Setenv(EnvRole, "tenant")
	t.Setenv(EnvTimeout, "30")

	s, err := Resolve(Overrides{BaseURL: "http://localhost:5000", Role: "Landlord", Timeout: 5 * time.Second, Profile: "work"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.BaseURL != "http://localhost:5000" || s.Role != api.RoleLandlord || s.Timeout != 5*time.Second || s.Profile != "work" {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing base URL", map[string]string{}, "not configured"},
		{"bad role", map[string]string{EnvBaseURL: "https://x.io", EnvRole: "admin"}, "invalid role"},
		{"bad timeout", map[string]string{EnvBaseURL: "https://x.io", EnvTimeout: "soon"}, EnvTimeout},
		{"negative timeout", map[string]string{EnvBaseURL: "https://x.io", EnvTimeout: "-1"}, EnvTimeout},
		{"bad backend", map[string]string{EnvBaseURL: "https://x.io", EnvCredentialBackend: "vault"}, "keyring, redis, or memory"},
		{"redis without URL", map[string]string{EnvBaseURL: "https://x.io", EnvCredentialBackend: "redis"}, EnvRedisURL},
		{"insecure remote", map[string]string{EnvBaseURL: "http://portal.example.com"}, "https"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Resolve(Overrides{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestResolveAllowInsecure(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "http://portal.internal")
	t.Setenv(EnvAllowInsecure, "true")

	if _, err := Resolve(Overrides{}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := parseDuration("20"); err != nil || d != 20*time.Second {
		t.Errorf("parseDuration(20) = %v, %v", d, err)
	}
	if d, err := parseDuration("1m30s"); err != nil || d != 90*time.Second {
		t.Errorf("parseDuration(1m30s) = %v, %v", d, err)
	}
	if _, err := parseDuration("0s"); err == nil {
		t.Error("zero duration should fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("RP_BASE_URL=https://dotenv.example.com\nRP_ROLE=landlord\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvRole, "tenant")
	// godotenv only fills unset variables.
	if err := os.Unsetenv(EnvBaseURL); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(EnvBaseURL); got != "https://dotenv.example.com" {
		t.Errorf("%s = %q", EnvBaseURL, got)
	}
	if got := os.Getenv(EnvRole); got != "tenant" {
		t.Errorf("existing variables must win, %s = %q", EnvRole, got)
	}
}

func TestOpenStoreKeyring(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	withMockKeyring(t, ring)

	store, closeFn, err := OpenStore(Settings{CredentialBackend: BackendKeyring, Profile: "work"})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer func() { _ = closeFn() }()

	if err := store.Set(context.Background(), credstore.KeyAccessToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	item, err := ring.Get("work:" + credstore.KeyAccessToken)
	if err != nil || string(item.Data) != "abc" {
		t.Errorf("keyring item = %q, %v", item.Data, err)
	}
}

func TestOpenStoreKeyringError(t *testing.T) {
	t.Cleanup(SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return nil, errors.New("no backend")
	}))

	_, closeFn, err := OpenStore(Settings{CredentialBackend: BackendKeyring})
	if err == nil || !strings.Contains(err.Error(), "no backend") {
		t.Fatalf("expected keyring error, got %v", err)
	}
	if closeFn == nil {
		t.Error("close function must never be nil")
	}
}

func TestOpenStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, closeFn, err := OpenStore(Settings{
		CredentialBackend: BackendRedis,
		RedisURL:          "redis://" + mr.Addr(),
		RedisPrefix:       "rp",
		Profile:           "default",
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer func() { _ = closeFn() }()

	if err := store.Set(context.Background(), credstore.KeyRefreshToken, "r1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("rp:default:" + credstore.KeyRefreshToken); got != "r1" {
		t.Errorf("redis value = %q", got)
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, _, err := OpenStore(Settings{CredentialBackend: BackendMemory})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, ok := store.(*credstore.Memory); !ok {
		t.Errorf("expected memory store, got %T", store)
	}
}
