package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/credstore"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

// Credential store backends.
const (
	BackendKeyring = "keyring"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// Settings contains resolved API client settings.
type Settings struct {
	BaseURL           string
	Role              api.Role
	Timeout           time.Duration
	Profile           string
	CredentialBackend string
	RedisURL          string
	RedisPrefix       string
	SessionTTL        time.Duration
	KeyringBackend    KeyringBackend
	KeyringDir        string
}

// Overrides are command-line values that take precedence over the environment.
type Overrides struct {
	BaseURL string
	Role    string
	Timeout time.Duration
	Profile string
}

// Resolve merges environment variables with overrides and validates the result.
func Resolve(o Overrides) (Settings, error) {
	s := Settings{
		BaseURL:           firstNonBlankEnv(EnvBaseURL),
		Role:              api.RoleTenant,
		Timeout:           api.DefaultTimeout,
		Profile:           firstNonBlankEnv(EnvProfile),
		CredentialBackend: strings.ToLower(firstNonBlankEnv(EnvCredentialBackend)),
		RedisURL:          firstNonBlankEnv(EnvRedisURL),
		RedisPrefix:       firstNonBlankEnv(EnvRedisPrefix),
		KeyringBackend:    ParseKeyringBackend(firstNonBlankEnv(envKeyringBackend)),
		KeyringDir:        defaultKeyringDir(),
	}

	role := firstNonBlankEnv(EnvRole)
	if o.Role != "" {
		role = o.Role
	}
	if role != "" {
		r, err := api.ParseRole(role)
		if err != nil {
			return Settings{}, err
		}
		s.Role = r
	}

	if raw := firstNonBlankEnv(EnvTimeout); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		s.Timeout = d
	}
	if o.Timeout > 0 {
		s.Timeout = o.Timeout
	}

	if raw := firstNonBlankEnv(EnvSessionTTL); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", EnvSessionTTL, err)
		}
		s.SessionTTL = d
	}

	if o.Profile != "" {
		s.Profile = o.Profile
	}
	if s.Profile == "" {
		s.Profile = defaultProfile
	}

	switch s.CredentialBackend {
	case "":
		s.CredentialBackend = BackendKeyring
	case BackendKeyring, BackendRedis, BackendMemory:
	default:
		return Settings{}, fmt.Errorf("invalid %s %q (use keyring, redis, or memory)", EnvCredentialBackend, s.CredentialBackend)
	}
	if s.CredentialBackend == BackendRedis && s.RedisURL == "" {
		return Settings{}, fmt.Errorf("%s is required when %s=redis", EnvRedisURL, EnvCredentialBackend)
	}

	if o.BaseURL != "" {
		s.BaseURL = o.BaseURL
	}
	if s.BaseURL == "" {
		return Settings{}, ErrNotConfigured
	}
	allowInsecure, _ := strconv.ParseBool(firstNonBlankEnv(EnvAllowInsecure))
	baseURL, err := validation.ValidateBaseURL(s.BaseURL, allowInsecure)
	if err != nil {
		return Settings{}, err
	}
	s.BaseURL = baseURL
	return s, nil
}

// parseDuration accepts Go durations ("15s") or bare seconds ("15").
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

// OpenStore opens the configured credential store. The returned close
// function releases backend connections and is never nil.
func OpenStore(s Settings) (credstore.Store, func() error, error) {
	noop := func() error { return nil }
	switch s.CredentialBackend {
	case BackendMemory:
		return credstore.NewMemory(nil), noop, nil
	case BackendRedis:
		prefix := s.RedisPrefix
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		if prefix == "" {
			prefix = credstore.DefaultRedisPrefix
		}
		store, client, err := credstore.OpenRedis(s.RedisURL, prefix+s.Profile+":", s.SessionTTL)
		if err != nil {
			return nil, noop, err
		}
		return store, client.Close, nil
	default:
		ring, err := openKeyring(keyringConfig(s.KeyringBackend, s.KeyringDir))
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open keyring: %w", err)
		}
		return credstore.NewKeyring(ring, s.Profile), noop, nil
	}
}
