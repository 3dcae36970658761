// Package config resolves client settings from the environment, optional
// .env files, and command-line overrides, and opens the credential store.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	serviceName    = "rentportal-cli"
	defaultProfile = "default"

	EnvBaseURL           = "RP_BASE_URL"
	EnvRole              = "RP_ROLE"
	EnvTimeout           = "RP_TIMEOUT"
	EnvProfile           = "RP_PROFILE"
	EnvAllowInsecure     = "RP_ALLOW_INSECURE"
	EnvCredentialBackend = "RP_CREDENTIAL_BACKEND"
	EnvRedisURL          = "RP_REDIS_URL"
	EnvRedisPrefix       = "RP_REDIS_PREFIX"
	EnvSessionTTL        = "RP_SESSION_TTL"

	envKeyringBackend  = "RP_KEYRING_BACKEND"
	envKeyringPassword = "RP_KEYRING_PASSWORD"
	envCredentialsDir  = "RP_CREDENTIALS_DIR"
)

// ErrNotConfigured is returned when no backend URL is configured
var ErrNotConfigured = errors.New("portal URL not configured - set RP_BASE_URL or pass --base-url")

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no paths, ".env" in the working directory is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func firstNonBlankEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
