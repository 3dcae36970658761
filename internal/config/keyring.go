package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

// KeyringBackend selects where keyring credentials live.
type KeyringBackend string

const (
	// KeyringAuto prefers the OS keychain and falls back to encrypted files.
	KeyringAuto   KeyringBackend = "auto"
	KeyringFile   KeyringBackend = "file"
	KeyringSystem KeyringBackend = "system"
)

// ParseKeyringBackend maps RP_KEYRING_BACKEND to a backend. Unknown values
// mean auto.
func ParseKeyringBackend(raw string) KeyringBackend {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "file":
		return KeyringFile
	case "system", "os", "native":
		return KeyringSystem
	default:
		return KeyringAuto
	}
}

var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

// SetOpenKeyring replaces the keyring opener and returns a function that
// restores the previous one.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

var (
	userConfigDir = os.UserConfigDir

	// headlessLinux reports a Linux session without a D-Bus secret service.
	headlessLinux = func() bool {
		return runtime.GOOS == "linux" && strings.TrimSpace(os.Getenv("DBUS_SESSION_BUS_ADDRESS")) == ""
	}

	stdinHasTTY = func() bool {
		info, err := os.Stdin.Stat()
		return err == nil && info.Mode()&os.ModeCharDevice != 0
	}
)

// keyringConfig builds the configuration passed to keyring.Open. Outside
// system mode the file backend is always configured, and it is the only
// backend allowed in file mode or on headless Linux.
func keyringConfig(backend KeyringBackend, dir string) keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}
	if backend == KeyringSystem {
		return cfg
	}
	if dir == "" {
		dir = defaultKeyringDir()
	}
	cfg.FileDir = dir
	cfg.FilePasswordFunc = keyringFilePassword
	if backend == KeyringFile || headlessLinux() {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

// defaultKeyringDir is RP_CREDENTIALS_DIR/keyring, else a directory under
// the user config dir.
func defaultKeyringDir() string {
	if base := firstNonBlankEnv(envCredentialsDir); base != "" {
		return filepath.Join(base, "keyring")
	}
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName, "keyring")
	}
	return filepath.Join(os.TempDir(), serviceName, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password := firstNonBlankEnv(envKeyringPassword); password != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s to use the file keyring without a terminal", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}
