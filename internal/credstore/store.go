// Package credstore persists the portal session tokens.
//
// A Store holds two entries, the access token and the refresh token. Backends
// are interchangeable: an in-memory map for tests and short-lived processes,
// the OS keychain for interactive use, and Redis for shared deployments.
package credstore

import (
	"context"
	"errors"
	"fmt"
)

const (
	// KeyAccessToken is the entry holding the bearer access token.
	KeyAccessToken = "token"
	// KeyRefreshToken is the entry holding the refresh token.
	KeyRefreshToken = "refreshToken"
)

// ErrNotFound is returned by Get when a key has no stored value.
var ErrNotFound = errors.New("credential not found")

// Store is a key-value store for session credentials.
type Store interface {
	// Get returns the stored value, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// StoreError describes a failed backend operation.
type StoreError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s credential %q: %v", e.Op, e.Key, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Lookup returns the value for key, or "" when it is absent.
func Lookup(ctx context.Context, s Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SaveTokens stores an access token and, when non-empty, a refresh token.
func SaveTokens(ctx context.Context, s Store, access, refresh string) error {
	if err := s.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return s.Set(ctx, KeyRefreshToken, refresh)
}

// ClearTokens removes both session entries. Both removals are attempted even
// if the first one fails.
func ClearTokens(ctx context.Context, s Store) error {
	return errors.Join(
		s.Remove(ctx, KeyAccessToken),
		s.Remove(ctx, KeyRefreshToken),
	)
}
