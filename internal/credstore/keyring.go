package credstore

import (
	"context"
	"errors"

	"github.com/99designs/keyring"
)

// Keyring is a Store backed by the OS keychain (or an encrypted file when no
// native backend is available). Entries are namespaced by Namespace so several
// portal deployments can share one keychain service.
type Keyring struct {
	Ring      keyring.Keyring
	Namespace string
}

// NewKeyring wraps an opened keyring.
func NewKeyring(ring keyring.Keyring, namespace string) *Keyring {
	return &Keyring{Ring: ring, Namespace: namespace}
}

func (k *Keyring) itemKey(key string) string {
	if k.Namespace == "" {
		return key
	}
	return k.Namespace + ":" + key
}

func (k *Keyring) Get(_ context.Context, key string) (string, error) {
	item, err := k.Ring.Get(k.itemKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", &StoreError{Op: "get", Key: key, Cause: err}
	}
	return string(item.Data), nil
}

func (k *Keyring) Set(_ context.Context, key, value string) error {
	err := k.Ring.Set(keyring.Item{
		Key:         k.itemKey(key),
		Data:        []byte(value),
		Label:       "rentportal " + key,
		Description: "rentportal session credential",
	})
	if err != nil {
		return &StoreError{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (k *Keyring) Remove(_ context.Context, key string) error {
	if err := k.Ring.Remove(k.itemKey(key)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return &StoreError{Op: "remove", Key: key, Cause: err}
	}
	return nil
}
