// Package session persists the bearer token between client runs.
package session

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/atinyakov/Perseverance/internal/client/storage"
)

const (
	// Service is the keyring service name.
	Service = "perseverance"
	// KeyringUser is the keyring account the token is stored under.
	KeyringUser = "token"
	// CacheKey holds the token when no keyring is available.
	CacheKey = "token"
)

// ErrKeyringUnavailable is returned when the OS keyring cannot be used.
var ErrKeyringUnavailable = errors.New("OS keyring is not available")

// TokenStore saves and restores the bearer token. Load returns "" with
// a nil error when no token is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// KeyringStore keeps the token in the OS keyring.
type KeyringStore struct{}

func (KeyringStore) Load() (string, error) {
	tok, err := keyring.Get(Service, KeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return tok, nil
}

func (KeyringStore) Save(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(Service, KeyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

func (KeyringStore) Clear() error {
	err := keyring.Delete(Service, KeyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// KeyringAvailable is a best-effort probe of the OS keyring.
func KeyringAvailable() bool {
	_, err := keyring.Get(Service, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// CacheStore keeps the token in the local cache next to the data.
type CacheStore struct {
	Cache storage.Cache
}

func (s CacheStore) Load() (string, error) {
	v, ok, err := s.Cache.Get(CacheKey)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

func (s CacheStore) Save(token string) error {
	return s.Cache.Set(CacheKey, token)
}

func (s CacheStore) Clear() error {
	return s.Cache.Delete(CacheKey)
}

// Default picks the keyring when it works and the cache otherwise.
func Default(cache storage.Cache) TokenStore {
	if KeyringAvailable() {
		return KeyringStore{}
	}
	return CacheStore{Cache: cache}
}
