package session

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/atinyakov/Perseverance/internal/client/storage"
)

func exercise(t *testing.T, s TokenStore) {
	t.Helper()
	tok, err := s.Load()
	if err != nil || tok != "" {
		t.Fatalf("empty Load() = %q, %v", tok, err)
	}
	if err := s.Save("jwt-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if tok, err := s.Load(); err != nil || tok != "jwt-1" {
		t.Fatalf("Load() = %q, %v", tok, err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tok, _ := s.Load(); tok != "" {
		t.Fatalf("token survived Clear: %q", tok)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	exercise(t, KeyringStore{})
}

func TestKeyringStore_EmptyToken(t *testing.T) {
	keyring.MockInit()
	if err := (KeyringStore{}).Save(""); err == nil {
		t.Error("Save(\"\") should fail")
	}
}

func TestKeyringStore_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus"))
	_, err := KeyringStore{}.Load()
	if !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Load() err = %v", err)
	}
	if KeyringAvailable() {
		t.Error("KeyringAvailable() = true")
	}
	if _, ok := Default(storage.NewMemoryCache()).(CacheStore); !ok {
		t.Error("Default should fall back to the cache")
	}
}

func TestCacheStore(t *testing.T) {
	exercise(t, CacheStore{Cache: storage.NewMemoryCache()})
}

func TestDefault_PrefersKeyring(t *testing.T) {
	keyring.MockInit()
	if _, ok := Default(storage.NewMemoryCache()).(KeyringStore); !ok {
		t.Error("Default should use the keyring when available")
	}
}
