package config

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "title-fetch"
	keyringUser    = "tvdb-api-key"
)

// SetTVDBKey persists the TVDB API key to the system keyring.
func SetTVDBKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key required")
	}
	return keyring.Set(keyringService, keyringUser, key)
}

// TVDBKey retrieves the TVDB API key from the system keyring. A missing entry
// is not an error.
func TVDBKey() (string, error) {
	key, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return key, err
}

// DeleteTVDBKey removes the TVDB API key from the system keyring.
func DeleteTVDBKey() error {
	err := keyring.Delete(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ResolveTVDBKey picks the key from the flag, then the config or environment,
// then the keyring.
func (cfg *Config) ResolveTVDBKey(flag string) (string, error) {
	if key := strings.TrimSpace(flag); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(cfg.TVDBAPIKey); key != "" {
		return key, nil
	}
	return TVDBKey()
}
