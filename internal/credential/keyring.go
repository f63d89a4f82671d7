package credential

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "inboxagent"

// ErrNoAPIKey is returned when no key is configured for a provider.
var ErrNoAPIKey = errors.New("no API key configured")

// Store reads and writes secrets in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the system keyring. configDir holds the encrypted file
// backend used when no OS keyring is available.
func Open(configDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(configDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("inboxagent-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// KeyName returns the keyring entry that holds the API key for provider.
func KeyName(provider string) string {
	if provider == "" {
		provider = "gemini"
	}
	return strings.ToLower(provider) + "-api-key"
}

// EnvVar returns the environment variable consulted for provider's API key.
func EnvVar(provider string) string {
	switch strings.ToLower(provider) {
	case "", "gemini":
		return "GOOGLE_API_KEY"
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}

// APIKey resolves the key for provider from the environment first, then
// from s. s may be nil when no keyring is available.
func APIKey(provider string, getenv func(string) string, s *Store) (string, error) {
	if provider == "" {
		provider = "gemini"
	}
	if v := strings.TrimSpace(getenv(EnvVar(provider))); v != "" {
		return v, nil
	}
	if s != nil {
		if v, err := s.Get(KeyName(provider)); err == nil && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w for %s: set %s or run `inboxagent key set`",
		ErrNoAPIKey, provider, EnvVar(provider))
}
