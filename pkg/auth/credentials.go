package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"rashset/pkg/config"
)

// Secret names understood by the stores
const (
	BingAPIKey         = "bing_api_key"
	RedditClientID     = "reddit_client_id"
	RedditClientSecret = "reddit_client_secret"
	RedditUsername     = "reddit_username"
	RedditPassword     = "reddit_password"
)

// SecretNames lists every secret in display order
var SecretNames = []string{
	BingAPIKey,
	RedditClientID,
	RedditClientSecret,
	RedditUsername,
	RedditPassword,
}

// IsSecretName reports whether name is a known secret
func IsSecretName(name string) bool {
	for _, n := range SecretNames {
		if n == name {
			return true
		}
	}
	return false
}

// SecretStore is a backend holding API secrets by name
type SecretStore interface {
	// Name identifies the backend in status output
	Name() string

	// Get returns the secret or ErrSecretNotFound
	Get(name string) (string, error)

	// Set saves the secret
	Set(name, value string) error

	// Delete removes the secret
	Delete(name string) error
}

// Manager reads secrets from an ordered list of stores
type Manager struct {
	stores []SecretStore
}

// NewManager creates a manager over the system keychain (when reachable),
// an encrypted file in the config directory, and the environment.
func NewManager() (*Manager, error) {
	var stores []SecretStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "secrets.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores
func NewManagerWithStores(stores ...SecretStore) *Manager {
	return &Manager{stores: stores}
}

// Set saves a secret in the first store that accepts it and returns that
// store's name
func (m *Manager) Set(name, value string) (string, error) {
	if !IsSecretName(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownSecret, name)
	}
	if value == "" {
		return "", errors.New("secret value is required")
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Set(name, value); err == nil {
			return store.Name(), nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store secret: %w", lastErr)
	}
	return "", ErrStoreUnavailable
}

// Get returns the secret from the first store that has it
func (m *Manager) Get(name string) (string, string, error) {
	for _, store := range m.stores {
		if v, err := store.Get(name); err == nil && v != "" {
			return v, store.Name(), nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}

// Delete removes the secret from every writable store
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete secret: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}

// SecretStatus describes where a secret was found
type SecretStatus struct {
	Name   string
	Store  string
	Masked string
}

// Status reports every known secret. Store is empty for missing secrets.
func (m *Manager) Status() []SecretStatus {
	out := make([]SecretStatus, 0, len(SecretNames))
	for _, name := range SecretNames {
		st := SecretStatus{Name: name}
		if v, store, err := m.Get(name); err == nil {
			st.Store = store
			st.Masked = MaskSecret(v)
		}
		out = append(out, st)
	}
	return out
}

// Resolve fills credentials that are missing or placeholders in cfg from the
// manager's stores. It returns the names of the secrets it filled in.
func Resolve(cfg *config.Config, m *Manager) []string {
	fields := map[string]*string{
		BingAPIKey:         &cfg.Bing.APIKey,
		RedditClientID:     &cfg.Reddit.ClientID,
		RedditClientSecret: &cfg.Reddit.ClientSecret,
		RedditUsername:     &cfg.Reddit.Username,
		RedditPassword:     &cfg.Reddit.Password,
	}

	var filled []string
	for _, name := range SecretNames {
		dst := fields[name]
		if !config.IsPlaceholder(*dst) {
			continue
		}
		if v, _, err := m.Get(name); err == nil {
			*dst = v
			filled = append(filled, name)
		}
	}
	return filled
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "rashset")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "rashset")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "rashset")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "rashset")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskSecret masks all but the first 4 and last 4 characters of a string
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrSecretNotFound   = errors.New("secret not found")
	ErrUnknownSecret    = errors.New("unknown secret name")
	ErrStoreUnavailable = errors.New("secret store unavailable")
)
