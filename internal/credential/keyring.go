package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "focus"

// AccessTokenKey is the keyring entry holding the remote access token.
const AccessTokenKey = "supabase-access-token"

// ErrNoToken is returned when no access token has been stored.
var ErrNoToken = errors.New("no access token stored, run `focus login`")

// Vault reads and writes secrets in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// Open returns a Vault backed by the system keyring, falling back to an
// encrypted file under dataDir.
func Open(dataDir string) (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dataDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("focus-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Vault{ring: ring}, nil
}

// NewVault wraps an existing keyring, e.g. keyring.NewArrayKeyring in
// tests.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// AccessToken returns the stored remote access token.
func (v *Vault) AccessToken() (string, error) {
	item, err := v.ring.Get(AccessTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", AccessTokenKey, err)
	}
	return string(item.Data), nil
}

// SetAccessToken stores token for later sessions.
func (v *Vault) SetAccessToken(token string) error {
	if token == "" {
		return fmt.Errorf("access token must not be empty")
	}
	err := v.ring.Set(keyring.Item{
		Key:         AccessTokenKey,
		Data:        []byte(token),
		Label:       "focus remote access token",
		Description: "Supabase user access token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", AccessTokenKey, err)
	}
	return nil
}

// DeleteAccessToken forgets the stored token. Deleting a missing token is
// not an error.
func (v *Vault) DeleteAccessToken() error {
	err := v.ring.Remove(AccessTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", AccessTokenKey, err)
	}
	return nil
}
