// Package keys owns the lifecycle of the installation's signing key
// pair. The pair is created lazily on first use and persisted with
// restrictive permissions; the private key file is immutable once
// written.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// PrivateKeyFile is the private key file name inside the key directory.
	PrivateKeyFile = "posture_ed25519"

	// PublicKeyFile is the public key file name inside the key directory.
	PublicKeyFile = "posture_ed25519.pub"

	privatePEMType = "PRIVATE KEY"
	publicPEMType  = "PUBLIC KEY"
)

// KeyPair holds the installation's signing key material. The private
// half never leaves the local trust boundary except as signatures it
// produces.
type KeyPair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey

	// PublicKeyPath locates the persisted public key; it is recorded
	// in signed artifacts as the public key reference.
	PublicKeyPath string
}

// Manager manages exactly one active key pair per installation.
// Rotation and revocation are out of scope.
type Manager struct {
	dir string
}

// NewManager creates a key manager rooted at dir. An empty dir selects
// the default location under the user's home directory.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("keys: resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".posture", "keys")
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the key directory.
func (m *Manager) Dir() string { return m.dir }

// EnsureKeyPair returns the installation key pair, generating and
// persisting it on first use. Repeated calls return the identical pair.
//
// Concurrent first use from multiple processes is resolved by an
// atomic create-or-fail write of the private key file: a losing racer
// re-reads the winner's key instead of overwriting it. No code path
// ever overwrites an existing private key file.
func (m *Manager) EnsureKeyPair() (*KeyPair, error) {
	privPath := filepath.Join(m.dir, PrivateKeyFile)
	pubPath := filepath.Join(m.dir, PublicKeyFile)

	if pair, err := m.load(privPath, pubPath); err == nil {
		return pair, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, fmt.Errorf("keys: create key directory: %w", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: generate key pair: %w", err)
	}

	privPEM, err := encodePrivateKey(priv)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(privPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Another process won the race; use its key.
			return m.load(privPath, pubPath)
		}
		return nil, fmt.Errorf("keys: create private key file: %w", err)
	}
	if _, err := f.Write(privPEM); err != nil {
		f.Close()
		return nil, fmt.Errorf("keys: write private key: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("keys: close private key file: %w", err)
	}

	if err := writePublicKey(pubPath, pub); err != nil {
		return nil, err
	}

	return &KeyPair{Private: priv, Public: pub, PublicKeyPath: pubPath}, nil
}

// load reads an existing pair. If the public key file is missing it is
// re-derived from the private key, which is the source of truth.
func (m *Manager) load(privPath, pubPath string) (*KeyPair, error) {
	privPEM, err := os.ReadFile(privPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("keys: read private key: %w", err)
	}

	priv, err := decodePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}
	pub := priv.Public().(ed25519.PublicKey)

	if _, err := os.Stat(pubPath); errors.Is(err, fs.ErrNotExist) {
		if err := writePublicKey(pubPath, pub); err != nil {
			return nil, err
		}
	}

	return &KeyPair{Private: priv, Public: pub, PublicKeyPath: pubPath}, nil
}

func writePublicKey(path string, pub ed25519.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return fmt.Errorf("keys: encode public key: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: publicPEMType, Bytes: der})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("keys: write public key: %w", err)
	}
	return nil
}

func encodePrivateKey(priv ed25519.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("keys: encode private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: privatePEMType, Bytes: der}), nil
}

func decodePrivateKey(data []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != privatePEMType {
		return nil, fmt.Errorf("keys: private key file is not a %s PEM block", privatePEMType)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keys: parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keys: private key is %T, want ed25519", key)
	}
	return priv, nil
}

// LoadPublicKey reads a PEM-encoded ed25519 public key from disk. Used
// by the verification path, which needs no private material.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read public key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != publicPEMType {
		return nil, fmt.Errorf("keys: public key file is not a %s PEM block", publicPEMType)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keys: parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("keys: public key is %T, want ed25519", key)
	}
	return pub, nil
}
