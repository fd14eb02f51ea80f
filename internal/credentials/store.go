// Package credentials caches cluster bind passwords on local disk.
//
// Each (cluster, bind DN) pair gets one JSON record named after the SHA-256 of the pair.
// When a key is configured the password is sealed with NaCl secretbox; otherwise it is
// stored as-is and only the file mode protects it.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrNotFound is returned when no password is cached for a cluster
var ErrNotFound = errors.New("no cached credential")

const nonceSize = 24

// Store is the credential cache used by the directory service
type Store interface {
	Save(cluster, bindDN, password string) error
	Get(cluster, bindDN string) (string, error)
	Has(cluster, bindDN string) bool
	Clear(cluster, bindDN string) error
}

type record struct {
	Cluster      string `json:"cluster"`
	BindDN       string `json:"bind_dn"`
	PasswordHash string `json:"password_hash"`
	Password     string `json:"password,omitempty"`
	Sealed       string `json:"sealed,omitempty"`
}

// FileStore keeps one record per cluster in a directory
type FileStore struct {
	dir string
	key *[32]byte
}

// NewFileStore creates the cache directory if needed. An empty passphrase disables encryption.
func NewFileStore(dir, passphrase string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential cache %s: %w", dir, err)
	}

	s := &FileStore{dir: dir}
	if passphrase != "" {
		k := sha256.Sum256([]byte(passphrase))
		s.key = &k
	}
	return s, nil
}

// Encrypted reports whether passwords are sealed at rest
func (s *FileStore) Encrypted() bool {
	return s.key != nil
}

// Save writes the password for a cluster, replacing any previous one
func (s *FileStore) Save(cluster, bindDN, password string) error {
	sum := sha256.Sum256([]byte(password))
	rec := record{
		Cluster:      cluster,
		BindDN:       bindDN,
		PasswordHash: hex.EncodeToString(sum[:]),
	}

	if s.key != nil {
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return fmt.Errorf("failed to generate nonce: %w", err)
		}
		sealed := secretbox.Seal(nonce[:], []byte(password), &nonce, s.key)
		rec.Sealed = base64.StdEncoding.EncodeToString(sealed)
	} else {
		rec.Password = password
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	path := s.path(cluster, bindDN)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Get returns the cached password for a cluster
func (s *FileStore) Get(cluster, bindDN string) (string, error) {
	data, err := os.ReadFile(s.path(cluster, bindDN))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("credential for %s is corrupt: %w", cluster, err)
	}

	if rec.Sealed == "" {
		if s.key != nil {
			// written before a key was configured
			return "", fmt.Errorf("credential for %s is not encrypted", cluster)
		}
		return rec.Password, nil
	}

	if s.key == nil {
		return "", fmt.Errorf("credential for %s is encrypted but no key is configured", cluster)
	}

	sealed, err := base64.StdEncoding.DecodeString(rec.Sealed)
	if err != nil || len(sealed) < nonceSize {
		return "", fmt.Errorf("credential for %s is corrupt", cluster)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, s.key)
	if !ok {
		return "", fmt.Errorf("credential for %s cannot be decrypted", cluster)
	}
	return string(plain), nil
}

// Has reports whether a password is cached for a cluster
func (s *FileStore) Has(cluster, bindDN string) bool {
	_, err := os.Stat(s.path(cluster, bindDN))
	return err == nil
}

// Clear removes the cached password. Clearing a missing entry is not an error.
func (s *FileStore) Clear(cluster, bindDN string) error {
	err := os.Remove(s.path(cluster, bindDN))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

func (s *FileStore) path(cluster, bindDN string) string {
	sum := sha256.Sum256([]byte(cluster + ":" + bindDN))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}
