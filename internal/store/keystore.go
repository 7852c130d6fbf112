package store

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"sibank/internal/domain"
	"sibank/internal/util/memzero"
)

const (
	serverKeyFile  = "server_key.enc"
	serverKeyLabel = "sibank server identity"
)

// ServerKeyFileStore keeps the server signing identity encrypted under a
// passphrase.
type ServerKeyFileStore struct {
	dir string
	kdf ScryptParams
	mu  sync.Mutex
}

// NewServerKeyFileStore returns a store rooted at dir.
func NewServerKeyFileStore(dir string, kdf ScryptParams) *ServerKeyFileStore {
	return &ServerKeyFileStore{dir: dir, kdf: kdf}
}

// Path returns the key file location.
func (s *ServerKeyFileStore) Path() string { return filepath.Join(s.dir, serverKeyFile) }

// SaveServerIdentity encrypts and writes id, replacing any previous key.
func (s *ServerKeyFileStore) SaveServerIdentity(passphrase string, id domain.ServerIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	blob, err := seal(passphrase, serverKeyLabel, raw, s.kdf)
	if err != nil {
		return err
	}
	return writeFile(s.Path(), blob, 0o600)
}

// LoadServerIdentity reads and decrypts the identity. ok is false when no key
// has been saved yet.
func (s *ServerKeyFileStore) LoadServerIdentity(passphrase string) (domain.ServerIdentity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := readFile(s.Path())
	if err != nil || blob == nil {
		return domain.ServerIdentity{}, false, err
	}
	raw, err := open(passphrase, serverKeyLabel, blob)
	if err != nil {
		return domain.ServerIdentity{}, false, err
	}
	defer memzero.Zero(raw)

	var id domain.ServerIdentity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.ServerIdentity{}, false, err
	}
	return id, true, nil
}

var _ domain.ServerKeyStore = (*ServerKeyFileStore)(nil)
