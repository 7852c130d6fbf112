package store

import (
	"path/filepath"
	"sync"

	"sibank/internal/domain"
)

const knownServersFile = "known_servers.json"

// KnownServerFileStore persists trust-on-first-use fingerprint pins.
type KnownServerFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewKnownServerFileStore returns a KnownServerFileStore rooted at dir.
func NewKnownServerFileStore(dir string) *KnownServerFileStore {
	return &KnownServerFileStore{dir: dir}
}

// PinServer records fingerprint for identity, replacing any earlier pin.
func (s *KnownServerFileStore) PinServer(identity string, fingerprint domain.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, knownServersFile)
	pins := make(map[string]domain.Fingerprint)
	if err := readJSON(path, &pins); err != nil {
		return err
	}
	pins[identity] = fingerprint
	return writeJSON(path, pins, 0o600)
}

// PinnedServer returns the pinned fingerprint for identity.
func (s *KnownServerFileStore) PinnedServer(identity string) (domain.Fingerprint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pins := make(map[string]domain.Fingerprint)
	if err := readJSON(filepath.Join(s.dir, knownServersFile), &pins); err != nil {
		return "", false, err
	}
	fp, ok := pins[identity]
	return fp, ok, nil
}

var _ domain.KnownServerStore = (*KnownServerFileStore)(nil)
