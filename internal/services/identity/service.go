package identity

import (
	"errors"
	"fmt"
	"unicode"

	"sibank/internal/domain"
	"sibank/internal/protocol/trust"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
	// ErrNoIdentity is returned by Load before any key has been generated.
	ErrNoIdentity = errors.New("no server identity; run init first")
)

// Service creates and loads the server signing identity for one configured
// identity string.
type Service struct {
	store    domain.ServerKeyStore
	identity string
}

// New returns an identity service backed by the given store.
func New(s domain.ServerKeyStore, identity string) *Service {
	if identity == "" {
		identity = trust.DefaultIdentity
	}
	return &Service{store: s, identity: identity}
}

// Generate creates a new signing key, replacing any existing one, saves it
// encrypted with the passphrase and returns the anchor.
func (s *Service) Generate(passphrase string) (*trust.Anchor, error) {
	if !isSecurePassphrase(passphrase) {
		return nil, ErrWeakPassphrase
	}
	anchor, err := trust.Generate(s.identity)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveServerIdentity(passphrase, anchor.ServerIdentity()); err != nil {
		return nil, fmt.Errorf("save server identity: %w", err)
	}
	return anchor, nil
}

// Load decrypts the stored identity.
func (s *Service) Load(passphrase string) (*trust.Anchor, error) {
	id, ok, err := s.store.LoadServerIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("load server identity: %w", err)
	}
	if !ok {
		return nil, ErrNoIdentity
	}
	if id.Identity != s.identity {
		return nil, fmt.Errorf("stored key certifies %q, configured identity is %q", id.Identity, s.identity)
	}
	return trust.New(id)
}

// LoadOrGenerate loads the stored identity, generating one on first run.
func (s *Service) LoadOrGenerate(passphrase string) (anchor *trust.Anchor, created bool, err error) {
	anchor, err = s.Load(passphrase)
	if errors.Is(err, ErrNoIdentity) {
		anchor, err = s.Generate(passphrase)
		return anchor, err == nil, err
	}
	return anchor, false, err
}

// Fingerprint returns the short fingerprint of the stored signing key.
func (s *Service) Fingerprint(passphrase string) (domain.Fingerprint, error) {
	anchor, err := s.Load(passphrase)
	if err != nil {
		return "", err
	}
	return anchor.Fingerprint(), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
