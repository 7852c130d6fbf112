package kex

import (
	"fmt"

	"sibank/internal/domain"
	"sibank/internal/util/memzero"
)

// Group names an ephemeral key agreement group.
type Group string

const (
	X25519   Group = "x25519"
	MODP2048 Group = "modp2048"
)

// Default is the group clients offer when none is configured.
const Default = X25519

// ParseGroup validates a configured group name.
func ParseGroup(s string) (Group, error) {
	switch g := Group(s); g {
	case X25519, MODP2048:
		return g, nil
	case "":
		return Default, nil
	default:
		return "", fmt.Errorf("kex: unknown group %q", s)
	}
}

// PublicKey is an ephemeral public value tagged with its group. It doubles as
// the key agreement parameters sent on the wire.
type PublicKey struct {
	Group Group  `cbor:"group"`
	Key   []byte `cbor:"key"`
}

// KeyPair is a single-use ephemeral key pair.
type KeyPair struct {
	group  Group
	scheme scheme
	priv   []byte
	pub    []byte
}

type scheme interface {
	generate() (priv, pub []byte, err error)
	validate(pub []byte) error
	agree(priv, peer []byte) ([]byte, error)
}

func schemeFor(g Group) (scheme, error) {
	switch g {
	case X25519:
		return x25519Scheme{}, nil
	case MODP2048:
		return modpScheme{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported group %q", domain.ErrHandshake, g)
	}
}

// Generate creates a fresh key pair in group g.
func Generate(g Group) (*KeyPair, error) {
	s, err := schemeFor(g)
	if err != nil {
		return nil, err
	}
	priv, pub, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("kex: generate %s: %w", g, err)
	}
	return &KeyPair{group: g, scheme: s, priv: priv, pub: pub}, nil
}

// GenerateFor validates peer and creates a key pair in the same group.
func GenerateFor(peer PublicKey) (*KeyPair, error) {
	s, err := schemeFor(peer.Group)
	if err != nil {
		return nil, err
	}
	if err := s.validate(peer.Key); err != nil {
		return nil, err
	}
	return Generate(peer.Group)
}

// Group returns the key pair's group.
func (k *KeyPair) Group() Group { return k.group }

// Public returns the public half.
func (k *KeyPair) Public() PublicKey {
	return PublicKey{Group: k.group, Key: append([]byte(nil), k.pub...)}
}

// Agree derives the shared secret with peer. Both sides obtain the same
// bytes when their key pairs are in the same group.
func (k *KeyPair) Agree(peer PublicKey) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("%w: key pair already wiped", domain.ErrHandshake)
	}
	if peer.Group != k.group {
		return nil, fmt.Errorf("%w: group mismatch %s != %s", domain.ErrHandshake, peer.Group, k.group)
	}
	if err := k.scheme.validate(peer.Key); err != nil {
		return nil, err
	}
	return k.scheme.agree(k.priv, peer.Key)
}

// Wipe zeroes the private half. The key pair cannot be used afterwards.
func (k *KeyPair) Wipe() {
	memzero.Zero(k.priv)
	k.priv = nil
}
