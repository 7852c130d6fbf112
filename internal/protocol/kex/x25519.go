package kex

import (
	"fmt"

	"golang.org/x/crypto/curve25519"

	"sibank/internal/crypto"
	"sibank/internal/domain"
)

type x25519Scheme struct{}

func (x25519Scheme) generate() ([]byte, []byte, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return nil, nil, err
	}
	return priv[:], pub[:], nil
}

func (x25519Scheme) validate(pub []byte) error {
	if len(pub) != curve25519.PointSize {
		return fmt.Errorf("%w: x25519 key is %d bytes", domain.ErrHandshake, len(pub))
	}
	return nil
}

func (x25519Scheme) agree(priv, peer []byte) ([]byte, error) {
	var sk domain.X25519Private
	var pk domain.X25519Public
	copy(sk[:], priv)
	copy(pk[:], peer)
	secret, err := crypto.DH(sk, pk)
	clear(sk[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrHandshake, err)
	}
	return secret[:], nil
}
