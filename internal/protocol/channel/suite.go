package channel

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Suite names an AEAD construction for frames.
type Suite string

const (
	AES128GCM         Suite = "AES-128-GCM"
	XChaCha20Poly1305 Suite = "XCHACHA20-POLY1305"
)

// DefaultSuite is used when none is configured.
const DefaultSuite = AES128GCM

// ParseSuite validates a configured suite name.
func ParseSuite(s string) (Suite, error) {
	switch suite := Suite(s); suite {
	case AES128GCM, XChaCha20Poly1305:
		return suite, nil
	case "":
		return DefaultSuite, nil
	default:
		return "", fmt.Errorf("channel: unknown suite %q", s)
	}
}

func (s Suite) keySize() (int, error) {
	switch s {
	case AES128GCM:
		return 16, nil
	case XChaCha20Poly1305:
		return chacha20poly1305.KeySize, nil
	default:
		return 0, fmt.Errorf("channel: unknown suite %q", s)
	}
}

func (s Suite) aead(key []byte) (cipher.AEAD, error) {
	switch s {
	case AES128GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case XChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("channel: unknown suite %q", s)
	}
}
