package trust

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"sibank/internal/crypto"
	"sibank/internal/domain"
)

// DefaultIdentity is the identity string the server certifies unless
// configured otherwise.
const DefaultIdentity = "simple-internet-banking-server"

var (
	certContext       = []byte("sibank certificate v1\x00")
	transcriptContext = []byte("sibank transcript v1\x00")
)

// Anchor is the server side of the trust relationship.
type Anchor struct {
	id   domain.ServerIdentity
	cert domain.Certificate
}

// Generate creates a fresh signing key and certifies identity with it.
func Generate(identity string) (*Anchor, error) {
	if identity == "" {
		return nil, errors.New("trust: empty identity")
	}
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return nil, fmt.Errorf("trust: generate signing key: %w", err)
	}
	return New(domain.ServerIdentity{Identity: identity, EdPub: pub, EdPriv: priv})
}

// New reuses an existing signing identity, for example one loaded from a key
// store, and issues its certificate.
func New(id domain.ServerIdentity) (*Anchor, error) {
	if id.Identity == "" {
		return nil, errors.New("trust: empty identity")
	}
	derived := ed25519.PrivateKey(id.EdPriv[:]).Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, id.EdPub[:]) {
		return nil, errors.New("trust: public key does not match signing key")
	}
	return &Anchor{id: id, cert: Issue(id)}, nil
}

// Issue signs id.Identity with id's own key.
func Issue(id domain.ServerIdentity) domain.Certificate {
	content := []byte(id.Identity)
	return domain.Certificate{
		Content:   content,
		Signature: crypto.SignEd25519(id.EdPriv, certMessage(content)),
		PublicKey: append([]byte(nil), id.EdPub[:]...),
	}
}

// Certificate returns a copy of the issued certificate.
func (a *Anchor) Certificate() domain.Certificate {
	return domain.Certificate{
		Content:   append([]byte(nil), a.cert.Content...),
		Signature: append([]byte(nil), a.cert.Signature...),
		PublicKey: append([]byte(nil), a.cert.PublicKey...),
	}
}

// Identity returns the certified identity string.
func (a *Anchor) Identity() string { return a.id.Identity }

// ServerIdentity returns the underlying signing identity for persistence.
func (a *Anchor) ServerIdentity() domain.ServerIdentity { return a.id }

// Fingerprint returns the short fingerprint of the certified key.
func (a *Anchor) Fingerprint() domain.Fingerprint { return crypto.Fingerprint(a.id.EdPub[:]) }

// SignTranscript signs a handshake transcript with the long-term key.
func (a *Anchor) SignTranscript(transcript []byte) []byte {
	return crypto.SignEd25519(a.id.EdPriv, transcriptMessage(transcript))
}

// Verify checks that cert is well formed and that its signature verifies
// under its own public key.
func Verify(cert domain.Certificate) error {
	if len(cert.Content) == 0 {
		return fmt.Errorf("%w: empty certificate content", domain.ErrTrust)
	}
	if len(cert.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad public key length %d", domain.ErrTrust, len(cert.PublicKey))
	}
	if !crypto.VerifyEd25519(cert.PublicKey, certMessage(cert.Content), cert.Signature) {
		return fmt.Errorf("%w: bad certificate signature", domain.ErrTrust)
	}
	return nil
}

// VerifyTranscript checks a transcript signature against the certificate key.
func VerifyTranscript(cert domain.Certificate, transcript, sig []byte) error {
	if !crypto.VerifyEd25519(cert.PublicKey, transcriptMessage(transcript), sig) {
		return fmt.Errorf("%w: bad transcript signature", domain.ErrTrust)
	}
	return nil
}

func certMessage(content []byte) []byte {
	return append(append([]byte(nil), certContext...), content...)
}

func transcriptMessage(transcript []byte) []byte {
	return append(append([]byte(nil), transcriptContext...), transcript...)
}

// FetchCertificate hands out the certificate in-process.
func (a *Anchor) FetchCertificate(context.Context) (domain.Certificate, error) {
	return a.Certificate(), nil
}

// Static serves a certificate obtained out of band, for example from a file.
type Static domain.Certificate

// FetchCertificate returns the stored certificate.
func (s Static) FetchCertificate(context.Context) (domain.Certificate, error) {
	return domain.Certificate(s), nil
}

var (
	_ domain.CertificateSource = (*Anchor)(nil)
	_ domain.CertificateSource = Static{}
)
