package trust_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sibank/internal/domain"
	"sibank/internal/protocol/trust"
)

type memPins map[string]domain.Fingerprint

func (m memPins) PinServer(identity string, fp domain.Fingerprint) error {
	m[identity] = fp
	return nil
}

func (m memPins) PinnedServer(identity string) (domain.Fingerprint, bool, error) {
	fp, ok := m[identity]
	return fp, ok, nil
}

func TestIssueAndVerify(t *testing.T) {
	a, err := trust.Generate(trust.DefaultIdentity)
	require.NoError(t, err)

	cert := a.Certificate()
	require.Equal(t, []byte(trust.DefaultIdentity), cert.Content)
	require.NoError(t, trust.Verify(cert))
}

func TestTamperedCertificatesFail(t *testing.T) {
	a, err := trust.Generate(trust.DefaultIdentity)
	require.NoError(t, err)
	other, err := trust.Generate(trust.DefaultIdentity)
	require.NoError(t, err)

	tamper := map[string]func(c *domain.Certificate){
		"content":    func(c *domain.Certificate) { c.Content[0] ^= 1 },
		"signature":  func(c *domain.Certificate) { c.Signature[0] ^= 1 },
		"public key": func(c *domain.Certificate) { c.PublicKey = other.Certificate().PublicKey },
		"short key":  func(c *domain.Certificate) { c.PublicKey = c.PublicKey[:16] },
		"empty":      func(c *domain.Certificate) { c.Content = nil },
	}
	for name, f := range tamper {
		t.Run(name, func(t *testing.T) {
			cert := a.Certificate()
			f(&cert)
			require.ErrorIs(t, trust.Verify(cert), domain.ErrTrust)
		})
	}
}

func TestNewReusesKey(t *testing.T) {
	a, err := trust.Generate("bank")
	require.NoError(t, err)

	b, err := trust.New(a.ServerIdentity())
	require.NoError(t, err)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NoError(t, trust.Verify(b.Certificate()))

	id := a.ServerIdentity()
	id.EdPub[0] ^= 1
	_, err = trust.New(id)
	require.Error(t, err)
}

func TestTranscriptSignature(t *testing.T) {
	a, err := trust.Generate(trust.DefaultIdentity)
	require.NoError(t, err)

	sig := a.SignTranscript([]byte("transcript"))
	require.NoError(t, trust.VerifyTranscript(a.Certificate(), []byte("transcript"), sig))
	require.ErrorIs(t, trust.VerifyTranscript(a.Certificate(), []byte("other"), sig), domain.ErrTrust)
}

func TestVerifierIdentityAndPins(t *testing.T) {
	a, err := trust.Generate(trust.DefaultIdentity)
	require.NoError(t, err)
	impostor, err := trust.Generate(trust.DefaultIdentity)
	require.NoError(t, err)

	pins := memPins{}
	v := trust.Verifier{Identity: trust.DefaultIdentity, Pins: pins}

	require.NoError(t, v.Verify(a.Certificate()))
	require.Equal(t, a.Fingerprint(), pins[trust.DefaultIdentity])
	require.NoError(t, v.Verify(a.Certificate()))
	require.ErrorIs(t, v.Verify(impostor.Certificate()), domain.ErrTrust)

	wrongName, err := trust.Generate("someone-else")
	require.NoError(t, err)
	require.ErrorIs(t, v.Verify(wrongName.Certificate()), domain.ErrTrust)
}
