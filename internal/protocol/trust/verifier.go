package trust

import (
	"fmt"

	"sibank/internal/crypto"
	"sibank/internal/domain"
)

// Verifier is the client's certificate policy.
type Verifier struct {
	// Identity, when set, must equal the certificate content.
	Identity string
	// Pins, when set, enables trust on first use: the first key seen for an
	// identity is remembered and any other key is refused afterwards.
	Pins domain.KnownServerStore
}

// Verify applies Verify plus the identity and pinning policy.
func (v Verifier) Verify(cert domain.Certificate) error {
	if err := Verify(cert); err != nil {
		return err
	}
	identity := string(cert.Content)
	if v.Identity != "" && identity != v.Identity {
		return fmt.Errorf("%w: certificate is for %q, want %q", domain.ErrTrust, identity, v.Identity)
	}
	if v.Pins == nil {
		return nil
	}

	fp := crypto.Fingerprint(cert.PublicKey)
	pinned, ok, err := v.Pins.PinnedServer(identity)
	if err != nil {
		return fmt.Errorf("trust: load pin: %w", err)
	}
	if !ok {
		if err := v.Pins.PinServer(identity, fp); err != nil {
			return fmt.Errorf("trust: save pin: %w", err)
		}
		return nil
	}
	if pinned != fp {
		return fmt.Errorf("%w: key fingerprint %s does not match pinned %s", domain.ErrTrust, fp, pinned)
	}
	return nil
}
