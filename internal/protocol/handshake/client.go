package handshake

import (
	"context"
	"errors"
	"fmt"
	"io"

	"sibank/internal/domain"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/kex"
	"sibank/internal/protocol/trust"
	"sibank/internal/transport"
	"sibank/internal/util/memzero"
)

// CertVerifier decides whether a server certificate is acceptable.
type CertVerifier interface {
	Verify(cert domain.Certificate) error
}

// ClientConfig configures a client handshake.
type ClientConfig struct {
	Certificates domain.CertificateSource
	// Verifier defaults to trust.Verifier{} (self-certification only).
	Verifier CertVerifier
	Group    kex.Group
	Suite    channel.Suite
}

// Client is the client side of one handshake.
type Client struct {
	cfg   ClientConfig
	state State
	cert  domain.Certificate
	kp    *kex.KeyPair
	hello ClientHello
}

// NewClient returns a client engine in StateInit.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Verifier == nil {
		cfg.Verifier = trust.Verifier{}
	}
	if cfg.Group == "" {
		cfg.Group = kex.Default
	}
	if cfg.Suite == "" {
		cfg.Suite = channel.DefaultSuite
	}
	return &Client{cfg: cfg}
}

// State returns the current state.
func (c *Client) State() State { return c.state }

// Certificate returns the verified server certificate.
func (c *Client) Certificate() domain.Certificate { return c.cert }

// VerifyServer fetches and verifies the server certificate.
func (c *Client) VerifyServer(ctx context.Context) error {
	if c.state != StateInit {
		return c.fail(fmt.Errorf("%w: verify in state %s", domain.ErrHandshake, c.state))
	}
	if c.cfg.Certificates == nil {
		return c.fail(fmt.Errorf("%w: no certificate source", domain.ErrTrust))
	}
	cert, err := c.cfg.Certificates.FetchCertificate(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("%w: fetch certificate: %v", domain.ErrTrust, err))
	}
	if err := c.cfg.Verifier.Verify(cert); err != nil {
		return c.fail(err)
	}
	c.cert = cert
	c.state = StateCertVerified
	return nil
}

// Hello generates the ephemeral key pair and returns the message to send.
func (c *Client) Hello() (ClientHello, error) {
	if c.state != StateCertVerified || c.kp != nil {
		return ClientHello{}, c.fail(fmt.Errorf("%w: hello in state %s", domain.ErrHandshake, c.state))
	}
	kp, err := kex.Generate(c.cfg.Group)
	if err != nil {
		return ClientHello{}, c.fail(err)
	}
	c.kp = kp
	c.hello = ClientHello{Version: Version, Suite: c.cfg.Suite, Public: kp.Public()}
	return c.hello, nil
}

// Finish consumes the server reply and returns the client channel codec.
func (c *Client) Finish(reply ServerHello) (*channel.Codec, error) {
	if c.state != StateCertVerified || c.kp == nil {
		return nil, c.fail(fmt.Errorf("%w: finish in state %s", domain.ErrHandshake, c.state))
	}
	tr, err := transcript(c.cert, c.hello, reply.Public)
	if err != nil {
		return nil, c.fail(err)
	}
	if err := trust.VerifyTranscript(c.cert, tr, reply.Signature); err != nil {
		return nil, c.fail(err)
	}
	secret, err := c.kp.Agree(reply.Public)
	c.kp.Wipe()
	if err != nil {
		return nil, c.fail(err)
	}
	defer memzero.Zero(secret)
	c.state = StateKeyExchanged

	codec, err := channel.New(c.cfg.Suite, channel.RoleClient, secret, tr)
	if err != nil {
		return nil, c.fail(err)
	}
	c.state = StateReady
	return codec, nil
}

// Run drives the client handshake over conn.
func (c *Client) Run(ctx context.Context, conn transport.Conn) (*channel.Codec, error) {
	if err := c.VerifyServer(ctx); err != nil {
		return nil, err
	}
	hello, err := c.Hello()
	if err != nil {
		return nil, err
	}
	if err := transport.WriteMessage(ctx, conn, hello); err != nil {
		return nil, c.fail(fmt.Errorf("handshake: send hello: %w", err))
	}
	var reply ServerHello
	if err := transport.ReadMessage(ctx, conn, &reply); err != nil {
		return nil, c.fail(readError(err))
	}
	return c.Finish(reply)
}

func (c *Client) fail(err error) error {
	c.state = StateFailed
	if c.kp != nil {
		c.kp.Wipe()
	}
	return err
}

func readError(err error) error {
	var decodeErr *transport.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return fmt.Errorf("%w: %v", domain.ErrHandshake, err)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: peer closed the connection", domain.ErrHandshake)
	default:
		return fmt.Errorf("handshake: receive: %w", err)
	}
}
