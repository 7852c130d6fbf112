package handshake

import (
	"context"
	"fmt"
	"slices"

	"sibank/internal/domain"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/kex"
	"sibank/internal/protocol/trust"
	"sibank/internal/transport"
	"sibank/internal/util/memzero"
)

// ServerConfig configures the server side.
type ServerConfig struct {
	Anchor *trust.Anchor
	// Groups and Suites restrict what clients may offer. Empty means all.
	Groups []kex.Group
	Suites []channel.Suite
}

// Server is the server side of one handshake.
type Server struct {
	cfg   ServerConfig
	state State
}

// NewServer returns a server engine in StateInit.
func NewServer(cfg ServerConfig) *Server {
	return &Server{cfg: cfg}
}

// State returns the current state.
func (s *Server) State() State { return s.state }

// Respond answers hello and returns the reply together with the server
// channel codec.
func (s *Server) Respond(hello ClientHello) (ServerHello, *channel.Codec, error) {
	if s.state != StateInit {
		return ServerHello{}, nil, s.fail(fmt.Errorf("%w: respond in state %s", domain.ErrHandshake, s.state))
	}
	if hello.Version != Version {
		return ServerHello{}, nil, s.fail(fmt.Errorf("%w: unsupported version %d", domain.ErrHandshake, hello.Version))
	}
	if _, err := channel.ParseSuite(string(hello.Suite)); err != nil || hello.Suite == "" ||
		(len(s.cfg.Suites) > 0 && !slices.Contains(s.cfg.Suites, hello.Suite)) {
		return ServerHello{}, nil, s.fail(fmt.Errorf("%w: unsupported suite %q", domain.ErrHandshake, hello.Suite))
	}
	if len(s.cfg.Groups) > 0 && !slices.Contains(s.cfg.Groups, hello.Public.Group) {
		return ServerHello{}, nil, s.fail(fmt.Errorf("%w: unsupported group %q", domain.ErrHandshake, hello.Public.Group))
	}

	kp, err := kex.GenerateFor(hello.Public)
	if err != nil {
		return ServerHello{}, nil, s.fail(err)
	}
	secret, err := kp.Agree(hello.Public)
	public := kp.Public()
	kp.Wipe()
	if err != nil {
		return ServerHello{}, nil, s.fail(err)
	}
	defer memzero.Zero(secret)
	s.state = StateKeyExchanged

	tr, err := transcript(s.cfg.Anchor.Certificate(), hello, public)
	if err != nil {
		return ServerHello{}, nil, s.fail(err)
	}
	codec, err := channel.New(hello.Suite, channel.RoleServer, secret, tr)
	if err != nil {
		return ServerHello{}, nil, s.fail(err)
	}
	s.state = StateReady
	return ServerHello{Public: public, Signature: s.cfg.Anchor.SignTranscript(tr)}, codec, nil
}

// Run drives the server handshake over conn.
func (s *Server) Run(ctx context.Context, conn transport.Conn) (*channel.Codec, error) {
	var hello ClientHello
	if err := transport.ReadMessage(ctx, conn, &hello); err != nil {
		return nil, s.fail(readError(err))
	}
	reply, codec, err := s.Respond(hello)
	if err != nil {
		return nil, err
	}
	if err := transport.WriteMessage(ctx, conn, reply); err != nil {
		codec.Close()
		return nil, s.fail(fmt.Errorf("handshake: send reply: %w", err))
	}
	return codec, nil
}

func (s *Server) fail(err error) error {
	s.state = StateFailed
	return err
}
