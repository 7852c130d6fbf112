package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/op/go-logging.v1"

	"sibank/internal/domain"
	"sibank/internal/instrument"
	sblog "sibank/internal/log"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/handshake"
	"sibank/internal/services/dispatch"
	"sibank/internal/transport"
)

// ServerOptions configure a session server.
type ServerOptions struct {
	Handshake  handshake.ServerConfig
	Dispatcher *dispatch.Dispatcher
	Metrics    *instrument.Metrics
	Log        *logging.Logger
}

// Server accepts sessions. One Server may serve any number of connections
// concurrently; each session gets its own handshake and codec.
type Server struct {
	opts ServerOptions
	log  *logging.Logger
}

// NewServer returns a session server.
func NewServer(opts ServerOptions) *Server {
	log := opts.Log
	if log == nil {
		log = sblog.Discard("session")
	}
	return &Server{opts: opts, log: log}
}

// Serve runs one session on conn until the peer closes it, ctx is done or a
// fatal error occurs. conn is closed on return. A clean close by the client
// returns nil.
func (s *Server) Serve(ctx context.Context, conn transport.Conn) error {
	defer conn.Close()
	id := domain.SessionID(uuid.NewString())

	codec, err := handshake.NewServer(s.opts.Handshake).Run(ctx, conn)
	s.opts.Metrics.Handshake(handshakeOutcome(err))
	if err != nil {
		s.log.Warningf("session %s: handshake: %v", id, err)
		return err
	}
	defer codec.Close()

	s.opts.Metrics.SessionOpened()
	defer s.opts.Metrics.SessionClosed()
	s.log.Infof("session %s: established (%s)", id, codec.Suite())

	err = s.loop(ctx, id, codec, conn)
	switch {
	case err == nil:
		s.log.Infof("session %s: closed by client", id)
	case errors.Is(err, domain.ErrDecryption):
		s.opts.Metrics.DecodeFailure()
		s.log.Warningf("session %s: %v", id, err)
	default:
		s.log.Errorf("session %s: %v", id, err)
	}
	return err
}

func (s *Server) loop(ctx context.Context, id domain.SessionID, codec *channel.Codec, conn transport.Conn) error {
	var caller dispatch.Caller
	for {
		var frame domain.EncryptedFrame
		if err := transport.ReadMessage(ctx, conn, &frame); err != nil {
			var decodeErr *transport.DecodeError
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.As(err, &decodeErr):
				return fmt.Errorf("%w: %v", domain.ErrDecryption, err)
			default:
				return fmt.Errorf("receive: %w", err)
			}
		}

		req, err := codec.DecodeRequest(frame)
		if err != nil {
			return err
		}

		var resp domain.Response
		resp, caller, err = s.opts.Dispatcher.Dispatch(ctx, caller, req)
		if err != nil {
			return err
		}
		s.log.Debugf("session %s: %s as %q", id, req.Command(), caller.Username)

		out, err := codec.EncodeResponse(resp)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		if err := transport.WriteMessage(ctx, conn, out); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}

func handshakeOutcome(err error) string {
	switch {
	case err == nil:
		return instrument.OutcomeOK
	case errors.Is(err, domain.ErrHandshake), errors.Is(err, domain.ErrTrust):
		return instrument.OutcomeRejected
	default:
		return instrument.OutcomeError
	}
}
