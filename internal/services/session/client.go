package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"sibank/internal/domain"
	sblog "sibank/internal/log"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/handshake"
	"sibank/internal/transport"
)

// DefaultRequestTimeout bounds one request/response exchange when the
// caller's context carries no deadline.
const DefaultRequestTimeout = 30 * time.Second

// ErrUnexpectedResponse is returned when the server answers a different
// command than the one sent.
var ErrUnexpectedResponse = errors.New("session: response does not match request")

// ClientOptions configure a client session.
type ClientOptions struct {
	Handshake handshake.ClientConfig
	// RequestTimeout defaults to DefaultRequestTimeout. Negative disables it.
	RequestTimeout time.Duration
	Log            *logging.Logger
}

// Client is an established client session.
type Client struct {
	mu      sync.Mutex
	conn    transport.Conn
	codec   *channel.Codec
	timeout time.Duration
	closed  bool
	log     *logging.Logger
}

// Dial runs the client handshake over conn and returns the session. conn is
// closed if the handshake fails.
func Dial(ctx context.Context, conn transport.Conn, opts ClientOptions) (*Client, error) {
	log := opts.Log
	if log == nil {
		log = sblog.Discard("session")
	}
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}

	hs := handshake.NewClient(opts.Handshake)
	codec, err := hs.Run(ctx, conn)
	if err != nil {
		_ = conn.Close()
		log.Warningf("handshake failed in state %s: %v", hs.State(), err)
		return nil, err
	}
	log.Debugf("session established (%s)", codec.Suite())
	return &Client{conn: conn, codec: codec, timeout: timeout, log: log}, nil
}

// Do sends req and waits for the response. Any failure closes the session;
// later calls return domain.ErrSessionClosed.
func (c *Client) Do(ctx context.Context, req domain.Request) (domain.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrSessionClosed
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.exchange(ctx, req)
	if err != nil {
		c.log.Warningf("%s failed, closing session: %v", req.Command(), err)
		c.closeLocked()
		return nil, err
	}
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, req domain.Request) (domain.Response, error) {
	frame, err := c.codec.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Command(), err)
	}
	if err := transport.WriteMessage(ctx, c.conn, frame); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Command(), err)
	}

	var reply domain.EncryptedFrame
	if err := transport.ReadMessage(ctx, c.conn, &reply); err != nil {
		var decodeErr *transport.DecodeError
		switch {
		case errors.Is(err, io.EOF):
			return nil, fmt.Errorf("%w: server hung up", domain.ErrSessionClosed)
		case errors.As(err, &decodeErr):
			return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
		default:
			return nil, fmt.Errorf("receive %s: %w", req.Command(), err)
		}
	}

	resp, err := c.codec.DecodeResponse(reply)
	if err != nil {
		return nil, err
	}
	if resp.Command() != req.Command() {
		return nil, fmt.Errorf("%w: sent %s, got %s", ErrUnexpectedResponse, req.Command(), resp.Command())
	}
	return resp, nil
}

// Close tears the session down. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

// Closed reports whether the session is torn down.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.codec.Close()
	return c.conn.Close()
}

// Compile-time assertion that Client implements domain.Requester.
var _ domain.Requester = (*Client)(nil)
