package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// MaxMessageSize bounds a single message on the wire.
const MaxMessageSize = 1 << 20

var (
	// ErrMessageTooLarge is returned for messages above MaxMessageSize.
	ErrMessageTooLarge = errors.New("transport: message too large")
)

// Conn is one endpoint of a duplex, message-oriented byte channel.
type Conn interface {
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Stream frames messages over a byte stream.
type Stream struct {
	rwc io.ReadWriteCloser

	rmu sync.Mutex
	wmu sync.Mutex
}

// NewStream wraps rwc. The Stream owns rwc and closes it on Close.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	return &Stream{rwc: rwc}
}

// Pipe returns two connected in-process endpoints.
func Pipe() (Conn, Conn) {
	a, b := net.Pipe()
	return NewStream(a), NewStream(b)
}

// Send writes msg as one length-prefixed message.
func (s *Stream) Send(ctx context.Context, msg []byte) error {
	if len(msg) > MaxMessageSize {
		return ErrMessageTooLarge
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	release := s.bind(ctx, func(d deadliner, t time.Time) error { return d.SetWriteDeadline(t) })
	defer release()

	buf := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(msg)))
	copy(buf[4:], msg)
	if _, err := s.rwc.Write(buf); err != nil {
		return contextError(ctx, fmt.Errorf("transport: write: %w", err))
	}
	return nil
}

// Receive reads the next message. It returns io.EOF when the peer closed the
// stream cleanly between messages.
func (s *Stream) Receive(ctx context.Context) ([]byte, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	release := s.bind(ctx, func(d deadliner, t time.Time) error { return d.SetReadDeadline(t) })
	defer release()

	var hdr [4]byte
	if _, err := io.ReadFull(s.rwc, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, contextError(ctx, fmt.Errorf("transport: read header: %w", err))
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(s.rwc, msg); err != nil {
		return nil, contextError(ctx, fmt.Errorf("transport: read body: %w", err))
	}
	return msg, nil
}

// Close closes the underlying stream.
func (s *Stream) Close() error {
	return s.rwc.Close()
}

// bind maps ctx onto the stream deadline set by set. The returned release
// func must be called once the I/O finishes.
func (s *Stream) bind(ctx context.Context, set func(deadliner, time.Time) error) func() {
	d, ok := s.rwc.(deadliner)
	if !ok {
		return func() {}
	}
	deadline, _ := ctx.Deadline()
	_ = set(d, deadline)

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = set(d, time.Unix(1, 0))
	})
	return func() {
		if !stop() {
			<-fired
		}
		_ = set(d, time.Time{})
	}
}

func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

var _ Conn = (*Stream)(nil)
