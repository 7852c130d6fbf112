package transport_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sibank/internal/transport"
)

func TestPipeSendReceive(t *testing.T) {
	a, b := transport.Pipe()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- a.Send(ctx, []byte("hello"))
	}()

	msg, err := b.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), msg)
	require.NoError(t, <-done)
}

func TestEmptyMessage(t *testing.T) {
	a, b := transport.Pipe()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	go func() { _ = a.Send(ctx, nil) }()

	msg, err := b.Receive(ctx)
	require.NoError(t, err)
	require.Empty(t, msg)
}

func TestReceiveHonoursDeadline(t *testing.T) {
	a, b := transport.Pipe()
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The stream stays usable with a fresh context.
	go func() { _ = a.Send(context.Background(), []byte("late")) }()
	msg, err := b.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("late"), msg)
}

func TestReceiveHonoursCancel(t *testing.T) {
	a, b := transport.Pipe()
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := b.Receive(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPeerCloseIsEOF(t *testing.T) {
	a, b := transport.Pipe()
	defer b.Close()
	require.NoError(t, a.Close())

	_, err := b.Receive(context.Background())
	require.True(t, errors.Is(err, io.EOF), "got %v", err)
}

func TestOversizedMessageRejected(t *testing.T) {
	a, b := transport.Pipe()
	defer a.Close()
	defer b.Close()

	err := a.Send(context.Background(), make([]byte, transport.MaxMessageSize+1))
	require.ErrorIs(t, err, transport.ErrMessageTooLarge)
}

func TestCBORMessages(t *testing.T) {
	type hello struct {
		Version int    `cbor:"version"`
		Name    string `cbor:"name"`
	}
	a, b := transport.Pipe()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	go func() { _ = transport.WriteMessage(ctx, a, hello{Version: 1, Name: "x"}) }()

	var got hello
	require.NoError(t, transport.ReadMessage(ctx, b, &got))
	require.Equal(t, hello{Version: 1, Name: "x"}, got)

	go func() { _ = a.Send(ctx, []byte{0xff, 0x00}) }()
	err := transport.ReadMessage(ctx, b, &got)
	var decodeErr *transport.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
