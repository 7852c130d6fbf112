package transport

import (
	"context"

	"github.com/fxamacker/cbor/v2"
)

// WriteMessage CBOR-encodes v and sends it as one message.
func WriteMessage(ctx context.Context, c Conn, v any) error {
	b, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(ctx, b)
}

// ReadMessage receives one message and CBOR-decodes it into v. Transport
// errors are returned unchanged; decode errors are returned as *DecodeError
// so callers can map them onto their own failure class.
func ReadMessage(ctx context.Context, c Conn, v any) error {
	b, err := c.Receive(ctx)
	if err != nil {
		return err
	}
	if err := cbor.Unmarshal(b, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// DecodeError wraps a malformed message.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "transport: decode message: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }
