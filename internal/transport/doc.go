// Package transport models the duplex byte channel between a client and a
// server endpoint.
//
// A Conn moves whole messages. Stream implements Conn over any
// io.ReadWriteCloser with a 4-byte big-endian length prefix, so a TCP
// connection, a Unix socket or the in-process Pipe can be substituted without
// touching protocol code. Context deadlines and cancellation are mapped onto
// connection deadlines when the underlying stream supports them.
//
// WriteMessage and ReadMessage layer CBOR encoding on top for structured
// handshake and frame messages.
package transport
