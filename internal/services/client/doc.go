// Package client is the client-side counterpart of the dispatcher.
//
// State is an immutable snapshot of what the client knows about the signed
// in user. Apply computes the next snapshot from a request and its response
// and does no I/O; Client wraps it around a session and exposes one method
// per command for the presentation layer.
package client
