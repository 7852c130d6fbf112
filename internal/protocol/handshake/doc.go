// Package handshake establishes the session key between a client and the
// server.
//
// Client: INIT -> CERT_VERIFIED -> KEY_EXCHANGED -> READY
//
//  1. Fetch the server certificate and verify it. Nothing is sent when
//     verification fails.
//  2. Generate an ephemeral key pair and send ClientHello.
//  3. Receive ServerHello, check the transcript signature against the
//     certificate key, agree on the secret and derive the channel codec.
//
// Server: INIT -> KEY_EXCHANGED -> READY
//
//  1. Receive ClientHello and generate a key pair in the client's group.
//  2. Agree on the secret, sign the transcript and send ServerHello.
//
// Ephemeral private keys and the raw secret are wiped as soon as the codec
// is derived. Any failure moves the engine to FAILED; it cannot be reused.
//
// The steps are exposed as pure methods (VerifyServer, Hello, Finish,
// Respond) and driven over a transport.Conn by Run.
package handshake
