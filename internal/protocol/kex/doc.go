// Package kex implements the ephemeral key agreement used by the handshake.
//
// Two groups are supported: X25519 (the default) and the 2048-bit MODP group
// from RFC 3526 (group 14, generator 2). A public key carries its group so a
// server can derive compatible parameters from the client's key alone
// (GenerateFor). Malformed or out-of-range peer keys are rejected with an
// error wrapping domain.ErrHandshake.
//
// Key pairs are single use. Call Wipe once the shared secret is derived.
package kex
