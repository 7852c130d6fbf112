// Package identity manages the server's long-term signing identity.
//
// It enforces the passphrase policy, generates the Ed25519 key behind the
// server certificate, persists it encrypted via domain.ServerKeyStore and
// hands back a ready trust.Anchor.
package identity
