// Package trust holds the server's long-term identity and the self-signed
// certificate clients verify before any key exchange.
//
// A certificate binds an identity string to an Ed25519 public key by signing
// the identity with the matching private key. Verification is
// self-certifying: it proves possession of the key, not who owns it. A
// Verifier can additionally require a specific identity string and pin the
// key fingerprint on first use so a later key change is refused.
//
// The same long-term key signs the handshake transcript, which binds the
// ephemeral exchange to the certified identity.
package trust
