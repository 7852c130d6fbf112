// Package crypto exposes the minimal primitives used by sibank.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Argon2id password hashing in a self-describing encoding (HashPassword,
//     VerifyPassword)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Key functions return fixed-size array types defined in internal/domain to
// avoid accidental reallocations. Callers should treat returned secrets as
// sensitive and wipe them with memzero.Zero when practical to reduce their
// lifetime in memory.
package crypto
