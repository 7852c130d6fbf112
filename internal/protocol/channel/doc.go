// Package channel is the secure channel codec: it seals plaintext messages
// into EncryptedFrames under the session key and opens them again.
//
// The session key is derived with HKDF-SHA256 from the handshake secret,
// using the handshake transcript as salt and the suite name in the info
// string. Each frame carries its non-secret parameters (suite, a fresh
// random nonce and a sequence number) next to the ciphertext. The
// additional data binds the sender's role and the sequence number, so a
// reflected, replayed, reordered or altered frame fails to open.
//
// Any failure to open or parse a frame closes the codec and wipes the key;
// every later call returns domain.ErrSessionClosed.
package channel
