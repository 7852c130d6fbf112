package domain

import "errors"

// Fatal protocol errors. Any of these ends the session.
var (
	// ErrTrust means the server certificate or transcript signature did not verify.
	ErrTrust = errors.New("server cannot be verified")
	// ErrHandshake means the peer sent malformed or incompatible key material.
	ErrHandshake = errors.New("handshake failed")
	// ErrDecryption means a frame failed to decrypt or parse.
	ErrDecryption = errors.New("frame decryption failed")
	// ErrSessionClosed is returned by every call on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
)

// Ledger outcomes. Stores return these; the ledger service turns them into
// absent or false results before they reach the dispatcher.
var (
	ErrDuplicateKey      = errors.New("account id or username already exists")
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance out of range")
)
