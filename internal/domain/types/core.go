package types

// Username is the unique login name of an account holder.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// AccountID is the primary key of a ledger account.
type AccountID string

// String returns the string form of the account identifier.
func (id AccountID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SessionID identifies one client session on the server side.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }
