package interfaces

import (
	"context"

	domaintypes "sibank/internal/domain/types"
)

// LedgerStore is the backing store for accounts and transactions. Every
// mutating method must be atomic with respect to concurrent callers.
type LedgerStore interface {
	// CreateAccount inserts a new account. It returns ErrDuplicateKey when the
	// account id or the username is already taken.
	CreateAccount(ctx context.Context, account domaintypes.Account) error

	AccountByID(ctx context.Context, id domaintypes.AccountID) (domaintypes.Account, bool, error)
	AccountByUsername(
		ctx context.Context,
		username domaintypes.Username,
	) (domaintypes.Account, bool, error)

	// Credit adds amount to the balance and returns the new balance. ok is
	// false when the account does not exist.
	Credit(ctx context.Context, id domaintypes.AccountID, amount int64) (balance int64, ok bool, err error)

	// Transfer debits From, credits To and appends the transaction record as
	// one unit. It returns ErrNotFound when either account is missing and,
	// when requireFunds is set, ErrInsufficientFunds if From would go negative.
	Transfer(
		ctx context.Context,
		transfer domaintypes.Transfer,
		requireFunds bool,
	) (domaintypes.Transaction, error)

	// Transactions lists every transaction where id is sender or receiver,
	// in insertion order, with counterparty names filled in.
	Transactions(ctx context.Context, id domaintypes.AccountID) ([]domaintypes.Transaction, error)

	Close() error
}

// ServerKeyStore persists the server's long-term signing identity.
type ServerKeyStore interface {
	SaveServerIdentity(passphrase string, id domaintypes.ServerIdentity) error
	LoadServerIdentity(passphrase string) (domaintypes.ServerIdentity, bool, error)
}

// KnownServerStore remembers which key fingerprint a server identity used
// the first time we saw it.
type KnownServerStore interface {
	PinServer(identity string, fingerprint domaintypes.Fingerprint) error
	PinnedServer(identity string) (domaintypes.Fingerprint, bool, error)
}
