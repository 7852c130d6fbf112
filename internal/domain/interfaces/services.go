package interfaces

import (
	"context"

	domaintypes "sibank/internal/domain/types"
)

// LedgerService is the server-side ledger as seen by the command dispatcher.
// Not-found, duplicate and wrong-password outcomes are ordinary results;
// errors are reserved for infrastructure faults.
type LedgerService interface {
	CreateAccount(ctx context.Context, user domaintypes.User) (bool, error)
	Authenticate(
		ctx context.Context,
		username domaintypes.Username,
		password string,
	) (*domaintypes.User, error)
	UserByUsername(ctx context.Context, username domaintypes.Username) (*domaintypes.User, error)
	HolderName(ctx context.Context, id domaintypes.AccountID) (string, bool, error)
	CreditAccount(ctx context.Context, id domaintypes.AccountID, amount int64) (int64, bool, error)
	Transfer(
		ctx context.Context,
		from domaintypes.AccountID,
		to domaintypes.AccountID,
		amount int64,
	) (bool, error)
	ListTransactions(ctx context.Context, id domaintypes.AccountID) ([]domaintypes.Transaction, error)
}

// Requester sends one command over an established session and waits for
// the matching response.
type Requester interface {
	Do(ctx context.Context, request domaintypes.Request) (domaintypes.Response, error)
}

// CertificateSource hands the client the server certificate out of band.
type CertificateSource interface {
	FetchCertificate(ctx context.Context) (domaintypes.Certificate, error)
}

// Limiter counts failures per key inside a sliding window.
type Limiter interface {
	Allowed(ctx context.Context, key string) (bool, error)
	Failed(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
