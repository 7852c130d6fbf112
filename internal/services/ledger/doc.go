// Package ledger implements domain.LedgerService over a domain.LedgerStore.
//
// It validates input, hashes passwords with argon2id, throttles repeated
// failed sign-ins and turns store outcomes such as ErrDuplicateKey or
// ErrNotFound into ordinary false or absent results. Errors returned from
// this package are infrastructure faults.
//
// By default a transfer may overdraw the sender; set
// Options.RequireSufficientFunds to refuse it.
package ledger
