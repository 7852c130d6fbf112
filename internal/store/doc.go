// Package store provides persistence for sibank.
//
// Ledger stores (domain.LedgerStore):
//   - BoltLedger, an embedded bbolt database. Accounts, the username index,
//     transactions and a per-account history index live in separate buckets;
//     every mutation is one read-write transaction.
//   - PostgresLedger, on sqlx and lib/pq. The schema is applied from the
//     embedded migrations directory under an advisory lock.
//
// File stores, serialising JSON on disk with atomic replace:
//   - ServerKeyFileStore, the server signing identity sealed with a
//     passphrase (scrypt + XChaCha20-Poly1305).
//   - KnownServerFileStore, fingerprint pins for trust on first use.
//
// All stores are safe for concurrent use.
package store
