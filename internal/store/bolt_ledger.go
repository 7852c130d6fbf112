package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"sibank/internal/domain"
)

const (
	metadataBucket     = "metadata"
	accountsBucket     = "accounts"
	usernamesBucket    = "usernames"
	transactionsBucket = "transactions"
	historyBucket      = "history"

	versionKey    = "version"
	ledgerVersion = 0
)

var errSelfTransfer = errors.New("store: transfer to the same account")

// storedTransaction is the on-disk transaction record. Names are resolved
// at read time.
type storedTransaction struct {
	Date   int64            `cbor:"date"`
	From   domain.AccountID `cbor:"from"`
	To     domain.AccountID `cbor:"to"`
	Amount int64            `cbor:"amount"`
}

// BoltLedger is an embedded LedgerStore. Each mutation runs in a single bbolt
// read-write transaction, and bbolt admits one writer at a time, so
// transfers are atomic and serialized.
type BoltLedger struct {
	db *bolt.DB
}

// OpenBoltLedger opens or creates the ledger database at path.
func OpenBoltLedger(path string) (*BoltLedger, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open ledger: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		for _, name := range []string{accountsBucket, usernamesBucket, transactionsBucket, historyBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		if b := meta.Get([]byte(versionKey)); b != nil {
			if len(b) != 1 || b[0] != ledgerVersion {
				return fmt.Errorf("store: incompatible ledger version %v", b)
			}
			return nil
		}
		return meta.Put([]byte(versionKey), []byte{ledgerVersion})
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltLedger{db: db}, nil
}

// CreateAccount inserts account unless its id or username is taken.
func (l *BoltLedger) CreateAccount(_ context.Context, account domain.Account) error {
	raw, err := cbor.Marshal(account)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket([]byte(accountsBucket))
		usernames := tx.Bucket([]byte(usernamesBucket))

		if accounts.Get([]byte(account.AccountID)) != nil || usernames.Get([]byte(account.Username)) != nil {
			return domain.ErrDuplicateKey
		}
		if err := accounts.Put([]byte(account.AccountID), raw); err != nil {
			return err
		}
		return usernames.Put([]byte(account.Username), []byte(account.AccountID))
	})
}

// AccountByID loads an account.
func (l *BoltLedger) AccountByID(_ context.Context, id domain.AccountID) (domain.Account, bool, error) {
	var (
		acc domain.Account
		ok  bool
	)
	err := l.db.View(func(tx *bolt.Tx) error {
		var err error
		acc, ok, err = getAccount(tx, id)
		return err
	})
	return acc, ok, err
}

// AccountByUsername loads an account through the username index.
func (l *BoltLedger) AccountByUsername(_ context.Context, username domain.Username) (domain.Account, bool, error) {
	var (
		acc domain.Account
		ok  bool
	)
	err := l.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(usernamesBucket)).Get([]byte(username))
		if id == nil {
			return nil
		}
		var err error
		acc, ok, err = getAccount(tx, domain.AccountID(id))
		return err
	})
	return acc, ok, err
}

// Credit adds amount to the account balance.
func (l *BoltLedger) Credit(_ context.Context, id domain.AccountID, amount int64) (int64, bool, error) {
	var (
		balance int64
		ok      bool
	)
	err := l.db.Update(func(tx *bolt.Tx) error {
		acc, found, err := getAccount(tx, id)
		if err != nil || !found {
			return err
		}
		if acc.Balance, err = addBalance(acc.Balance, amount); err != nil {
			return err
		}
		if err := putAccount(tx, acc); err != nil {
			return err
		}
		balance, ok = acc.Balance, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return balance, ok, nil
}

// Transfer moves the amount and appends the transaction in one bbolt
// transaction.
func (l *BoltLedger) Transfer(
	_ context.Context,
	t domain.Transfer,
	requireFunds bool,
) (domain.Transaction, error) {
	if t.From == t.To {
		return domain.Transaction{}, errSelfTransfer
	}
	var out domain.Transaction
	err := l.db.Update(func(tx *bolt.Tx) error {
		from, ok, err := getAccount(tx, t.From)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, t.From)
		}
		to, ok, err := getAccount(tx, t.To)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, t.To)
		}
		if requireFunds && from.Balance < t.Amount {
			return domain.ErrInsufficientFunds
		}
		if from.Balance, err = addBalance(from.Balance, -t.Amount); err != nil {
			return err
		}
		if to.Balance, err = addBalance(to.Balance, t.Amount); err != nil {
			return err
		}
		if err := putAccount(tx, from); err != nil {
			return err
		}
		if err := putAccount(tx, to); err != nil {
			return err
		}

		txs := tx.Bucket([]byte(transactionsBucket))
		seq, err := txs.NextSequence()
		if err != nil {
			return err
		}
		raw, err := cbor.Marshal(storedTransaction{
			Date:   t.Date.UnixNano(),
			From:   t.From,
			To:     t.To,
			Amount: t.Amount,
		})
		if err != nil {
			return err
		}
		if err := txs.Put(seqKey(seq), raw); err != nil {
			return err
		}
		history := tx.Bucket([]byte(historyBucket))
		if err := history.Put(historyKey(t.From, seq), nil); err != nil {
			return err
		}
		if err := history.Put(historyKey(t.To, seq), nil); err != nil {
			return err
		}

		out = domain.Transaction{
			ID:     int64(seq),
			Date:   time.Unix(0, t.Date.UnixNano()).UTC(),
			From:   domain.Counterparty{AccountID: from.AccountID, Name: from.Name},
			To:     domain.Counterparty{AccountID: to.AccountID, Name: to.Name},
			Amount: t.Amount,
		}
		return nil
	})
	return out, err
}

// Transactions lists every transaction touching id in insertion order.
func (l *BoltLedger) Transactions(_ context.Context, id domain.AccountID) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	err := l.db.View(func(tx *bolt.Tx) error {
		txs := tx.Bucket([]byte(transactionsBucket))
		names := make(map[domain.AccountID]string)
		name := func(id domain.AccountID) (string, error) {
			if n, ok := names[id]; ok {
				return n, nil
			}
			acc, _, err := getAccount(tx, id)
			if err != nil {
				return "", err
			}
			names[id] = acc.Name
			return acc.Name, nil
		}

		prefix := historyPrefix(id)
		c := tx.Bucket([]byte(historyBucket)).Cursor()
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			seq := binary.BigEndian.Uint64(k[len(prefix):])
			raw := txs.Get(seqKey(seq))
			if raw == nil {
				return fmt.Errorf("store: history references missing transaction %d", seq)
			}
			var st storedTransaction
			if err := cbor.Unmarshal(raw, &st); err != nil {
				return err
			}
			fromName, err := name(st.From)
			if err != nil {
				return err
			}
			toName, err := name(st.To)
			if err != nil {
				return err
			}
			out = append(out, domain.Transaction{
				ID:     int64(seq),
				Date:   time.Unix(0, st.Date).UTC(),
				From:   domain.Counterparty{AccountID: st.From, Name: fromName},
				To:     domain.Counterparty{AccountID: st.To, Name: toName},
				Amount: st.Amount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close flushes and closes the database.
func (l *BoltLedger) Close() error {
	return l.db.Close()
}

func getAccount(tx *bolt.Tx, id domain.AccountID) (domain.Account, bool, error) {
	raw := tx.Bucket([]byte(accountsBucket)).Get([]byte(id))
	if raw == nil {
		return domain.Account{}, false, nil
	}
	var acc domain.Account
	if err := cbor.Unmarshal(raw, &acc); err != nil {
		return domain.Account{}, false, fmt.Errorf("store: decode account %s: %w", id, err)
	}
	return acc, true, nil
}

func putAccount(tx *bolt.Tx, acc domain.Account) error {
	raw, err := cbor.Marshal(acc)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(accountsBucket)).Put([]byte(acc.AccountID), raw)
}

func addBalance(balance, amount int64) (int64, error) {
	if (amount > 0 && balance > math.MaxInt64-amount) || (amount < 0 && balance < math.MinInt64-amount) {
		return 0, domain.ErrBalanceOverflow
	}
	return balance + amount, nil
}

func seqKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}

// History keys are accountID || 0x00 || seq, so a prefix scan yields one
// account's transactions in insertion order.
func historyPrefix(id domain.AccountID) []byte {
	return append([]byte(id), 0)
}

func historyKey(id domain.AccountID, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(historyPrefix(id), seq)
}

func hasPrefix(k, prefix []byte) bool {
	return len(k) == len(prefix)+8 && string(k[:len(prefix)]) == string(prefix)
}

var _ domain.LedgerStore = (*BoltLedger)(nil)
