package store_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sibank/internal/domain"
	"sibank/internal/store"
)

func account(id, username, name string, balance int64) domain.Account {
	return domain.Account{
		AccountID:    domain.AccountID(id),
		Username:     domain.Username(username),
		PasswordHash: "hash-" + username,
		Name:         name,
		Balance:      balance,
	}
}

func transfer(from, to string, amount int64) domain.Transfer {
	return domain.Transfer{
		From:   domain.AccountID(from),
		To:     domain.AccountID(to),
		Amount: amount,
		Date:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// runLedgerSuite checks the LedgerStore contract against a fresh store.
func runLedgerSuite(t *testing.T, open func(t *testing.T) domain.LedgerStore) {
	t.Run("CreateAndLoad", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 0)))

		got, ok, err := l.AccountByID(ctx, "A1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, account("A1", "alice", "Alice", 0), got)

		got, ok, err = l.AccountByUsername(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, domain.AccountID("A1"), got.AccountID)

		_, ok, err = l.AccountByID(ctx, "nope")
		require.NoError(t, err)
		require.False(t, ok)
		_, ok, err = l.AccountByUsername(ctx, "nobody")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 0)))

		err := l.CreateAccount(ctx, account("A1", "other", "Other", 0))
		require.ErrorIs(t, err, domain.ErrDuplicateKey)
		err = l.CreateAccount(ctx, account("Z9", "alice", "Other", 0))
		require.ErrorIs(t, err, domain.ErrDuplicateKey)

		got, _, err := l.AccountByID(ctx, "A1")
		require.NoError(t, err)
		require.Equal(t, "Alice", got.Name)
		_, ok, err := l.AccountByID(ctx, "Z9")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("Credit", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 0)))

		bal, ok, err := l.Credit(ctx, "A1", 100)
		require.NoError(t, err)
		require.True(t, ok)
		require.EqualValues(t, 100, bal)

		bal, ok, err = l.Credit(ctx, "A1", -130)
		require.NoError(t, err)
		require.True(t, ok)
		require.EqualValues(t, -30, bal)

		_, ok, err = l.Credit(ctx, "missing", 5)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("TransferAndHistory", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 100)))
		require.NoError(t, l.CreateAccount(ctx, account("B2", "bob", "Bob", 0)))
		require.NoError(t, l.CreateAccount(ctx, account("C3", "carol", "Carol", 0)))

		tx1, err := l.Transfer(ctx, transfer("A1", "B2", 30), false)
		require.NoError(t, err)
		require.Equal(t, "Alice", tx1.From.Name)
		require.Equal(t, "Bob", tx1.To.Name)
		_, err = l.Transfer(ctx, transfer("B2", "C3", 10), false)
		require.NoError(t, err)
		_, err = l.Transfer(ctx, transfer("A1", "C3", 5), false)
		require.NoError(t, err)

		a, _, _ := l.AccountByID(ctx, "A1")
		b, _, _ := l.AccountByID(ctx, "B2")
		c, _, _ := l.AccountByID(ctx, "C3")
		require.EqualValues(t, 65, a.Balance)
		require.EqualValues(t, 20, b.Balance)
		require.EqualValues(t, 15, c.Balance)

		hist, err := l.Transactions(ctx, "B2")
		require.NoError(t, err)
		require.Len(t, hist, 2)
		require.Equal(t, tx1.ID, hist[0].ID)
		require.Equal(t, domain.Counterparty{AccountID: "A1", Name: "Alice"}, hist[0].From)
		require.Equal(t, domain.Counterparty{AccountID: "C3", Name: "Carol"}, hist[1].To)
		require.Less(t, hist[0].ID, hist[1].ID)

		hist, err = l.Transactions(ctx, "A1")
		require.NoError(t, err)
		require.Len(t, hist, 2)

		hist, err = l.Transactions(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, hist)
	})

	t.Run("TransferFailuresChangeNothing", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 10)))
		require.NoError(t, l.CreateAccount(ctx, account("B2", "bob", "Bob", 0)))

		_, err := l.Transfer(ctx, transfer("A1", "missing", 5), false)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = l.Transfer(ctx, transfer("missing", "A1", 5), false)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = l.Transfer(ctx, transfer("A1", "B2", 11), true)
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)

		a, _, _ := l.AccountByID(ctx, "A1")
		require.EqualValues(t, 10, a.Balance)
		hist, err := l.Transactions(ctx, "A1")
		require.NoError(t, err)
		require.Empty(t, hist)
	})

	t.Run("OverdraftWithoutRequireFunds", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 10)))
		require.NoError(t, l.CreateAccount(ctx, account("B2", "bob", "Bob", 0)))

		_, err := l.Transfer(ctx, transfer("A1", "B2", 25), false)
		require.NoError(t, err)
		a, _, _ := l.AccountByID(ctx, "A1")
		require.EqualValues(t, -15, a.Balance)
	})

	t.Run("ConcurrentTransfersConserveTotal", func(t *testing.T) {
		l := open(t)
		ctx := context.Background()
		ids := []string{"A1", "B2", "C3", "D4"}
		for i, id := range ids {
			require.NoError(t, l.CreateAccount(ctx, account(id, "user"+id, "User "+id, int64(1000*(i+1)))))
		}

		const workers, rounds = 8, 25
		var wg sync.WaitGroup
		errs := make(chan error, workers*rounds)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for r := 0; r < rounds; r++ {
					from := ids[(w+r)%len(ids)]
					to := ids[(w+r+1)%len(ids)]
					if _, err := l.Transfer(ctx, transfer(from, to, int64(1+r%7)), false); err != nil {
						errs <- err
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var total int64
		seen := make(map[int64]bool)
		for _, id := range ids {
			acc, _, err := l.AccountByID(ctx, domain.AccountID(id))
			require.NoError(t, err)
			total += acc.Balance

			hist, err := l.Transactions(ctx, domain.AccountID(id))
			require.NoError(t, err)
			for _, tx := range hist {
				seen[tx.ID] = true
			}
		}
		require.EqualValues(t, 10000, total)
		require.Len(t, seen, workers*rounds)
	})
}

func TestBoltLedger(t *testing.T) {
	runLedgerSuite(t, func(t *testing.T) domain.LedgerStore {
		l, err := store.OpenBoltLedger(filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })
		return l
	})
}

func TestBoltLedgerReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := store.OpenBoltLedger(path)
	require.NoError(t, err)
	require.NoError(t, l.CreateAccount(ctx, account("A1", "alice", "Alice", 5)))
	require.NoError(t, l.Close())

	l, err = store.OpenBoltLedger(path)
	require.NoError(t, err)
	defer l.Close()
	got, ok, err := l.AccountByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 5, got.Balance)
}

func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("SIBANK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SIBANK_TEST_POSTGRES_DSN not set")
	}
	runLedgerSuite(t, func(t *testing.T) domain.LedgerStore {
		ctx := context.Background()
		l, err := store.OpenPostgresLedger(ctx, dsn)
		require.NoError(t, err)
		require.NoError(t, l.Reset(ctx))
		t.Cleanup(func() { _ = l.Close() })
		return l
	})
}

// A second server must be able to migrate while the first is still running,
// which only holds if the first released its advisory lock.
func TestPostgresMigrationLockReleased(t *testing.T) {
	dsn := os.Getenv("SIBANK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SIBANK_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := store.OpenPostgresLedger(ctx, dsn)
	require.NoError(t, err)
	defer first.Close()

	second, err := store.OpenPostgresLedger(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestMigrationsEmbedded(t *testing.T) {
	m, err := store.Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, m)
	require.Contains(t, m[0], "CREATE TABLE IF NOT EXISTS accounts")
}
