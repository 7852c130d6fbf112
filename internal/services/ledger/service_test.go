package ledger_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"sibank/internal/crypto"
	"sibank/internal/domain"
	"sibank/internal/instrument"
	"sibank/internal/services/ledger"
	"sibank/internal/store"
	"sibank/internal/throttle"
)

var testParams = crypto.PasswordParams{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func newService(t *testing.T, opts ledger.Options) (*ledger.Service, domain.LedgerStore) {
	t.Helper()
	st, err := store.OpenBoltLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	opts.PasswordParams = &testParams
	return ledger.New(st, opts), st
}

func signUp(t *testing.T, s *ledger.Service, id, username, name string) {
	t.Helper()
	ok, err := s.CreateAccount(context.Background(), domain.User{
		AccountID: domain.AccountID(id),
		Username:  domain.Username(username),
		Password:  "pw-" + username,
		Name:      name,
		Balance:   999,
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreateAccount(t *testing.T) {
	s, st := newService(t, ledger.Options{})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")

	acc, ok, err := st.AccountByID(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, acc.Balance, "sign-up balance is ignored")
	require.NotEqual(t, "pw-alice", acc.PasswordHash)
	require.Contains(t, acc.PasswordHash, "$argon2id$")

	ok, err = s.CreateAccount(ctx, domain.User{AccountID: "A1", Username: "other", Password: "x", Name: "X"})
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = s.CreateAccount(ctx, domain.User{AccountID: "Z9", Username: "alice", Password: "x", Name: "X"})
	require.NoError(t, err)
	require.False(t, ok)

	for _, u := range []domain.User{
		{Username: "u", Password: "p", Name: "n"},
		{AccountID: "Q1", Password: "p", Name: "n"},
		{AccountID: "Q1", Username: "u", Name: "n"},
		{AccountID: "Q1", Username: "u", Password: "p"},
		{AccountID: "Q\x001", Username: "u", Password: "p", Name: "n"},
	} {
		ok, err := s.CreateAccount(ctx, u)
		require.NoError(t, err)
		require.False(t, ok, "%+v", u)
	}
}

func TestAuthenticate(t *testing.T) {
	s, _ := newService(t, ledger.Options{})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")

	u, err := s.Authenticate(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, domain.User{AccountID: "A1", Username: "alice", Name: "Alice"}, *u)

	u, err = s.Authenticate(ctx, "alice", "wrong")
	require.NoError(t, err)
	require.Nil(t, u)

	u, err = s.Authenticate(ctx, "nobody", "pw-alice")
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestAuthenticateThrottled(t *testing.T) {
	s, _ := newService(t, ledger.Options{Limiter: throttle.NewMemory(2, time.Minute)})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")

	for i := 0; i < 2; i++ {
		u, err := s.Authenticate(ctx, "alice", "guess")
		require.NoError(t, err)
		require.Nil(t, u)
	}
	u, err := s.Authenticate(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	require.Nil(t, u, "correct password refused while throttled")
}

func TestSuccessfulSignInResetsThrottle(t *testing.T) {
	s, _ := newService(t, ledger.Options{Limiter: throttle.NewMemory(2, time.Minute)})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")

	_, _ = s.Authenticate(ctx, "alice", "guess")
	u, err := s.Authenticate(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	_, _ = s.Authenticate(ctx, "alice", "guess")
	u, err = s.Authenticate(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestLookups(t *testing.T) {
	s, _ := newService(t, ledger.Options{})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")

	u, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.AccountID("A1"), u.AccountID)
	require.Empty(t, u.Password)

	u, err = s.UserByUsername(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, u)

	name, ok, err := s.HolderName(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Alice", name)

	_, ok, err = s.HolderName(ctx, "B2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreditAccount(t *testing.T) {
	s, _ := newService(t, ledger.Options{})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")

	bal, ok, err := s.CreditAccount(ctx, "A1", 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 100, bal)

	_, ok, err = s.CreditAccount(ctx, "missing", 100)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.CreditAccount(ctx, "A1", 1<<62)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = s.CreditAccount(ctx, "A1", 1<<62)
	require.NoError(t, err)
	require.False(t, ok, "overflow is reported as absent")
}

func TestTransfer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := instrument.New(reg)
	require.NoError(t, err)

	when := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	s, _ := newService(t, ledger.Options{Metrics: m, Now: func() time.Time { return when }})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")
	signUp(t, s, "B2", "bob", "Bob")
	_, _, err = s.CreditAccount(ctx, "A1", 100)
	require.NoError(t, err)

	ok, err := s.Transfer(ctx, "A1", "B2", 30)
	require.NoError(t, err)
	require.True(t, ok)

	for _, tc := range []struct {
		from, to domain.AccountID
		amount   int64
	}{
		{"A1", "B2", 0},
		{"A1", "B2", -5},
		{"A1", "A1", 5},
		{"A1", "missing", 5},
		{"missing", "B2", 5},
	} {
		ok, err := s.Transfer(ctx, tc.from, tc.to, tc.amount)
		require.NoError(t, err)
		require.False(t, ok, "%+v", tc)
	}

	hist, err := s.ListTransactions(ctx, "B2")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, when, hist[0].Date)
	require.Equal(t, "Alice", hist[0].From.Name)
	require.Equal(t, "Bob", hist[0].To.Name)
	require.EqualValues(t, 30, hist[0].Amount)

	require.Equal(t, float64(1), counterValue(t, reg, "sibank_transfers_committed_total"))
}

// By default a sender may go negative; RequireSufficientFunds
// turns that off.
func TestOverdraft(t *testing.T) {
	ctx := context.Background()

	s, st := newService(t, ledger.Options{})
	signUp(t, s, "A1", "alice", "Alice")
	signUp(t, s, "B2", "bob", "Bob")
	ok, err := s.Transfer(ctx, "A1", "B2", 50)
	require.NoError(t, err)
	require.True(t, ok)
	acc, _, _ := st.AccountByID(ctx, "A1")
	require.EqualValues(t, -50, acc.Balance)

	strict, st2 := newService(t, ledger.Options{RequireSufficientFunds: true})
	signUp(t, strict, "A1", "alice", "Alice")
	signUp(t, strict, "B2", "bob", "Bob")
	ok, err = strict.Transfer(ctx, "A1", "B2", 50)
	require.NoError(t, err)
	require.False(t, ok)
	acc, _, _ = st2.AccountByID(ctx, "A1")
	require.Zero(t, acc.Balance)
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	s, st := newService(t, ledger.Options{})
	ctx := context.Background()
	signUp(t, s, "A1", "alice", "Alice")
	signUp(t, s, "B2", "bob", "Bob")
	_, _, err := s.CreditAccount(ctx, "A1", 500)
	require.NoError(t, err)
	_, _, err = s.CreditAccount(ctx, "B2", 500)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := domain.AccountID("A1"), domain.AccountID("B2")
			if i%2 == 1 {
				from, to = to, from
			}
			ok, err := s.Transfer(ctx, from, to, int64(i+1))
			if err != nil || !ok {
				t.Errorf("transfer %d: ok=%v err=%v", i, ok, err)
			}
		}(i)
	}
	wg.Wait()

	a, _, _ := st.AccountByID(ctx, "A1")
	b, _, _ := st.AccountByID(ctx, "B2")
	require.EqualValues(t, 1000, a.Balance+b.Balance)
	hist, err := s.ListTransactions(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, hist, 20)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
