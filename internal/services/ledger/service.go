package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"

	"gopkg.in/op/go-logging.v1"

	"sibank/internal/crypto"
	"sibank/internal/domain"
	"sibank/internal/instrument"
	sblog "sibank/internal/log"
)

// Options tune the service. The zero value is usable.
type Options struct {
	RequireSufficientFunds bool
	// PasswordParams defaults to crypto.DefaultPasswordParams.
	PasswordParams *crypto.PasswordParams
	Limiter        domain.Limiter
	Metrics        *instrument.Metrics
	Log            *logging.Logger
	Now            func() time.Time
}

// Service is the server-side ledger.
type Service struct {
	store domain.LedgerStore
	opts  Options
	log   *logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// New returns a ledger service over store.
func New(store domain.LedgerStore, opts Options) *Service {
	if opts.PasswordParams == nil {
		p := crypto.DefaultPasswordParams
		opts.PasswordParams = &p
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = sblog.Discard("ledger")
	}
	return &Service{store: store, opts: opts, log: log}
}

// CreateAccount registers user with a zero balance. It returns false when the
// input is invalid or the account id or username is taken.
func (s *Service) CreateAccount(ctx context.Context, user domain.User) (bool, error) {
	if err := validateUser(user); err != nil {
		s.log.Infof("sign-up rejected: %v", err)
		return false, nil
	}
	hash, err := crypto.HashPassword(user.Password, *s.opts.PasswordParams)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	err = s.store.CreateAccount(ctx, domain.Account{
		AccountID:    user.AccountID,
		Username:     user.Username,
		PasswordHash: hash,
		Name:         user.Name,
	})
	if errors.Is(err, domain.ErrDuplicateKey) {
		s.log.Infof("sign-up rejected: account %s or username %s exists", user.AccountID, user.Username)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.Noticef("account %s created", user.AccountID)
	return true, nil
}

// Authenticate returns the user without password when the credentials match,
// or nil. Unknown users and wrong passwords are indistinguishable.
func (s *Service) Authenticate(
	ctx context.Context,
	username domain.Username,
	password string,
) (*domain.User, error) {
	key := username.String()
	if s.opts.Limiter != nil {
		ok, err := s.opts.Limiter.Allowed(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("throttle: %w", err)
		}
		if !ok {
			s.log.Warningf("sign-in for %s throttled", username)
			return nil, nil
		}
	}

	acc, found, err := s.store.AccountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	hash := acc.PasswordHash
	if !found {
		hash = s.dummy()
	}
	match, err := crypto.VerifyPassword(password, hash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !found || !match {
		s.log.Infof("sign-in for %s failed", username)
		if s.opts.Limiter != nil {
			if err := s.opts.Limiter.Failed(ctx, key); err != nil {
				return nil, fmt.Errorf("throttle: %w", err)
			}
		}
		return nil, nil
	}
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Reset(ctx, key); err != nil {
			return nil, fmt.Errorf("throttle: %w", err)
		}
	}
	user := acc.User()
	return &user, nil
}

// UserByUsername loads a user without password, or nil.
func (s *Service) UserByUsername(ctx context.Context, username domain.Username) (*domain.User, error) {
	acc, ok, err := s.store.AccountByUsername(ctx, username)
	if err != nil || !ok {
		return nil, err
	}
	user := acc.User()
	return &user, nil
}

// HolderName returns the display name on an account.
func (s *Service) HolderName(ctx context.Context, id domain.AccountID) (string, bool, error) {
	acc, ok, err := s.store.AccountByID(ctx, id)
	if err != nil || !ok {
		return "", false, err
	}
	return acc.Name, true, nil
}

// CreditAccount adds amount, which may be negative, and returns the new
// balance. ok is false for unknown accounts and out-of-range results.
func (s *Service) CreditAccount(ctx context.Context, id domain.AccountID, amount int64) (int64, bool, error) {
	balance, ok, err := s.store.Credit(ctx, id, amount)
	if errors.Is(err, domain.ErrBalanceOverflow) {
		s.log.Warningf("credit of %d to %s out of range", amount, id)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if ok {
		s.log.Infof("account %s credited %d", id, amount)
	}
	return balance, ok, nil
}

// Transfer moves amount from one account to another and records it. It
// returns false for non-positive amounts, self transfers, unknown accounts
// and, when funds are required, an insufficient balance.
func (s *Service) Transfer(
	ctx context.Context,
	from domain.AccountID,
	to domain.AccountID,
	amount int64,
) (bool, error) {
	if amount <= 0 || from == to {
		s.log.Infof("transfer %s -> %s of %d rejected", from, to, amount)
		return false, nil
	}
	tx, err := s.store.Transfer(ctx, domain.Transfer{
		From:   from,
		To:     to,
		Amount: amount,
		Date:   s.opts.Now().UTC().Truncate(time.Microsecond),
	}, s.opts.RequireSufficientFunds)
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrBalanceOverflow):
		s.log.Infof("transfer %s -> %s of %d rejected: %v", from, to, amount, err)
		return false, nil
	case err != nil:
		return false, err
	}
	s.opts.Metrics.Transfer(amount)
	s.log.Noticef("transaction %d committed", tx.ID)
	return true, nil
}

// ListTransactions returns the history of id, oldest first.
func (s *Service) ListTransactions(ctx context.Context, id domain.AccountID) ([]domain.Transaction, error) {
	return s.store.Transactions(ctx, id)
}

// dummy returns the hash verified in place of a stored one for unknown users.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = crypto.HashPassword("sibank-unknown-user", *s.opts.PasswordParams)
	})
	return s.dummyHash
}

var errInvalidUser = errors.New("invalid user")

func validateUser(u domain.User) error {
	switch {
	case !validToken(string(u.AccountID)):
		return fmt.Errorf("%w: account id", errInvalidUser)
	case !validToken(string(u.Username)):
		return fmt.Errorf("%w: username", errInvalidUser)
	case u.Password == "":
		return fmt.Errorf("%w: empty password", errInvalidUser)
	case u.Name == "":
		return fmt.Errorf("%w: empty name", errInvalidUser)
	}
	return nil
}

// validToken accepts non-empty identifiers without control characters.
func validToken(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

var _ domain.LedgerService = (*Service)(nil)
