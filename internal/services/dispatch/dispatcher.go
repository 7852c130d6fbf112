package dispatch

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/op/go-logging.v1"

	"sibank/internal/domain"
	"sibank/internal/instrument"
	sblog "sibank/internal/log"
)

// Caller is the principal signed in on a session. The zero value is an
// anonymous session.
type Caller struct {
	AccountID domain.AccountID
	Username  domain.Username
}

// SignedIn reports whether a user has signed in.
func (c Caller) SignedIn() bool { return c.AccountID != "" }

func (c Caller) owns(id domain.AccountID) bool { return c.SignedIn() && c.AccountID == id }

func callerOf(u domain.User) Caller { return Caller{AccountID: u.AccountID, Username: u.Username} }

// Dispatcher routes requests to a LedgerService.
type Dispatcher struct {
	ledger  domain.LedgerService
	metrics *instrument.Metrics
	log     *logging.Logger
}

// New returns a dispatcher. metrics and log may be nil.
func New(ledger domain.LedgerService, metrics *instrument.Metrics, log *logging.Logger) *Dispatcher {
	if log == nil {
		log = sblog.Discard("dispatch")
	}
	return &Dispatcher{ledger: ledger, metrics: metrics, log: log}
}

// Dispatch runs one request for caller and returns the response together
// with the caller for the next request. Errors are infrastructure faults;
// ordinary negative outcomes are encoded in the response.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	caller Caller,
	req domain.Request,
) (domain.Response, Caller, error) {
	start := time.Now()
	resp, next, positive, err := d.dispatch(ctx, caller, req)

	outcome := instrument.OutcomeOK
	switch {
	case err != nil:
		outcome = instrument.OutcomeError
	case !positive:
		outcome = instrument.OutcomeRejected
	}
	d.metrics.Command(req.Command().String(), outcome, time.Since(start))
	if err != nil {
		return nil, caller, fmt.Errorf("dispatch %s: %w", req.Command(), err)
	}
	d.log.Debugf("%s -> %s", req.Command(), outcome)
	return resp, next, nil
}

func (d *Dispatcher) dispatch(
	ctx context.Context,
	caller Caller,
	req domain.Request,
) (resp domain.Response, next Caller, positive bool, err error) {
	next = caller
	switch r := req.(type) {
	case domain.SignUpRequest:
		ok, err := d.ledger.CreateAccount(ctx, r.User)
		if err != nil {
			return nil, caller, false, err
		}
		if ok {
			next = callerOf(r.User)
		}
		return domain.SignUpResponse{OK: ok}, next, ok, nil

	case domain.SignInRequest:
		user, err := d.ledger.Authenticate(ctx, r.Username, r.Password)
		if err != nil {
			return nil, caller, false, err
		}
		if user == nil {
			return domain.SignInResponse{}, Caller{}, false, nil
		}
		return domain.SignInResponse{User: user}, callerOf(*user), true, nil

	case domain.GetUserRequest:
		if !caller.SignedIn() || caller.Username != r.Username {
			return domain.GetUserResponse{}, next, false, nil
		}
		user, err := d.ledger.UserByUsername(ctx, r.Username)
		if err != nil {
			return nil, caller, false, err
		}
		return domain.GetUserResponse{User: user}, next, user != nil, nil

	case domain.AddBalanceRequest:
		if !caller.owns(r.AccountID) {
			return domain.AddBalanceResponse{}, next, false, nil
		}
		balance, ok, err := d.ledger.CreditAccount(ctx, r.AccountID, r.Amount)
		if err != nil {
			return nil, caller, false, err
		}
		if !ok {
			return domain.AddBalanceResponse{}, next, false, nil
		}
		return domain.AddBalanceResponse{Balance: &balance}, next, true, nil

	case domain.CheckAccountIDRequest:
		name, ok, err := d.ledger.HolderName(ctx, r.AccountID)
		if err != nil {
			return nil, caller, false, err
		}
		if !ok {
			return domain.CheckAccountIDResponse{}, next, false, nil
		}
		return domain.CheckAccountIDResponse{Name: &name}, next, true, nil

	case domain.DoTransactionRequest:
		if !caller.owns(r.From.AccountID) {
			return domain.DoTransactionResponse{}, next, false, nil
		}
		ok, err := d.ledger.Transfer(ctx, r.From.AccountID, r.To.AccountID, r.Amount)
		if err != nil {
			return nil, caller, false, err
		}
		return domain.DoTransactionResponse{OK: ok}, next, ok, nil

	case domain.GetTransactionsRequest:
		if !caller.owns(r.AccountID) {
			return domain.GetTransactionsResponse{Transactions: []domain.Transaction{}}, next, false, nil
		}
		txs, err := d.ledger.ListTransactions(ctx, r.AccountID)
		if err != nil {
			return nil, caller, false, err
		}
		return domain.GetTransactionsResponse{Transactions: txs}, next, true, nil
	}
	return nil, caller, false, fmt.Errorf("unsupported request %T", req)
}
