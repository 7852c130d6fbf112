package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sibank/internal/domain"
)

// ErrNotSignedIn is returned by operations that need a signed-in user.
var ErrNotSignedIn = errors.New("client: not signed in")

// Client runs commands over a session and keeps the resulting State.
type Client struct {
	mu    sync.Mutex
	r     domain.Requester
	state State
}

// New returns a signed-out client that sends requests through r.
func New(r domain.Requester) *Client {
	return &Client{r: r}
}

// State returns the current snapshot.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) do(ctx context.Context, req domain.Request) (domain.Response, error) {
	resp, err := c.r.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.state = Apply(c.state, req, resp)
	c.mu.Unlock()
	return resp, nil
}

func expect[T domain.Response](resp domain.Response) (T, error) {
	out, ok := resp.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("client: unexpected response %s", resp.Command())
	}
	return out, nil
}

// SignUp registers user and, on success, signs in as that user.
func (c *Client) SignUp(ctx context.Context, user domain.User) (bool, error) {
	resp, err := c.do(ctx, domain.SignUpRequest{User: user})
	if err != nil {
		return false, err
	}
	out, err := expect[domain.SignUpResponse](resp)
	return out.OK, err
}

// SignIn authenticates. A nil user means the credentials were rejected and
// the client is now signed out.
func (c *Client) SignIn(ctx context.Context, username domain.Username, password string) (*domain.User, error) {
	resp, err := c.do(ctx, domain.SignInRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	out, err := expect[domain.SignInResponse](resp)
	return out.User, err
}

// GetUser loads username. Loading the signed-in user refreshes State.
func (c *Client) GetUser(ctx context.Context, username domain.Username) (*domain.User, error) {
	resp, err := c.do(ctx, domain.GetUserRequest{Username: username})
	if err != nil {
		return nil, err
	}
	out, err := expect[domain.GetUserResponse](resp)
	return out.User, err
}

// Refresh reloads the signed-in user.
func (c *Client) Refresh(ctx context.Context) (*domain.User, error) {
	s := c.State()
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	return c.GetUser(ctx, s.User.Username)
}

// SignOut forgets the signed-in user. It does not contact the server.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
}

// AddBalance credits the signed-in account and returns the new balance.
func (c *Client) AddBalance(ctx context.Context, amount int64) (int64, bool, error) {
	s := c.State()
	if !s.SignedIn() {
		return 0, false, ErrNotSignedIn
	}
	resp, err := c.do(ctx, domain.AddBalanceRequest{AccountID: s.AccountID(), Amount: amount})
	if err != nil {
		return 0, false, err
	}
	out, err := expect[domain.AddBalanceResponse](resp)
	if err != nil || out.Balance == nil {
		return 0, false, err
	}
	return *out.Balance, true, nil
}

// CheckAccountID resolves id to the holder's name.
func (c *Client) CheckAccountID(ctx context.Context, id domain.AccountID) (string, bool, error) {
	resp, err := c.do(ctx, domain.CheckAccountIDRequest{AccountID: id})
	if err != nil {
		return "", false, err
	}
	out, err := expect[domain.CheckAccountIDResponse](resp)
	if err != nil || out.Name == nil {
		return "", false, err
	}
	return *out.Name, true, nil
}

// DoTransaction sends amount to the account to. Amounts that are not
// positive or exceed the cached balance are refused without contacting the
// server. A successful transfer refreshes State.
func (c *Client) DoTransaction(ctx context.Context, to domain.AccountID, amount int64) (bool, error) {
	s := c.State()
	if !s.SignedIn() {
		return false, ErrNotSignedIn
	}
	if amount <= 0 || amount > s.User.Balance {
		return false, nil
	}
	resp, err := c.do(ctx, domain.DoTransactionRequest{
		From:   *s.User,
		To:     domain.User{AccountID: to},
		Amount: amount,
	})
	if err != nil {
		return false, err
	}
	out, err := expect[domain.DoTransactionResponse](resp)
	if err != nil || !out.OK {
		return false, err
	}
	if _, err := c.GetUser(ctx, s.User.Username); err != nil {
		return true, fmt.Errorf("refresh after transfer: %w", err)
	}
	return true, nil
}

// GetTransactions lists the signed-in account's history, oldest first.
func (c *Client) GetTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s := c.State()
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	resp, err := c.do(ctx, domain.GetTransactionsRequest{AccountID: s.AccountID()})
	if err != nil {
		return nil, err
	}
	out, err := expect[domain.GetTransactionsResponse](resp)
	return out.Transactions, err
}
