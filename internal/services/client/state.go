package client

import "sibank/internal/domain"

// State is the client's view of the session. The zero value is signed out.
type State struct {
	// User is the signed-in user without password, or nil.
	User *domain.User
}

// SignedIn reports whether a user is signed in.
func (s State) SignedIn() bool { return s.User != nil }

// AccountID returns the signed-in account, or "".
func (s State) AccountID() domain.AccountID {
	if s.User == nil {
		return ""
	}
	return s.User.AccountID
}

func signedIn(u domain.User) State {
	u = u.WithoutPassword()
	return State{User: &u}
}

// Apply returns the state that follows resp to req. Responses that do not
// belong to req leave the state unchanged.
func Apply(s State, req domain.Request, resp domain.Response) State {
	switch r := req.(type) {
	case domain.SignUpRequest:
		if out, ok := resp.(domain.SignUpResponse); ok && out.OK {
			u := r.User
			u.Balance = 0
			return signedIn(u)
		}

	case domain.SignInRequest:
		if out, ok := resp.(domain.SignInResponse); ok {
			if out.User == nil {
				return State{}
			}
			return signedIn(*out.User)
		}

	case domain.GetUserRequest:
		if out, ok := resp.(domain.GetUserResponse); ok && out.User != nil &&
			s.SignedIn() && out.User.Username == s.User.Username {
			return signedIn(*out.User)
		}

	case domain.AddBalanceRequest:
		if out, ok := resp.(domain.AddBalanceResponse); ok && out.Balance != nil &&
			r.AccountID == s.AccountID() {
			u := *s.User
			u.Balance = *out.Balance
			return signedIn(u)
		}

	case domain.CheckAccountIDRequest, domain.DoTransactionRequest, domain.GetTransactionsRequest:
	}
	return s
}
