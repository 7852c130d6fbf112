package types

// User is an account holder as seen on the wire. Password is only ever
// populated on requests (plaintext in transit); responses never carry it.
type User struct {
	AccountID AccountID `json:"account_id,omitempty"`
	Username  Username  `json:"username,omitempty"`
	Password  string    `json:"password,omitempty"`
	Name      string    `json:"name,omitempty"`
	Balance   int64     `json:"balance,omitempty"`
}

// WithoutPassword returns a copy of u with the password cleared.
func (u User) WithoutPassword() User {
	u.Password = ""
	return u
}

// Account is the stored ledger record for a user.
type Account struct {
	AccountID    AccountID `cbor:"account_id" db:"account_id"`
	Username     Username  `cbor:"username" db:"username"`
	PasswordHash string    `cbor:"password_hash" db:"password_hash"`
	Name         string    `cbor:"name" db:"name"`
	Balance      int64     `cbor:"balance" db:"balance"`
}

// User returns the public view of the account, without the password hash.
func (a Account) User() User {
	return User{
		AccountID: a.AccountID,
		Username:  a.Username,
		Name:      a.Name,
		Balance:   a.Balance,
	}
}
