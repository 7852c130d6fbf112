package types

// Command names one of the operations a client can ask the server to run.
type Command string

const (
	CommandSignUp          Command = "SIGN_UP"
	CommandSignIn          Command = "SIGN_IN"
	CommandGetUser         Command = "GET_USER"
	CommandAddBalance      Command = "ADD_BALANCE"
	CommandCheckAccountID  Command = "CHECK_ACCOUNT_ID"
	CommandDoTransaction   Command = "DO_TRANSACTION"
	CommandGetTransactions Command = "GET_TRANSACTIONS"
)

// Commands lists every command in protocol order.
var Commands = []Command{
	CommandSignUp,
	CommandSignIn,
	CommandGetUser,
	CommandAddBalance,
	CommandCheckAccountID,
	CommandDoTransaction,
	CommandGetTransactions,
}

// String returns the wire name of the command.
func (c Command) String() string { return string(c) }

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	for _, known := range Commands {
		if c == known {
			return true
		}
	}
	return false
}

// Request is a decrypted client command. The implementations below are the
// complete set; dispatch switches over them exhaustively.
type Request interface {
	Command() Command
	isRequest()
}

// Response is the server's answer to exactly one Request.
type Response interface {
	Command() Command
	isResponse()
}

type (
	// SignUpRequest creates an account. Balance is ignored.
	SignUpRequest struct{ User User }

	// SignInRequest checks credentials.
	SignInRequest struct {
		Username Username
		Password string
	}

	// GetUserRequest loads a user by username.
	GetUserRequest struct{ Username Username }

	// AddBalanceRequest credits (or debits, when negative) an account.
	AddBalanceRequest struct {
		AccountID AccountID
		Amount    int64
	}

	// CheckAccountIDRequest resolves an account to its holder name.
	CheckAccountIDRequest struct{ AccountID AccountID }

	// DoTransactionRequest transfers Amount from From to To.
	DoTransactionRequest struct {
		From   User
		To     User
		Amount int64
	}

	// GetTransactionsRequest lists the history of an account.
	GetTransactionsRequest struct{ AccountID AccountID }
)

func (SignUpRequest) Command() Command          { return CommandSignUp }
func (SignInRequest) Command() Command          { return CommandSignIn }
func (GetUserRequest) Command() Command         { return CommandGetUser }
func (AddBalanceRequest) Command() Command      { return CommandAddBalance }
func (CheckAccountIDRequest) Command() Command  { return CommandCheckAccountID }
func (DoTransactionRequest) Command() Command   { return CommandDoTransaction }
func (GetTransactionsRequest) Command() Command { return CommandGetTransactions }

func (SignUpRequest) isRequest()          {}
func (SignInRequest) isRequest()          {}
func (GetUserRequest) isRequest()         {}
func (AddBalanceRequest) isRequest()      {}
func (CheckAccountIDRequest) isRequest()  {}
func (DoTransactionRequest) isRequest()   {}
func (GetTransactionsRequest) isRequest() {}

type (
	// SignUpResponse reports whether the account was created.
	SignUpResponse struct{ OK bool }

	// SignInResponse carries the authenticated user, or nil.
	SignInResponse struct{ User *User }

	// GetUserResponse carries the user, or nil.
	GetUserResponse struct{ User *User }

	// AddBalanceResponse carries the new balance, or nil for an unknown account.
	AddBalanceResponse struct{ Balance *int64 }

	// CheckAccountIDResponse carries the holder name, or nil.
	CheckAccountIDResponse struct{ Name *string }

	// DoTransactionResponse reports whether the transfer was applied.
	DoTransactionResponse struct{ OK bool }

	// GetTransactionsResponse lists transactions in chronological order.
	GetTransactionsResponse struct{ Transactions []Transaction }
)

func (SignUpResponse) Command() Command          { return CommandSignUp }
func (SignInResponse) Command() Command          { return CommandSignIn }
func (GetUserResponse) Command() Command         { return CommandGetUser }
func (AddBalanceResponse) Command() Command      { return CommandAddBalance }
func (CheckAccountIDResponse) Command() Command  { return CommandCheckAccountID }
func (DoTransactionResponse) Command() Command   { return CommandDoTransaction }
func (GetTransactionsResponse) Command() Command { return CommandGetTransactions }

func (SignUpResponse) isResponse()          {}
func (SignInResponse) isResponse()          {}
func (GetUserResponse) isResponse()         {}
func (AddBalanceResponse) isResponse()      {}
func (CheckAccountIDResponse) isResponse()  {}
func (DoTransactionResponse) isResponse()   {}
func (GetTransactionsResponse) isResponse() {}
