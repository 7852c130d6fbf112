package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"sibank/internal/domain"
)

// ErrMalformed is returned for payloads that do not parse as a known message.
var ErrMalformed = errors.New("command: malformed message")

type envelope struct {
	Command domain.Command  `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type signInData struct {
	Username domain.Username `json:"username"`
	Password string          `json:"password"`
}

type addBalanceData struct {
	AccountID domain.AccountID `json:"account_id"`
	Amount    int64            `json:"amount"`
}

type transactionData struct {
	From   domain.User `json:"from"`
	To     domain.User `json:"to"`
	Amount int64       `json:"amount"`
}

// MarshalRequest encodes req.
func MarshalRequest(req domain.Request) ([]byte, error) {
	var data any
	switch r := req.(type) {
	case domain.SignUpRequest:
		data = r.User
	case domain.SignInRequest:
		data = signInData{Username: r.Username, Password: r.Password}
	case domain.GetUserRequest:
		data = r.Username
	case domain.AddBalanceRequest:
		data = addBalanceData{AccountID: r.AccountID, Amount: r.Amount}
	case domain.CheckAccountIDRequest:
		data = r.AccountID
	case domain.DoTransactionRequest:
		data = transactionData{From: r.From, To: r.To, Amount: r.Amount}
	case domain.GetTransactionsRequest:
		data = r.AccountID
	default:
		return nil, fmt.Errorf("command: unsupported request %T", req)
	}
	return marshal(req.Command(), data)
}

// UnmarshalRequest decodes a request produced by MarshalRequest.
func UnmarshalRequest(b []byte) (domain.Request, error) {
	env, err := unmarshalEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Command {
	case domain.CommandSignUp:
		var u domain.User
		if err := decodeData(env, &u); err != nil {
			return nil, err
		}
		return domain.SignUpRequest{User: u}, nil
	case domain.CommandSignIn:
		var d signInData
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.SignInRequest{Username: d.Username, Password: d.Password}, nil
	case domain.CommandGetUser:
		var u domain.Username
		if err := decodeData(env, &u); err != nil {
			return nil, err
		}
		return domain.GetUserRequest{Username: u}, nil
	case domain.CommandAddBalance:
		var d addBalanceData
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.AddBalanceRequest{AccountID: d.AccountID, Amount: d.Amount}, nil
	case domain.CommandCheckAccountID:
		var id domain.AccountID
		if err := decodeData(env, &id); err != nil {
			return nil, err
		}
		return domain.CheckAccountIDRequest{AccountID: id}, nil
	case domain.CommandDoTransaction:
		var d transactionData
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		return domain.DoTransactionRequest{From: d.From, To: d.To, Amount: d.Amount}, nil
	case domain.CommandGetTransactions:
		var id domain.AccountID
		if err := decodeData(env, &id); err != nil {
			return nil, err
		}
		return domain.GetTransactionsRequest{AccountID: id}, nil
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrMalformed, env.Command)
}

// MarshalResponse encodes resp.
func MarshalResponse(resp domain.Response) ([]byte, error) {
	var data any
	switch r := resp.(type) {
	case domain.SignUpResponse:
		data = r.OK
	case domain.SignInResponse:
		data = r.User
	case domain.GetUserResponse:
		data = r.User
	case domain.AddBalanceResponse:
		data = r.Balance
	case domain.CheckAccountIDResponse:
		data = r.Name
	case domain.DoTransactionResponse:
		data = r.OK
	case domain.GetTransactionsResponse:
		txs := r.Transactions
		if txs == nil {
			txs = []domain.Transaction{}
		}
		data = txs
	default:
		return nil, fmt.Errorf("command: unsupported response %T", resp)
	}
	return marshal(resp.Command(), data)
}

// UnmarshalResponse decodes a response produced by MarshalResponse. An
// absent or null data field decodes to the command's absent result.
func UnmarshalResponse(b []byte) (domain.Response, error) {
	env, err := unmarshalEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Command {
	case domain.CommandSignUp:
		var ok bool
		if err := decodeOptional(env, &ok); err != nil {
			return nil, err
		}
		return domain.SignUpResponse{OK: ok}, nil
	case domain.CommandSignIn:
		var u *domain.User
		if err := decodeOptional(env, &u); err != nil {
			return nil, err
		}
		return domain.SignInResponse{User: u}, nil
	case domain.CommandGetUser:
		var u *domain.User
		if err := decodeOptional(env, &u); err != nil {
			return nil, err
		}
		return domain.GetUserResponse{User: u}, nil
	case domain.CommandAddBalance:
		var bal *int64
		if err := decodeOptional(env, &bal); err != nil {
			return nil, err
		}
		return domain.AddBalanceResponse{Balance: bal}, nil
	case domain.CommandCheckAccountID:
		var name *string
		if err := decodeOptional(env, &name); err != nil {
			return nil, err
		}
		return domain.CheckAccountIDResponse{Name: name}, nil
	case domain.CommandDoTransaction:
		var ok bool
		if err := decodeOptional(env, &ok); err != nil {
			return nil, err
		}
		return domain.DoTransactionResponse{OK: ok}, nil
	case domain.CommandGetTransactions:
		var txs []domain.Transaction
		if err := decodeOptional(env, &txs); err != nil {
			return nil, err
		}
		return domain.GetTransactionsResponse{Transactions: txs}, nil
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrMalformed, env.Command)
}

func marshal(cmd domain.Command, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("command: encode %s: %w", cmd, err)
	}
	return json.Marshal(envelope{Command: cmd, Data: raw})
}

func unmarshalEnvelope(b []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

var jsonNull = []byte("null")

// decodeData decodes a required payload.
func decodeData(env envelope, v any) error {
	if len(env.Data) == 0 || bytes.Equal(env.Data, jsonNull) {
		return fmt.Errorf("%w: %s without data", ErrMalformed, env.Command)
	}
	return decodeOptional(env, v)
}

// decodeOptional leaves v at its zero value when the payload is absent.
func decodeOptional(env envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformed, env.Command, err)
	}
	return nil
}
