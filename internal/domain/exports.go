package domain

import (
	interfaces "sibank/internal/domain/interfaces"
	types "sibank/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username       = types.Username
	AccountID      = types.AccountID
	Fingerprint    = types.Fingerprint
	SessionID      = types.SessionID
	X25519Public   = types.X25519Public
	X25519Private  = types.X25519Private
	Ed25519Public  = types.Ed25519Public
	Ed25519Private = types.Ed25519Private
	ServerIdentity = types.ServerIdentity
	Certificate    = types.Certificate
	User           = types.User
	Account        = types.Account
	Counterparty   = types.Counterparty
	Transaction    = types.Transaction
	Transfer       = types.Transfer
	EncryptedFrame = types.EncryptedFrame
	Command        = types.Command
	Request        = types.Request
	Response       = types.Response

	SignUpRequest          = types.SignUpRequest
	SignInRequest          = types.SignInRequest
	GetUserRequest         = types.GetUserRequest
	AddBalanceRequest      = types.AddBalanceRequest
	CheckAccountIDRequest  = types.CheckAccountIDRequest
	DoTransactionRequest   = types.DoTransactionRequest
	GetTransactionsRequest = types.GetTransactionsRequest

	SignUpResponse          = types.SignUpResponse
	SignInResponse          = types.SignInResponse
	GetUserResponse         = types.GetUserResponse
	AddBalanceResponse      = types.AddBalanceResponse
	CheckAccountIDResponse  = types.CheckAccountIDResponse
	DoTransactionResponse   = types.DoTransactionResponse
	GetTransactionsResponse = types.GetTransactionsResponse
)

// Command names re-exported for callers that only import domain.
const (
	CommandSignUp          = types.CommandSignUp
	CommandSignIn          = types.CommandSignIn
	CommandGetUser         = types.CommandGetUser
	CommandAddBalance      = types.CommandAddBalance
	CommandCheckAccountID  = types.CommandCheckAccountID
	CommandDoTransaction   = types.CommandDoTransaction
	CommandGetTransactions = types.CommandGetTransactions
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	LedgerStore       = interfaces.LedgerStore
	ServerKeyStore    = interfaces.ServerKeyStore
	KnownServerStore  = interfaces.KnownServerStore
	LedgerService     = interfaces.LedgerService
	Requester         = interfaces.Requester
	CertificateSource = interfaces.CertificateSource
	Limiter           = interfaces.Limiter
)
