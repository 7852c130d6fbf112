// Package dispatch maps decrypted requests onto ledger calls.
//
// The dispatcher is stateless. The session passes in its Caller, the
// principal established by a successful SIGN_IN or SIGN_UP on that session,
// and stores the Caller returned with the response. Commands that act on an
// account (GET_USER, ADD_BALANCE, DO_TRANSACTION, GET_TRANSACTIONS) only act
// on the caller's own account; anything else gets the command's absent or
// false result. CHECK_ACCOUNT_ID is open to every session.
package dispatch
