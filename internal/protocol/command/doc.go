// Package command encodes requests and responses to the plaintext carried
// inside encrypted frames.
//
// Every message is a JSON object with a "command" field naming one of the
// seven commands and an optional "data" field:
//
//	SIGN_UP           {user}                     -> bool
//	SIGN_IN           {username, password}       -> user | null
//	GET_USER          "username"                 -> user | null
//	ADD_BALANCE       {account_id, amount}       -> int | null
//	CHECK_ACCOUNT_ID  "account id"               -> "name" | null
//	DO_TRANSACTION    {from, to, amount}         -> bool
//	GET_TRANSACTIONS  "account id"               -> [transaction]
//
// Unknown commands and payloads of the wrong shape fail with ErrMalformed.
package command
