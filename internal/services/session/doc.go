// Package session runs encrypted request/response sessions over a
// transport connection.
//
// The server side performs the handshake for every new connection, then
// loops decoding one request, dispatching it and sealing the response.
// The client side performs the handshake once and offers Do, which sends one
// request and waits for its response. Sessions are strictly sequential: a
// client never has more than one request in flight.
//
// Any frame that fails to decrypt or parse ends the session on both sides.
// There is no unencrypted fallback.
package session
