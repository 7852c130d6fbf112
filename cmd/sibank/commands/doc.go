// Package commands defines the sibank CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create or rotate the server signing key
//   - fingerprint    Print the server key fingerprint
//   - signup         Open an account
//   - signin         Check credentials and show the account
//   - balance add    Credit your own account
//   - account check  Show the holder name of an account id
//   - transfer       Send money to another account
//   - history        List your transactions
//   - demo           Run the two-user walkthrough on a scratch ledger
//
// # Implementation
//
// The root command loads the configuration, then builds the dependency graph
// (logging, metrics, stores, services) before any subcommand runs. Transport
// is in-process: each command that talks to the bank starts the server
// endpoint on one side of a pipe and a client session on the other, so every
// request still goes through the handshake and the encrypted channel.
package commands
