// Package app wires application dependencies for the CLI.
//
// NewWire builds the logging backend, metrics registry, stores and services
// from a config.Config. App puts a server endpoint and any number of client
// sessions on the two ends of in-process pipes.
package app
