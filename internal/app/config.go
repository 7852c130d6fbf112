package app

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"sibank/internal/crypto"
	"sibank/internal/store"
)

// Options override parts of the wiring that config.Config does not cover.
// The zero value uses production settings.
type Options struct {
	// LogWriter, when set, receives all logs instead of the configured file.
	LogWriter io.Writer
	// Registry defaults to a fresh registry.
	Registry *prometheus.Registry
	// PasswordParams defaults to crypto.DefaultPasswordParams.
	PasswordParams *crypto.PasswordParams
	// KeyKDF defaults to store.DefaultScryptParams.
	KeyKDF *store.ScryptParams
}
