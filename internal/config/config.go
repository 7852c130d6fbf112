// Package config loads the sibank configuration from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	sblog "sibank/internal/log"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/kex"
	"sibank/internal/protocol/trust"
)

// EnvPrefix prefixes every environment override, e.g. SIBANK_LEDGER_DSN.
const EnvPrefix = "SIBANK"

const (
	defaultDataDir        = ".sibank"
	defaultPassphraseEnv  = "SIBANK_PASSPHRASE"
	defaultLedgerFile     = "ledger.db"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxFailures    = 5
	defaultWindow         = 15 * time.Minute
	defaultMetricsAddress = "127.0.0.1:9464"
	defaultLogLevel       = "INFO"
)

// Ledger backends.
const (
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Throttle backends.
const (
	ThrottleMemory = "memory"
	ThrottleRedis  = "redis"
	ThrottleOff    = "off"
)

// Server is the server endpoint configuration.
type Server struct {
	// Identity is the string bound into the certificate.
	Identity string

	// KeyDir holds the encrypted signing key. Relative to DataDir.
	KeyDir string `split_words:"true"`

	// PassphraseEnv names the environment variable holding the key passphrase.
	PassphraseEnv string `split_words:"true"`
}

func (s *Server) fixup(dataDir string) {
	if s.Identity == "" {
		s.Identity = trust.DefaultIdentity
	}
	s.KeyDir = resolve(dataDir, s.KeyDir)
	if s.PassphraseEnv == "" {
		s.PassphraseEnv = defaultPassphraseEnv
	}
}

// Ledger selects and configures the ledger store.
type Ledger struct {
	// Backend is "bolt" (default) or "postgres".
	Backend string

	// Path is the bolt database file. Relative to DataDir.
	Path string

	// DSN is the Postgres connection string.
	DSN string

	// RequireSufficientFunds rejects transfers that would overdraw the sender.
	RequireSufficientFunds bool `split_words:"true"`
}

func (l *Ledger) validate(dataDir string) error {
	l.Backend = strings.ToLower(l.Backend)
	switch l.Backend {
	case "", BackendBolt:
		l.Backend = BackendBolt
		if l.Path == "" {
			l.Path = defaultLedgerFile
		}
		l.Path = resolve(dataDir, l.Path)
	case BackendPostgres:
		if l.DSN == "" {
			return errors.New("config: Ledger: DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: Ledger: Backend '%v' is invalid", l.Backend)
	}
	return nil
}

// Handshake selects what the client offers.
type Handshake struct {
	Group string
	Suite string
}

func (h *Handshake) validate() error {
	g, err := kex.ParseGroup(h.Group)
	if err != nil {
		return fmt.Errorf("config: Handshake: %w", err)
	}
	s, err := channel.ParseSuite(h.Suite)
	if err != nil {
		return fmt.Errorf("config: Handshake: %w", err)
	}
	h.Group, h.Suite = string(g), string(s)
	return nil
}

// Session tunes established sessions.
type Session struct {
	RequestTimeout time.Duration `split_words:"true"`
}

func (s *Session) validate() error {
	switch {
	case s.RequestTimeout == 0:
		s.RequestTimeout = defaultRequestTimeout
	case s.RequestTimeout < 0:
		return fmt.Errorf("config: Session: RequestTimeout %v is negative", s.RequestTimeout)
	}
	return nil
}

// Throttle limits failed sign-ins per username.
type Throttle struct {
	// Backend is "off" (default), "memory" or "redis". Failures are
	// counted per target username, so enabling it lets repeated wrong
	// guesses refuse a correct password until the window ends.
	Backend string

	MaxFailures int           `split_words:"true"`
	Window      time.Duration
	RedisAddr   string        `split_words:"true"`
}

func (t *Throttle) validate() error {
	t.Backend = strings.ToLower(t.Backend)
	switch t.Backend {
	case "":
		t.Backend = ThrottleOff
	case ThrottleMemory, ThrottleOff:
	case ThrottleRedis:
		if t.RedisAddr == "" {
			return errors.New("config: Throttle: RedisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: Throttle: Backend '%v' is invalid", t.Backend)
	}
	if t.MaxFailures == 0 {
		t.MaxFailures = defaultMaxFailures
	}
	if t.Window == 0 {
		t.Window = defaultWindow
	}
	if t.MaxFailures < 0 || t.Window < 0 {
		return errors.New("config: Throttle: MaxFailures and Window must be positive")
	}
	return nil
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (l *Logging) validate(dataDir string) error {
	if !sblog.ValidLevel(l.Level) {
		return fmt.Errorf("config: Logging: Level '%v' is invalid", l.Level)
	}
	l.Level = strings.ToUpper(l.Level)
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.File != "" {
		l.File = resolve(dataDir, l.File)
	}
	return nil
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enable  bool
	Address string
}

func (m *Metrics) fixup() {
	if m.Address == "" {
		m.Address = defaultMetricsAddress
	}
}

// Config is the top level sibank configuration.
type Config struct {
	// DataDir holds the ledger, keys and pins. Defaults to ~/.sibank.
	DataDir string `split_words:"true"`

	Server    Server
	Ledger    Ledger
	Handshake Handshake
	Session   Session
	Throttle  Throttle
	Logging   Logging
	Metrics   Metrics
}

// FixupAndValidate applies defaults to config entries and validates the
// configuration sections.
func (c *Config) FixupAndValidate() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("config: DataDir: %w", err)
		}
		c.DataDir = filepath.Join(home, defaultDataDir)
	}
	c.Server.fixup(c.DataDir)
	if err := c.Ledger.validate(c.DataDir); err != nil {
		return err
	}
	if err := c.Handshake.validate(); err != nil {
		return err
	}
	if err := c.Session.validate(); err != nil {
		return err
	}
	if err := c.Throttle.validate(); err != nil {
		return err
	}
	if err := c.Logging.validate(c.DataDir); err != nil {
		return err
	}
	c.Metrics.fixup()
	return nil
}

// Passphrase returns the signing key passphrase from the environment.
func (c *Config) Passphrase() (string, bool) {
	return os.LookupEnv(c.Server.PassphraseEnv)
}

// Parse parses b as TOML and applies SIBANK_* environment overrides without
// validating. Callers that override fields must call FixupAndValidate.
func Parse(b []byte) (*Config, error) {
	cfg := new(Config)
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// Load parses b like Parse and validates the result. An empty b yields the
// defaults.
func Load(b []byte) (*Config, error) {
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

func resolve(dir, p string) string {
	if p == "" {
		return dir
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
