package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"sibank/internal/config"
	"sibank/internal/domain"
	"sibank/internal/instrument"
	sblog "sibank/internal/log"
	identitysvc "sibank/internal/services/identity"
	ledgersvc "sibank/internal/services/ledger"
	"sibank/internal/store"
	"sibank/internal/throttle"
)

// Wire bundles all stores and services for the CLI.
type Wire struct {
	Config   *config.Config
	Log      *sblog.Backend
	Registry *prometheus.Registry
	Metrics  *instrument.Metrics

	Ledger   domain.LedgerStore
	Limiter  domain.Limiter
	Keys     *store.ServerKeyFileStore
	Pins     *store.KnownServerFileStore
	Identity *identitysvc.Service
	Accounts *ledgersvc.Service

	redis *redis.Client
}

// NewWire constructs the dependency graph from cfg. The caller must Close
// the returned Wire.
func NewWire(ctx context.Context, cfg *config.Config, opts Options) (*Wire, error) {
	w := &Wire{Config: cfg}

	var err error
	if opts.LogWriter != nil {
		w.Log, err = sblog.NewWriter(opts.LogWriter, cfg.Logging.Level)
	} else {
		w.Log, err = sblog.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	}
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := w.Log.GetLogger("app")

	w.Registry = opts.Registry
	if w.Registry == nil {
		w.Registry = prometheus.NewRegistry()
	}
	if w.Metrics, err = instrument.New(w.Registry); err != nil {
		w.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	if w.Ledger, err = openLedger(ctx, cfg.Ledger); err != nil {
		w.Close()
		return nil, fmt.Errorf("ledger: %w", err)
	}
	log.Infof("ledger backend %s", cfg.Ledger.Backend)

	switch cfg.Throttle.Backend {
	case config.ThrottleMemory:
		w.Limiter = throttle.NewMemory(cfg.Throttle.MaxFailures, cfg.Throttle.Window)
	case config.ThrottleRedis:
		w.redis = redis.NewClient(&redis.Options{Addr: cfg.Throttle.RedisAddr})
		w.Limiter = throttle.NewRedis(w.redis, cfg.Throttle.MaxFailures, cfg.Throttle.Window)
	}

	kdf := store.DefaultScryptParams
	if opts.KeyKDF != nil {
		kdf = *opts.KeyKDF
	}
	w.Keys = store.NewServerKeyFileStore(cfg.Server.KeyDir, kdf)
	w.Pins = store.NewKnownServerFileStore(cfg.DataDir)
	w.Identity = identitysvc.New(w.Keys, cfg.Server.Identity)
	w.Accounts = ledgersvc.New(w.Ledger, ledgersvc.Options{
		RequireSufficientFunds: cfg.Ledger.RequireSufficientFunds,
		PasswordParams:         opts.PasswordParams,
		Limiter:                w.Limiter,
		Metrics:                w.Metrics,
		Log:                    w.Log.GetLogger("ledger"),
	})
	return w, nil
}

func openLedger(ctx context.Context, cfg config.Ledger) (domain.LedgerStore, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		l, err := store.OpenBoltLedger(cfg.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.BackendPostgres:
		l, err := store.OpenPostgresLedger(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Close releases the ledger, the redis client and the log file.
func (w *Wire) Close() error {
	var errs []error
	if w.Ledger != nil {
		errs = append(errs, w.Ledger.Close())
	}
	if w.redis != nil {
		errs = append(errs, w.redis.Close())
	}
	if w.Log != nil {
		errs = append(errs, w.Log.Close())
	}
	return errors.Join(errs...)
}
