package stockparts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/memory"
	"github.com/mesh-intelligence/stockparts/internal/postgres"
	"github.com/mesh-intelligence/stockparts/internal/sqlite"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// Open validates cfg and returns an attached RecordStore. The caller owns
// the store and must Close it.
//
// Example:
//
//	store, err := stockparts.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".stockparts-db",
//	}, logger)
//	defer store.Close()
func Open(ctx context.Context, cfg types.Config, logger *zap.Logger) (types.RecordStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case types.BackendSQLite:
		b := sqlite.NewBackend(logger)
		if err := b.Attach(ctx, cfg); err != nil {
			return nil, err
		}
		return b, nil
	case types.BackendPostgres:
		b := postgres.NewBackend(logger)
		if err := b.Attach(ctx, cfg); err != nil {
			return nil, err
		}
		return b, nil
	case types.BackendMemory:
		return memory.New(cfg.EntryPolicy()), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
}

// OpenService opens the store for cfg and wraps it in an entry.Service.
// Invalid configuration is returned as an error. Missing database secrets
// yield a reporting-only service with a notice. A database that cannot be
// reached yields a service that stays up and reports the failure on every
// call, so a front end can still start and show it.
func OpenService(ctx context.Context, cfg types.Config, logger *zap.Logger, opts ...entry.Option) (*entry.Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]entry.Option{entry.WithLogger(logger)}, opts...)

	store, err := Open(ctx, cfg, logger)
	switch {
	case err == nil:
		return entry.NewService(store, opts...), nil
	case errors.Is(err, types.ErrSecretsMissing):
		return entry.NewDisabledService(cfg.EntryPolicy(), err, opts...), nil
	case isConfigError(err):
		return nil, err
	default:
		return entry.NewUnavailableService(cfg.EntryPolicy(), err, opts...), nil
	}
}

// isConfigError reports whether err is fixed by editing configuration
// rather than by bringing the database back.
func isConfigError(err error) bool {
	for _, target := range []error{
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrInvalidTable,
		types.ErrInvalidPolicy,
		types.ErrSchemaMismatch,
		types.ErrAlreadyAttached,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
