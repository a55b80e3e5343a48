// Package postgres implements the PostgreSQL record store for stockparts,
// for deployments where the entry table lives on a shared database server.
package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

const (
	defaultPort    = 5432
	defaultSSLMode = "prefer"
)

var _ types.RecordStore = (*Backend)(nil)

// Backend implements types.RecordStore on a pgx connection pool.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	pool     *pgxpool.Pool
	table    string
	policy   types.Policy
	logger   *zap.Logger
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger.Named("postgres")}
}

// ConnString builds a postgres URL from the configured secrets. The
// password is escaped, so any character is allowed.
func ConnString(cfg types.PostgresConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Server, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Attach validates config, connects using its secrets and ensures the
// entry table exists.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	return b.AttachDSN(ctx, ConnString(config.Postgres), config)
}

// AttachDSN connects to dsn directly; config supplies table and policy.
func (b *Backend) AttachDSN(ctx context.Context, dsn string, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := types.ValidateTableName(config.TableName()); err != nil {
		return fmt.Errorf("%w: %q", err, config.TableName())
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse connection config: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("connect to %s: %w", poolConfig.ConnConfig.Host, err)
	}

	b.pool = pool
	b.table = config.TableName()
	b.policy = config.EntryPolicy()

	if err := b.ensureSchemaLocked(ctx); err != nil {
		pool.Close()
		b.pool = nil
		return err
	}

	b.attached = true
	b.logger.Info("attached",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.String("table", b.table),
		zap.String("policy", b.policy.String()))
	return nil
}

// Detach closes the pool. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	return nil
}

// Close implements types.RecordStore by detaching.
func (b *Backend) Close() error {
	return b.Detach()
}

// Policy implements types.RecordStore.
func (b *Backend) Policy() types.Policy {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.policy
}

// EnsureSchema creates the entry table if it is absent.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreClosed
	}
	return b.ensureSchemaLocked(ctx)
}

func (b *Backend) ident() string {
	return pgx.Identifier{b.table}.Sanitize()
}
