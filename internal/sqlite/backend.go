// Package sqlite implements the SQLite record store for stockparts.
// The database lives in <data_dir>/stockparts.db and persists across runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "stockparts.db"

var _ types.RecordStore = (*Backend)(nil)

// Backend implements types.RecordStore on a single SQLite connection.
// SQLite allows one writer at a time; holding one connection makes every
// insert statement run serially, which keeps sequence numbers unique.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	table    string
	policy   types.Policy
	logger   *zap.Logger
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger.Named("sqlite")}
}

// Attach opens the database described by config and ensures the entry
// table exists. Creates DataDir if it does not exist. Existing data is
// never removed. Returns ErrAlreadyAttached if called twice.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("connect %s: %w", dbPath, err)
	}
	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.table = config.TableName()
	b.policy = config.EntryPolicy()

	if err := b.ensureSchemaLocked(ctx); err != nil {
		db.Close()
		b.db = nil
		return err
	}

	b.attached = true
	b.logger.Info("attached",
		zap.String("path", dbPath),
		zap.String("table", b.table),
		zap.String("policy", b.policy.String()))
	return nil
}

// Detach closes the database. Idempotent. After Detach every operation
// returns ErrStoreClosed.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("close database: %w", err)
		}
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

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("execute %q: %w", p, err)
		}
	}
	return nil
}
