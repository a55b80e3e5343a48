package stockparts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, types.PolicySequence, store.Policy())
	assert.FileExists(t, filepath.Join(dir, "stockparts.db"))
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), types.Config{
		Backend: types.BackendMemory,
		Policy:  types.PolicyDuplicateFlag,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.PolicyDuplicateFlag, store.Policy())
}

func TestOpenRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  types.Config
		want error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "mssql"}, types.ErrBackendUnknown},
		{"bad table", types.Config{Backend: types.BackendMemory, Table: "drop table;"}, types.ErrInvalidTable},
		{"bad policy", types.Config{Backend: types.BackendMemory, Policy: "both"}, types.ErrInvalidPolicy},
		{"postgres without secrets", types.Config{Backend: types.BackendPostgres}, types.ErrSecretsMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenServiceDegradesWithoutSecrets(t *testing.T) {
	svc, err := OpenService(context.Background(), types.Config{
		Backend:  types.BackendPostgres,
		Postgres: types.PostgresConfig{Server: "db.local"},
	}, nil)
	require.NoError(t, err)
	assert.False(t, svc.Writable())
	assert.Contains(t, svc.Notice(), "db_password")

	_, err = svc.Submit(context.Background(), types.PartEntry{SKU: "A", Manufacturer: "B", ManufacturerPartNumber: "C"})
	assert.ErrorIs(t, err, types.ErrWritesDisabled)
}

func TestOpenServiceWritable(t *testing.T) {
	svc, err := OpenService(context.Background(), types.Config{Backend: types.BackendMemory}, nil)
	require.NoError(t, err)
	defer svc.Close()
	assert.True(t, svc.Writable())
}

func TestOpenServiceStaysUpWhenDatabaseUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, err := OpenService(ctx, types.Config{
		Backend: types.BackendPostgres,
		Policy:  types.PolicyDuplicateFlag,
		Postgres: types.PostgresConfig{
			Server:   "127.0.0.1",
			Port:     1,
			Database: "inventory",
			Username: "parts",
			Password: "secret",
			SSLMode:  "disable",
		},
	}, nil)
	require.NoError(t, err, "an unreachable database must not stop startup")
	require.NotNil(t, svc)
	defer svc.Close()

	assert.False(t, svc.Writable())
	assert.Contains(t, svc.Notice(), "unavailable")
	assert.Contains(t, svc.Notice(), "127.0.0.1")
	assert.Equal(t, types.PolicyDuplicateFlag, svc.Policy())

	// Each attempt reports the failure again.
	for i := 0; i < 2; i++ {
		_, err = svc.Submit(ctx, types.PartEntry{SKU: "A", Manufacturer: "B", ManufacturerPartNumber: "C"})
		assert.ErrorIs(t, err, types.ErrUnavailable)
		assert.Contains(t, entry.UserMessage(err), "not saved")
	}

	rows, err := svc.List(ctx)
	assert.ErrorIs(t, err, types.ErrUnavailable)
	assert.Empty(t, rows)
}

func TestOpenServiceReturnsSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	svc, err := OpenService(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	_, err = OpenService(ctx, types.Config{
		Backend: types.BackendSQLite,
		DataDir: dir,
		Policy:  types.PolicyDuplicateFlag,
	}, nil)
	assert.ErrorIs(t, err, types.ErrSchemaMismatch)
}
