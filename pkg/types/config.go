package types

import (
	"errors"
	"fmt"
)

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds backend selection and parameters for opening a RecordStore.
type Config struct {
	Backend  string         `json:"backend" yaml:"backend"`
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	Table    string         `json:"table" yaml:"table"`
	Policy   Policy         `json:"policy" yaml:"policy"`
	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`
}

// PostgresConfig carries the connection secrets for the postgres backend.
type PostgresConfig struct {
	Server   string `json:"server" yaml:"server"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"password"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`
}

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrSecretsMissing = errors.New("database secrets are missing")
)

var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendMemory:   true,
}

// TableName returns the configured table or DefaultTable.
func (c Config) TableName() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// EntryPolicy returns the configured policy or DefaultPolicy.
func (c Config) EntryPolicy() Policy {
	if c.Policy == "" {
		return DefaultPolicy
	}
	return c.Policy
}

// Validate checks that the Config is well-formed. A postgres config with
// missing secrets fails with ErrSecretsMissing so callers can degrade to
// reporting-only mode instead of exiting.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	if err := ValidateTableName(c.TableName()); err != nil {
		return fmt.Errorf("%w: %q", err, c.TableName())
	}
	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}
	if c.Backend == BackendPostgres {
		if missing := c.Postgres.missing(); len(missing) > 0 {
			return fmt.Errorf("%w: %v", ErrSecretsMissing, missing)
		}
	}
	return nil
}

func (p PostgresConfig) missing() []string {
	var out []string
	if p.Server == "" {
		out = append(out, "db_server")
	}
	if p.Database == "" {
		out = append(out, "db_database")
	}
	if p.Username == "" {
		out = append(out, "db_username")
	}
	if p.Password == "" {
		out = append(out, "db_password")
	}
	return out
}
