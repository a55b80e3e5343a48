package types

import (
	"context"
	"errors"
	"strings"
)

// RecordStore is the narrow persistence interface for PartEntry rows. Rows
// are appended to one named table that is created lazily; existing rows are
// never updated or deleted.
type RecordStore interface {
	// EnsureSchema creates the table if it is absent. It is idempotent and
	// never destroys data. Returns ErrSchemaMismatch if the table exists with
	// the other policy's discriminator column.
	EnsureSchema(ctx context.Context) error

	// CountForKey returns the number of rows whose SKU equals sku exactly.
	CountForKey(ctx context.Context, sku string) (int, error)

	// Insert appends one row. The discriminator is computed in the same
	// statement or transaction as the insert, so concurrent inserts for one
	// SKU cannot observe the same count. Returns the stored row.
	Insert(ctx context.Context, entry PartEntry) (PartEntry, error)

	// ListAll returns every row.
	ListAll(ctx context.Context) ([]PartEntry, error)

	// Policy reports the policy the store was opened with.
	Policy() Policy

	// Close releases backend resources. Idempotent.
	Close() error
}

// Store errors.
var (
	ErrStoreClosed     = errors.New("record store is closed")
	ErrAlreadyAttached = errors.New("record store is already attached")
	ErrSchemaMismatch  = errors.New("table exists with a different entry policy")
	ErrWritesDisabled  = errors.New("writes are disabled: database configuration is missing")
	ErrUnavailable     = errors.New("database is unavailable")
	ErrInvalidTable    = errors.New("invalid table name")
	ErrInvalidPolicy   = errors.New("invalid entry policy")
)

// ErrValidation is matched by every ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the required fields that were empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "please fill in all fields (missing: " + strings.Join(e.Missing, ", ") + ")"
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
