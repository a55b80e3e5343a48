package entry

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

var _ types.RecordStore = DisabledStore{}

// DisabledStore stands in for a RecordStore that could not be configured
// or reached. Without a cause reads succeed with no data and inserts fail
// with ErrWritesDisabled. With a cause every call fails with ErrUnavailable
// wrapping it, so each attempt reports the connection problem.
type DisabledStore struct {
	policy types.Policy
	cause  error
}

func (d DisabledStore) unavailable() error {
	return fmt.Errorf("%w: %v", types.ErrUnavailable, d.cause)
}

// EnsureSchema implements types.RecordStore.
func (d DisabledStore) EnsureSchema(context.Context) error {
	if d.cause != nil {
		return d.unavailable()
	}
	return nil
}

// CountForKey implements types.RecordStore.
func (d DisabledStore) CountForKey(context.Context, string) (int, error) {
	if d.cause != nil {
		return 0, d.unavailable()
	}
	return 0, nil
}

// Insert implements types.RecordStore.
func (d DisabledStore) Insert(context.Context, types.PartEntry) (types.PartEntry, error) {
	if d.cause != nil {
		return types.PartEntry{}, d.unavailable()
	}
	return types.PartEntry{}, types.ErrWritesDisabled
}

// ListAll implements types.RecordStore.
func (d DisabledStore) ListAll(context.Context) ([]types.PartEntry, error) {
	if d.cause != nil {
		return nil, d.unavailable()
	}
	return []types.PartEntry{}, nil
}

// Policy implements types.RecordStore.
func (d DisabledStore) Policy() types.Policy {
	if d.policy == "" {
		return types.DefaultPolicy
	}
	return d.policy
}

// Close implements types.RecordStore.
func (DisabledStore) Close() error { return nil }
