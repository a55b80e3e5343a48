// Package resolver decides the discriminator value of a new PartEntry: its
// 1-based sequence number under the sequence policy, or its duplicate flag
// under the duplicate-flag policy.
//
// The pure functions here define the semantics. Stores compute the
// persisted value atomically with the insert; Resolver.Preview computes the
// same value ahead of time for display only.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// Normalize trims surrounding whitespace and case-folds sku. The result is
// used only for equality comparison. SQL stores persist it in an internal
// key column so the database never applies its own folding rules.
func Normalize(sku string) string {
	return cases.Fold().String(strings.TrimSpace(sku))
}

// NextSequence returns the sequence number for a new row given the number
// of rows already stored for its SKU.
func NextSequence(count int) int {
	return count + 1
}

// IsDuplicate reports whether sku matches any of existing after
// normalization.
func IsDuplicate(sku string, existing []string) bool {
	key := Normalize(sku)
	for _, s := range existing {
		if Normalize(s) == key {
			return true
		}
	}
	return false
}

// Decision is the discriminator computed for one SKU.
type Decision struct {
	Policy    types.Policy
	Sequence  int
	Duplicate bool
}

// Apply copies the decision into entry.
func (d Decision) Apply(entry types.PartEntry) types.PartEntry {
	switch d.Policy {
	case types.PolicyDuplicateFlag:
		entry.Duplicate = d.Duplicate
		entry.Sequence = 0
	default:
		entry.Sequence = d.Sequence
		entry.Duplicate = false
	}
	return entry
}

// Describe renders the decision for a user-facing notice.
func (d Decision) Describe(sku string) string {
	if d.Policy == types.PolicyDuplicateFlag {
		if d.Duplicate {
			return fmt.Sprintf("SKU %s already exists (duplicate)", sku)
		}
		return fmt.Sprintf("SKU %s is new", sku)
	}
	return fmt.Sprintf("SKU %s will be entry #%d", sku, d.Sequence)
}

// Source is the read side of a RecordStore.
type Source interface {
	CountForKey(ctx context.Context, sku string) (int, error)
	ListAll(ctx context.Context) ([]types.PartEntry, error)
}

// Resolver computes decisions against a Source under one policy.
type Resolver struct {
	source Source
	policy types.Policy
}

// New returns a Resolver bound to source and policy.
func New(source Source, policy types.Policy) *Resolver {
	return &Resolver{source: source, policy: policy}
}

// Policy returns the policy the resolver applies.
func (r *Resolver) Policy() types.Policy { return r.policy }

// Preview computes the decision the next insert of sku would receive. The
// value is advisory: a concurrent insert may change it before submission.
func (r *Resolver) Preview(ctx context.Context, sku string) (Decision, error) {
	sku = strings.TrimSpace(sku)
	switch r.policy {
	case types.PolicyDuplicateFlag:
		rows, err := r.source.ListAll(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("list entries: %w", err)
		}
		skus := make([]string, len(rows))
		for i, row := range rows {
			skus[i] = row.SKU
		}
		return Decision{Policy: r.policy, Duplicate: IsDuplicate(sku, skus)}, nil
	default:
		count, err := r.source.CountForKey(ctx, sku)
		if err != nil {
			return Decision{}, fmt.Errorf("count entries for %q: %w", sku, err)
		}
		return Decision{Policy: types.PolicySequence, Sequence: NextSequence(count)}, nil
	}
}
