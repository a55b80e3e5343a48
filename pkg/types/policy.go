package types

import "fmt"

// Policy selects how the discriminator of a new row is computed. A table
// holds rows of exactly one policy.
type Policy string

// Supported policies.
const (
	// PolicySequence stores nth_entry, the 1-based occurrence count of the
	// SKU at insert time (exact match).
	PolicySequence Policy = "sequence"

	// PolicyDuplicateFlag stores is_duplicate, true when a row with the same
	// normalized SKU already exists.
	PolicyDuplicateFlag Policy = "duplicate_flag"
)

// DefaultPolicy is used when configuration leaves the policy empty.
const DefaultPolicy = PolicySequence

// ParsePolicy converts a configuration value into a Policy. The empty
// string yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return DefaultPolicy, nil
	case PolicySequence, PolicyDuplicateFlag:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q (valid: %s, %s)", ErrInvalidPolicy, s, PolicySequence, PolicyDuplicateFlag)
	}
}

// DiscriminatorColumn returns the column that carries this policy's value.
func (p Policy) DiscriminatorColumn() string {
	if p == PolicyDuplicateFlag {
		return ColumnIsDuplicate
	}
	return ColumnNthEntry
}

// OtherDiscriminatorColumn returns the column of the opposite policy. Its
// presence in an existing table means the table was created under the
// other policy.
func (p Policy) OtherDiscriminatorColumn() string {
	if p == PolicyDuplicateFlag {
		return ColumnNthEntry
	}
	return ColumnIsDuplicate
}

func (p Policy) String() string { return string(p) }
