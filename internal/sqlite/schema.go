package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// quoteIdent quotes a validated identifier.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// createTableDDL returns the CREATE TABLE statement for a policy.
func createTableDDL(table string, policy types.Policy) string {
	discriminator := "nth_entry INTEGER NOT NULL"
	if policy == types.PolicyDuplicateFlag {
		discriminator = "is_duplicate TEXT NOT NULL CHECK (is_duplicate IN ('yes', 'no')),\n    sku_key TEXT NOT NULL"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    "SKU" TEXT NOT NULL,
    manufacturer TEXT NOT NULL,
    manufacturer_part_number TEXT NOT NULL,
    %s,
    created_at TEXT NOT NULL
)`, quoteIdent(table), discriminator)
}

// createIndexDDL indexes the column the policy's insert looks up: the raw
// SKU for sequence counts, the normalized key for duplicate checks.
func createIndexDDL(table string, policy types.Policy) string {
	col, suffix := `"SKU"`, "_sku"
	if policy == types.PolicyDuplicateFlag {
		col, suffix = types.ColumnSKUKey, "_sku_key"
	}
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
		quoteIdent("idx_"+strings.ToLower(table)+suffix), quoteIdent(table), col)
}

// requiredColumns lists the columns an existing table must carry.
func requiredColumns(policy types.Policy) []string {
	cols := []string{
		types.ColumnSKU,
		types.ColumnManufacturer,
		types.ColumnManufacturerPartNumber,
		policy.DiscriminatorColumn(),
		types.ColumnCreatedAt,
	}
	if policy == types.PolicyDuplicateFlag {
		cols = append(cols, types.ColumnSKUKey)
	}
	return cols
}

// ensureSchemaLocked creates the table when absent, or verifies that an
// existing table was created under the same policy. The caller must hold
// b.mu.
func (b *Backend) ensureSchemaLocked(ctx context.Context) error {
	cols, err := b.tableColumns(ctx)
	if err != nil {
		return err
	}
	if len(cols) > 0 {
		return checkColumns(b.table, b.policy, cols)
	}

	if _, err := b.db.ExecContext(ctx, createTableDDL(b.table, b.policy)); err != nil {
		return fmt.Errorf("create table %s: %w", b.table, err)
	}
	if _, err := b.db.ExecContext(ctx, createIndexDDL(b.table, b.policy)); err != nil {
		return fmt.Errorf("create index on %s: %w", b.table, err)
	}
	b.logger.Info("table ready", zapTable(b.table))
	return nil
}

// tableColumns returns the column names of the entry table, or none if the
// table does not exist.
func (b *Backend) tableColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(b.table)))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", b.table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// checkColumns reports ErrSchemaMismatch when an existing table carries the
// other policy's discriminator or lacks a required column.
func checkColumns(table string, policy types.Policy, cols map[string]bool) error {
	if cols[policy.OtherDiscriminatorColumn()] {
		return fmt.Errorf("%w: %s has column %s, configured policy is %s",
			types.ErrSchemaMismatch, table, policy.OtherDiscriminatorColumn(), policy)
	}
	for _, c := range requiredColumns(policy) {
		if !cols[c] {
			return fmt.Errorf("%w: %s is missing column %s", types.ErrSchemaMismatch, table, c)
		}
	}
	return nil
}
