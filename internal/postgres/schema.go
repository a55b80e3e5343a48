package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

func createTableDDL(table string, policy types.Policy) string {
	discriminator := "nth_entry INTEGER NOT NULL"
	if policy == types.PolicyDuplicateFlag {
		discriminator = "is_duplicate VARCHAR(3) NOT NULL CHECK (is_duplicate IN ('yes', 'no')),\n    sku_key TEXT NOT NULL"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGSERIAL PRIMARY KEY,
    "SKU" VARCHAR(255) NOT NULL,
    manufacturer VARCHAR(255) NOT NULL,
    manufacturer_part_number VARCHAR(255) NOT NULL,
    %s,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, pgx.Identifier{table}.Sanitize(), discriminator)
}

func createIndexDDL(table string, policy types.Policy) string {
	col, suffix := `"SKU"`, "_sku"
	if policy == types.PolicyDuplicateFlag {
		col, suffix = types.ColumnSKUKey, "_sku_key"
	}
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
		pgx.Identifier{"idx_" + strings.ToLower(table) + suffix}.Sanitize(),
		pgx.Identifier{table}.Sanitize(), col)
}

// ensureSchemaLocked creates the table when absent, or verifies an
// existing table was created under the same policy.
func (b *Backend) ensureSchemaLocked(ctx context.Context) error {
	rows, err := b.pool.Query(ctx, `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`, b.table)
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", b.table, err)
	}
	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan column name: %w", err)
		}
		cols[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect table %s: %w", b.table, err)
	}

	if len(cols) > 0 {
		return checkColumns(b.table, b.policy, cols)
	}

	if _, err := b.pool.Exec(ctx, createTableDDL(b.table, b.policy)); err != nil {
		return fmt.Errorf("create table %s: %w", b.table, err)
	}
	if _, err := b.pool.Exec(ctx, createIndexDDL(b.table, b.policy)); err != nil {
		return fmt.Errorf("create index on %s: %w", b.table, err)
	}
	return nil
}

func checkColumns(table string, policy types.Policy, cols map[string]bool) error {
	if cols[policy.OtherDiscriminatorColumn()] {
		return fmt.Errorf("%w: %s has column %s, configured policy is %s",
			types.ErrSchemaMismatch, table, policy.OtherDiscriminatorColumn(), policy)
	}
	required := []string{
		types.ColumnSKU,
		types.ColumnManufacturer,
		types.ColumnManufacturerPartNumber,
		policy.DiscriminatorColumn(),
		types.ColumnCreatedAt,
	}
	if policy == types.PolicyDuplicateFlag {
		required = append(required, types.ColumnSKUKey)
	}
	for _, c := range required {
		if !cols[c] {
			return fmt.Errorf("%w: %s is missing column %s", types.ErrSchemaMismatch, table, c)
		}
	}
	return nil
}
