package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/resolver"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

func zapTable(table string) zap.Field { return zap.String("table", table) }

// CountForKey returns the number of rows whose SKU equals sku exactly.
func (b *Backend) CountForKey(ctx context.Context, sku string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0, types.ErrStoreClosed
	}

	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "SKU" = ?`, quoteIdent(b.table))
	if err := b.db.QueryRowContext(ctx, q, sku).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries for %q: %w", sku, err)
	}
	return n, nil
}

// Insert appends entry in a single INSERT statement that also computes the
// discriminator, so the count and the write cannot interleave with another
// insert.
func (b *Backend) Insert(ctx context.Context, entry types.PartEntry) (types.PartEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.PartEntry{}, types.ErrStoreClosed
	}

	row := entry
	row.CreatedAt = time.Now().UTC()
	createdAt := row.CreatedAt.Format(time.RFC3339Nano)
	tbl := quoteIdent(b.table)

	switch b.policy {
	case types.PolicyDuplicateFlag:
		// sku_key is written by Go so lookups never depend on SQLite's
		// ASCII-only lower().
		q := fmt.Sprintf(`INSERT INTO %[1]s ("SKU", manufacturer, manufacturer_part_number, is_duplicate, sku_key, created_at)
VALUES (?1, ?2, ?3,
    CASE WHEN EXISTS (SELECT 1 FROM %[1]s WHERE sku_key = ?4) THEN 'yes' ELSE 'no' END,
    ?4, ?5)
RETURNING id, is_duplicate`, tbl)
		var dup string
		err := b.db.QueryRowContext(ctx, q,
			row.SKU, row.Manufacturer, row.ManufacturerPartNumber,
			resolver.Normalize(row.SKU), createdAt,
		).Scan(&row.ID, &dup)
		if err != nil {
			return types.PartEntry{}, fmt.Errorf("insert entry %q: %w", row.SKU, err)
		}
		row.Duplicate = types.ParseYesNo(dup)
		row.Sequence = 0
	default:
		q := fmt.Sprintf(`INSERT INTO %[1]s ("SKU", manufacturer, manufacturer_part_number, nth_entry, created_at)
SELECT ?, ?, ?, COUNT(*) + 1, ? FROM %[1]s WHERE "SKU" = ?
RETURNING id, nth_entry`, tbl)
		err := b.db.QueryRowContext(ctx, q,
			row.SKU, row.Manufacturer, row.ManufacturerPartNumber, createdAt, row.SKU,
		).Scan(&row.ID, &row.Sequence)
		if err != nil {
			return types.PartEntry{}, fmt.Errorf("insert entry %q: %w", row.SKU, err)
		}
		row.Duplicate = false
	}

	b.logger.Debug("inserted",
		zapTable(b.table),
		zap.Int64("id", row.ID),
		zap.String("sku", row.SKU))
	return row, nil
}

// ListAll returns every row. Sequence tables are ordered by SKU then
// nth_entry descending; duplicate-flag tables newest first.
func (b *Backend) ListAll(ctx context.Context) ([]types.PartEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}

	tbl := quoteIdent(b.table)
	var q string
	if b.policy == types.PolicyDuplicateFlag {
		q = fmt.Sprintf(`SELECT id, "SKU", manufacturer, manufacturer_part_number, is_duplicate, created_at
FROM %s ORDER BY id DESC`, tbl)
	} else {
		q = fmt.Sprintf(`SELECT id, "SKU", manufacturer, manufacturer_part_number, nth_entry, created_at
FROM %s ORDER BY "SKU", nth_entry DESC`, tbl)
	}

	rows, err := b.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []types.PartEntry{}
	for rows.Next() {
		e, err := b.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (b *Backend) scanEntry(rows *sql.Rows) (types.PartEntry, error) {
	var (
		e         types.PartEntry
		disc      any
		createdAt string
	)
	if err := rows.Scan(&e.ID, &e.SKU, &e.Manufacturer, &e.ManufacturerPartNumber, &disc, &createdAt); err != nil {
		return types.PartEntry{}, fmt.Errorf("scan entry: %w", err)
	}
	switch v := disc.(type) {
	case int64:
		e.Sequence = int(v)
	case string:
		e.Duplicate = types.ParseYesNo(v)
	case []byte:
		e.Duplicate = types.ParseYesNo(string(v))
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return types.PartEntry{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}
