package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/resolver"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// CountForKey returns the number of rows whose SKU equals sku exactly.
func (b *Backend) CountForKey(ctx context.Context, sku string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0, types.ErrStoreClosed
	}

	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "SKU" = $1`, b.ident())
	if err := b.pool.QueryRow(ctx, q, sku).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries for %q: %w", sku, err)
	}
	return n, nil
}

// lockKey is hashed into the advisory lock that serializes inserts for one
// grouping key in one table.
func lockKey(table, key string) string {
	return table + ":" + key
}

// Insert appends entry inside one transaction. A transaction-scoped
// advisory lock on the grouping key serializes concurrent inserts for the
// same SKU, and the discriminator is computed by the INSERT itself.
func (b *Backend) Insert(ctx context.Context, entry types.PartEntry) (types.PartEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.PartEntry{}, types.ErrStoreClosed
	}

	row := entry
	row.CreatedAt = time.Now().UTC()
	tbl := b.ident()

	err := pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		switch b.policy {
		case types.PolicyDuplicateFlag:
			key := resolver.Normalize(row.SKU)
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(b.table, key)); err != nil {
				return fmt.Errorf("lock %q: %w", key, err)
			}
			q := fmt.Sprintf(`INSERT INTO %[1]s ("SKU", manufacturer, manufacturer_part_number, is_duplicate, sku_key, created_at)
VALUES ($1, $2, $3,
    CASE WHEN EXISTS (SELECT 1 FROM %[1]s WHERE sku_key = $4) THEN 'yes' ELSE 'no' END,
    $4, $5)
RETURNING id, is_duplicate`, tbl)
			var dup string
			if err := tx.QueryRow(ctx, q,
				row.SKU, row.Manufacturer, row.ManufacturerPartNumber, key, row.CreatedAt,
			).Scan(&row.ID, &dup); err != nil {
				return err
			}
			row.Duplicate = types.ParseYesNo(dup)
			row.Sequence = 0
		default:
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(b.table, row.SKU)); err != nil {
				return fmt.Errorf("lock %q: %w", row.SKU, err)
			}
			q := fmt.Sprintf(`INSERT INTO %[1]s ("SKU", manufacturer, manufacturer_part_number, nth_entry, created_at)
SELECT $1::varchar, $2::varchar, $3::varchar, COUNT(*) + 1, $4::timestamptz FROM %[1]s WHERE "SKU" = $1
RETURNING id, nth_entry`, tbl)
			if err := tx.QueryRow(ctx, q,
				row.SKU, row.Manufacturer, row.ManufacturerPartNumber, row.CreatedAt,
			).Scan(&row.ID, &row.Sequence); err != nil {
				return err
			}
			row.Duplicate = false
		}
		return nil
	})
	if err != nil {
		return types.PartEntry{}, fmt.Errorf("insert entry %q: %w", row.SKU, err)
	}

	b.logger.Debug("inserted",
		zap.String("table", b.table),
		zap.Int64("id", row.ID),
		zap.String("sku", row.SKU))
	return row, nil
}

// ListAll returns every row, ordered like the SQLite backend.
func (b *Backend) ListAll(ctx context.Context) ([]types.PartEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}

	tbl := b.ident()
	dupPolicy := b.policy == types.PolicyDuplicateFlag
	var q string
	if dupPolicy {
		q = fmt.Sprintf(`SELECT id, "SKU", manufacturer, manufacturer_part_number, is_duplicate, created_at
FROM %s ORDER BY id DESC`, tbl)
	} else {
		q = fmt.Sprintf(`SELECT id, "SKU", manufacturer, manufacturer_part_number, nth_entry, created_at
FROM %s ORDER BY "SKU", nth_entry DESC`, tbl)
	}

	rows, err := b.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []types.PartEntry{}
	for rows.Next() {
		var (
			e   types.PartEntry
			dup string
		)
		disc := any(&e.Sequence)
		if dupPolicy {
			disc = &dup
		}
		if err := rows.Scan(&e.ID, &e.SKU, &e.Manufacturer, &e.ManufacturerPartNumber, disc, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if dupPolicy {
			e.Duplicate = types.ParseYesNo(dup)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
