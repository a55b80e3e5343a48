package types

import "regexp"

// Column names. These are the wire contract for export and import tooling.
const (
	ColumnID                     = "id"
	ColumnSKU                    = "SKU"
	ColumnManufacturer           = "manufacturer"
	ColumnManufacturerPartNumber = "manufacturer_part_number"
	ColumnNthEntry               = "nth_entry"
	ColumnIsDuplicate            = "is_duplicate"
	ColumnCreatedAt              = "created_at"

	// ColumnSKUKey holds the normalized SKU on duplicate-flag tables. It
	// is internal and never exported.
	ColumnSKUKey = "sku_key"
)

// DefaultTable is the table name used when configuration does not name one.
const DefaultTable = "StockOfParts"

// ExportColumns lists the exported columns, in order, for a policy.
func ExportColumns(p Policy) []string {
	return []string{
		ColumnSKU,
		ColumnManufacturer,
		ColumnManufacturerPartNumber,
		p.DiscriminatorColumn(),
	}
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateTableName rejects names that cannot be used verbatim as a quoted
// SQL identifier.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return ErrInvalidTable
	}
	return nil
}
