package types

import (
	"strings"
	"time"
)

// PartEntry is one submitted row: a SKU with its manufacturer and
// manufacturer part number, plus the discriminator assigned at insert time.
// Only the discriminator matching the table's policy is meaningful.
type PartEntry struct {
	ID                     int64     `json:"id,omitempty"`
	SKU                    string    `json:"sku"`
	Manufacturer           string    `json:"manufacturer"`
	ManufacturerPartNumber string    `json:"manufacturer_part_number"`
	Sequence               int       `json:"nth_entry,omitempty"`
	Duplicate              bool      `json:"is_duplicate,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// Trimmed returns a copy of the entry with surrounding whitespace removed
// from the three user-supplied fields. Case is preserved.
func (e PartEntry) Trimmed() PartEntry {
	e.SKU = strings.TrimSpace(e.SKU)
	e.Manufacturer = strings.TrimSpace(e.Manufacturer)
	e.ManufacturerPartNumber = strings.TrimSpace(e.ManufacturerPartNumber)
	return e
}

// Validate reports ErrValidation, wrapped with the names of the missing
// fields, if any of the three required fields is empty after trimming.
func (e PartEntry) Validate() error {
	t := e.Trimmed()
	var missing []string
	if t.SKU == "" {
		missing = append(missing, ColumnSKU)
	}
	if t.Manufacturer == "" {
		missing = append(missing, ColumnManufacturer)
	}
	if t.ManufacturerPartNumber == "" {
		missing = append(missing, ColumnManufacturerPartNumber)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// DuplicateText renders the duplicate flag the way it is stored and exported.
func (e PartEntry) DuplicateText() string {
	return YesNo(e.Duplicate)
}

// YesNo renders a boolean as the stored "yes"/"no" text.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ParseYesNo is the inverse of YesNo. Anything other than "yes"
// (case-insensitive) is false.
func ParseYesNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}
