// Package view holds the navigation state of the entry form. A State is a
// plain value passed through each request; there is no hidden session.
package view

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// Mode is the screen currently shown.
type Mode int

const (
	// EntryView shows the three-field form.
	EntryView Mode = iota
	// ScannerView waits for a barcode image for Target.
	ScannerView
)

func (m Mode) String() string {
	switch m {
	case EntryView:
		return "entry"
	case ScannerView:
		return "scanner"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Field names a form input a scan can fill.
type Field string

// Form fields.
const (
	FieldSKU          Field = "sku"
	FieldManufacturer Field = "manufacturer"
	FieldPartNumber   Field = "part_number"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldSKU, FieldManufacturer, FieldPartNumber}

// Label is the human name of f.
func (f Field) Label() string {
	switch f {
	case FieldSKU:
		return "SKU"
	case FieldManufacturer:
		return "Manufacturer"
	case FieldPartNumber:
		return "Manufacturer Part Number"
	default:
		return string(f)
	}
}

// ParseField accepts a field name, case-insensitively.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Form holds the values typed or scanned so far.
type Form struct {
	SKU          string
	Manufacturer string
	PartNumber   string
}

// Get returns the value of f.
func (f Form) Get(field Field) string {
	switch field {
	case FieldSKU:
		return f.SKU
	case FieldManufacturer:
		return f.Manufacturer
	case FieldPartNumber:
		return f.PartNumber
	}
	return ""
}

// With returns a copy of f with field set to value.
func (f Form) With(field Field, value string) Form {
	switch field {
	case FieldSKU:
		f.SKU = value
	case FieldManufacturer:
		f.Manufacturer = value
	case FieldPartNumber:
		f.PartNumber = value
	}
	return f
}

// Entry converts the form into a PartEntry ready for submission.
func (f Form) Entry() types.PartEntry {
	return types.PartEntry{
		SKU:                    f.SKU,
		Manufacturer:           f.Manufacturer,
		ManufacturerPartNumber: f.PartNumber,
	}
}

// State is the full navigation state.
type State struct {
	Mode        Mode
	Target      Field
	LastScanned string
	Form        Form
}

// StartScan switches to the scanner for target.
func (s State) StartScan(target Field) State {
	s.Mode = ScannerView
	s.Target = target
	return s
}

// Scanned records a decode attempt. A successful scan fills the target
// field and returns to the entry view; a miss stays on the scanner.
func (s State) Scanned(text string, ok bool) State {
	if s.Mode != ScannerView || !ok {
		return s
	}
	s.LastScanned = text
	s.Form = s.Form.With(s.Target, text)
	s.Mode = EntryView
	s.Target = ""
	return s
}

// Cancel leaves the scanner without changing the form.
func (s State) Cancel() State {
	s.Mode = EntryView
	s.Target = ""
	return s
}

// Saved clears the form after a successful submission. LastScanned is
// kept for display.
func (s State) Saved() State {
	s.Form = Form{}
	s.Mode = EntryView
	s.Target = ""
	return s
}
