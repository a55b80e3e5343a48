package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFlow(t *testing.T) {
	var s State
	assert.Equal(t, EntryView, s.Mode)

	s = s.StartScan(FieldManufacturer)
	assert.Equal(t, ScannerView, s.Mode)
	assert.Equal(t, FieldManufacturer, s.Target)

	// A miss keeps the scanner open.
	s = s.Scanned("", false)
	assert.Equal(t, ScannerView, s.Mode)

	s = s.Scanned("Siemens", true)
	assert.Equal(t, EntryView, s.Mode)
	assert.Equal(t, "Siemens", s.Form.Manufacturer)
	assert.Equal(t, "Siemens", s.LastScanned)
	assert.Empty(t, s.Target)
}

func TestScannedOutsideScannerIsIgnored(t *testing.T) {
	s := State{Form: Form{SKU: "A"}}
	got := s.Scanned("B", true)
	assert.Equal(t, s, got)
}

func TestCancelAndSaved(t *testing.T) {
	s := State{Form: Form{SKU: "A", Manufacturer: "M", PartNumber: "P"}, LastScanned: "A"}
	s = s.StartScan(FieldSKU).Cancel()
	assert.Equal(t, EntryView, s.Mode)
	assert.Equal(t, "A", s.Form.SKU)

	s = s.Saved()
	assert.Equal(t, Form{}, s.Form)
	assert.Equal(t, "A", s.LastScanned)
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, err := ParseField(" " + string(f) + " ")
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseField("colour")
	assert.Error(t, err)
}

func TestFormEntry(t *testing.T) {
	f := Form{}.With(FieldSKU, "999.000.932").With(FieldManufacturer, "Siemens").With(FieldPartNumber, "L24DF3")
	e := f.Entry()
	assert.Equal(t, "999.000.932", e.SKU)
	assert.Equal(t, "Siemens", e.Manufacturer)
	assert.Equal(t, "L24DF3", e.ManufacturerPartNumber)
	assert.Equal(t, "L24DF3", f.Get(FieldPartNumber))
	assert.Equal(t, "Manufacturer Part Number", FieldPartNumber.Label())
	assert.Equal(t, "scanner", ScannerView.String())
}
