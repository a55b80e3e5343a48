// Package export dumps entries as CSV for download and as JSONL for
// archival. Column names follow the table schema.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// DownloadName is the file name offered for CSV downloads.
const DownloadName = "barcode_entries.csv"

// ContentType is the MIME type of CSV downloads.
const ContentType = "text/csv"

// WriteCSV writes a header row for policy followed by one row per entry.
// An empty slice produces header-only output.
func WriteCSV(w io.Writer, policy types.Policy, entries []types.PartEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.ExportColumns(policy)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(record(policy, e)); err != nil {
			return fmt.Errorf("write row %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the CSV export as bytes.
func CSV(policy types.Policy, entries []types.PartEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, policy, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func record(policy types.Policy, e types.PartEntry) []string {
	disc := strconv.Itoa(e.Sequence)
	if policy == types.PolicyDuplicateFlag {
		disc = e.DuplicateText()
	}
	return []string{e.SKU, e.Manufacturer, e.ManufacturerPartNumber, disc}
}
