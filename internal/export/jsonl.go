package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// jsonlRecord is the per-line shape of a JSONL export. Keys match the
// table columns; only the policy's discriminator is present.
type jsonlRecord struct {
	SKU                    string `json:"SKU"`
	Manufacturer           string `json:"manufacturer"`
	ManufacturerPartNumber string `json:"manufacturer_part_number"`
	NthEntry               *int   `json:"nth_entry,omitempty"`
	IsDuplicate            string `json:"is_duplicate,omitempty"`
	CreatedAt              string `json:"created_at,omitempty"`
}

func toJSONL(policy types.Policy, e types.PartEntry) jsonlRecord {
	r := jsonlRecord{
		SKU:                    e.SKU,
		Manufacturer:           e.Manufacturer,
		ManufacturerPartNumber: e.ManufacturerPartNumber,
	}
	if !e.CreatedAt.IsZero() {
		r.CreatedAt = e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	if policy == types.PolicyDuplicateFlag {
		r.IsDuplicate = e.DuplicateText()
	} else {
		seq := e.Sequence
		r.NthEntry = &seq
	}
	return r
}

// WriteJSONL atomically writes one JSON object per entry to path using
// the temp-file, fsync, rename pattern. A reader never sees a partial file.
func WriteJSONL(path string, policy types.Policy, entries []types.PartEntry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(toJSONL(policy, e)); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteFile writes entries to path, choosing CSV or JSONL by format.
// CSV files are written with the same atomic pattern.
func WriteFile(path, format string, policy types.Policy, entries []types.PartEntry) error {
	switch format {
	case FormatJSONL:
		return WriteJSONL(path, policy, entries)
	case FormatCSV, "":
		data, err := CSV(policy, entries)
		if err != nil {
			return err
		}
		return writeAtomic(path, data)
	default:
		return fmt.Errorf("unknown export format %q (valid: %s, %s)", format, FormatCSV, FormatJSONL)
	}
}

// Export formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
