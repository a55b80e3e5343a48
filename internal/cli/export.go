package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entries as CSV or JSONL",
		Long: `Export writes every entry with a header matching the table columns. An
empty table produces a header-only CSV. Use --output - to write CSV to
stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, format, output)
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "export format: csv or jsonl")
	cmd.Flags().StringVarP(&output, "output", "o", export.DownloadName, "output file, or - for stdout")
	return cmd
}

func runExport(cmd *cobra.Command, format, output string) error {
	if format != export.FormatCSV && format != export.FormatJSONL {
		return userError(fmt.Sprintf("unknown format %q (valid: %s, %s)", format, export.FormatCSV, export.FormatJSONL), nil)
	}
	if output == "-" && format != export.FormatCSV {
		return userError("stdout output is only supported for csv", nil)
	}

	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	rows, err := svc.List(cmd.Context())
	if err != nil {
		return sysError("", fmt.Errorf("%s", entry.UserMessage(err)))
	}

	if output == "-" {
		if err := export.WriteCSV(cmd.OutOrStdout(), svc.Policy(), rows); err != nil {
			return sysError("write export", err)
		}
		return nil
	}
	if err := export.WriteFile(output, format, svc.Policy(), rows); err != nil {
		return sysError("write export", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(rows), output)
	return nil
}
