package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/entry"
)

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <sku>",
		Short: "Count entries for a SKU and preview the next one",
		Args:  cobra.ExactArgs(1),
		RunE:  runCount,
	}
}

func runCount(cmd *cobra.Command, args []string) error {
	sku := args[0]
	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	n, err := svc.Count(cmd.Context(), sku)
	if err != nil {
		return sysError("", fmt.Errorf("%s", entry.UserMessage(err)))
	}
	d, err := svc.Preview(cmd.Context(), sku)
	if err != nil {
		return sysError("", fmt.Errorf("%s", entry.UserMessage(err)))
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return writeJSON(out, map[string]any{
			"sku":       sku,
			"count":     n,
			"policy":    d.Policy,
			"next":      d.Sequence,
			"duplicate": d.Duplicate,
		})
	}
	fmt.Fprintf(out, "%d\n%s\n", n, d.Describe(sku))
	return nil
}
