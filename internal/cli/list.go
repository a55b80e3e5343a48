package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

func newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored entries",
		Long: `List prints every stored entry. Sequence tables are ordered by SKU and
then newest entry number first; duplicate_flag tables newest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many rows (0 for all)")
	return cmd
}

func runList(cmd *cobra.Command, limit int) error {
	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()
	printNotice(cmd.ErrOrStderr(), svc)

	rows, err := svc.List(cmd.Context())
	if err != nil {
		return sysError("", fmt.Errorf("%s", entry.UserMessage(err)))
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return writeJSON(out, rows)
	}

	policy := svc.Policy()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(types.ExportColumns(policy), "\t"))
	for _, e := range rows {
		disc := fmt.Sprint(e.Sequence)
		if policy == types.PolicyDuplicateFlag {
			disc = e.DuplicateText()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.SKU, e.Manufacturer, e.ManufacturerPartNumber, disc)
	}
	return tw.Flush()
}
