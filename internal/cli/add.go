package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

type addFlags struct {
	sku          string
	manufacturer string
	partNumber   string
}

func newAddCmd() *cobra.Command {
	var af addFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record one part entry",
		Long: `Add validates the three fields and stores one row. Under the sequence
policy the row gets the next entry number for its SKU; under the
duplicate_flag policy it is flagged when the SKU was entered before.

Example:
  stockparts add --sku 999.000.932 --manufacturer Siemens --part-number L24DF3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, types.PartEntry{
				SKU:                    af.sku,
				Manufacturer:           af.manufacturer,
				ManufacturerPartNumber: af.partNumber,
			})
		},
	}
	cmd.Flags().StringVar(&af.sku, "sku", "", "stock keeping unit")
	cmd.Flags().StringVar(&af.manufacturer, "manufacturer", "", "manufacturer name")
	cmd.Flags().StringVar(&af.partNumber, "part-number", "", "manufacturer part number")
	return cmd
}

func runAdd(cmd *cobra.Command, e types.PartEntry) error {
	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Submit(cmd.Context(), e)
	if err != nil {
		return submitError(err)
	}
	return printResult(cmd.OutOrStdout(), res)
}

// submitError maps a Submit failure onto an exit code with the message a
// user sees next to the form.
func submitError(err error) error {
	msg := entry.UserMessage(err)
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		return userError(fmt.Sprintf("%s Missing: %s.", msg, strings.Join(verr.Missing, ", ")), nil)
	case errors.Is(err, types.ErrWritesDisabled):
		return sysError(msg, nil)
	default:
		return sysError("", errors.New(msg))
	}
}

func printResult(w io.Writer, res entry.Result) error {
	if flags.jsonMode {
		return writeJSON(w, res.Entry)
	}
	fmt.Fprintln(w, res.Message())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError("encode JSON", err)
	}
	return nil
}
