package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/metrics"
	"github.com/mesh-intelligence/stockparts/internal/scan"
)

// newDecoder is replaced in tests.
var newDecoder = func() scan.Decoder { return scan.NewZXingDecoder() }

func newScanCmd() *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Decode a barcode from a PNG, JPEG or GIF image",
		Long: `Scan prints the text of the first barcode found in the image. With
--preview the text is treated as a SKU and the entry it would receive is
shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], preview)
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "show the entry the decoded SKU would receive")
	return cmd
}

func runScan(cmd *cobra.Command, path string, preview bool) error {
	dec := scan.Instrument(newDecoder(), metrics.New(prometheus.NewRegistry()), rt.logger)
	text, ok, err := scan.DecodeFile(dec, path)
	if err != nil {
		return userError("read image", err)
	}
	if !ok {
		return userError("no barcode detected in "+path, nil)
	}

	out := cmd.OutOrStdout()
	if !preview {
		if flags.jsonMode {
			return writeJSON(out, map[string]string{"text": text})
		}
		fmt.Fprintln(out, text)
		return nil
	}

	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()
	d, err := svc.Preview(cmd.Context(), text)
	if err != nil {
		return sysError("preview", err)
	}
	if flags.jsonMode {
		return writeJSON(out, map[string]any{"text": text, "next": d.Sequence, "duplicate": d.Duplicate})
	}
	fmt.Fprintf(out, "%s\n%s\n", text, d.Describe(text))
	return nil
}
