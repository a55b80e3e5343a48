package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/metrics"
	"github.com/mesh-intelligence/stockparts/internal/scan"
	"github.com/mesh-intelligence/stockparts/internal/server"
	"github.com/mesh-intelligence/stockparts/pkg/stockparts"
)

func newServeCmd() *cobra.Command {
	var (
		listen string
		recent int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web entry form",
		Long: `Serve starts the HTTP front end: the entry form with barcode upload, the
recent entries table, CSV download at /export.csv, Prometheus metrics at
/metrics and a health check at /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listen") {
				listen = rt.v.GetString(keyListen)
			}
			return runServe(cmd, listen, recent)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", defaultListen, "listen address")
	cmd.Flags().IntVar(&recent, "recent", server.DefaultRecentRows, "rows shown in the recent entries table")
	return cmd
}

func runServe(cmd *cobra.Command, listen string, recent int) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc, err := stockparts.OpenService(cmd.Context(), storeConfig(), rt.logger, entry.WithMetrics(m))
	if err != nil {
		return classifyOpenError(err)
	}
	defer svc.Close()

	srv, err := server.New(server.Config{
		Service:    svc,
		Decoder:    scan.Instrument(newDecoder(), m, rt.logger.Named("scan")),
		Gatherer:   reg,
		Logger:     rt.logger.Named("http"),
		RecentRows: recent,
	})
	if err != nil {
		return sysError("build server", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.logger.Info("serving",
		zap.String("listen", listen),
		zap.String("policy", svc.Policy().String()),
		zap.Bool("writable", svc.Writable()))
	if err := srv.ListenAndServe(ctx, listen); err != nil {
		return sysError("serve", err)
	}
	return nil
}
