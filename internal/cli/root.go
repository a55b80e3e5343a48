// Package cli implements the stockparts command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/logging"
	"github.com/mesh-intelligence/stockparts/internal/paths"
	"github.com/mesh-intelligence/stockparts/pkg/stockparts"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	table     string
	policy    string
	logLevel  string
	logFormat string
	jsonMode  bool
}

// invocation is what PersistentPreRunE resolves once per invocation.
type invocation struct {
	configDir string
	dataDir   string
	v         *viper.Viper
	logger    *zap.Logger
}

var (
	flags rootFlags
	rt    invocation
)

// NewRootCmd creates the top-level "stockparts" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	rt = invocation{}

	root := &cobra.Command{
		Use:   "stockparts",
		Short: "Record stock parts by SKU, manufacturer and part number",
		Long: "stockparts records SKU, manufacturer and manufacturer part number triples\n" +
			"in one table, numbering repeat SKUs or flagging them as duplicates.",
		Version: stockparts.Version,
		// Errors are printed by Execute with their exit code.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.StringVar(&flags.backend, "backend", "", "record store backend: sqlite, postgres or memory")
	pf.StringVar(&flags.table, "table", "", "table name (default: "+types.DefaultTable+")")
	pf.StringVar(&flags.policy, "policy", "", "entry policy: sequence or duplicate_flag")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: json or console")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newCountCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newEntryCmd())
	root.AddCommand(newServeCmd())

	return root
}

// Execute runs the root command and exits with the mapped code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(ExitCode(err))
}

// setup resolves directories, loads configuration and builds the logger.
func setup(cmd *cobra.Command) error {
	dirs, err := paths.Resolve(flags.configDir, flags.dataDir)
	if err != nil {
		return sysError("resolve directories", err)
	}
	v, err := loadConfig(dirs.ConfigDir, cmd.Root())
	if err != nil {
		return sysError("load config", err)
	}

	rt = invocation{
		configDir: dirs.ConfigDir,
		dataDir:   dirs.DataDir,
		v:         v,
		logger: logging.New(logging.Config{
			Level:  v.GetString(keyLogLevel),
			Format: v.GetString(keyLogFormat),
		}, cmd.ErrOrStderr()),
	}
	rt.logger.Debug("directories resolved",
		zap.String("config_file", dirs.ConfigFile),
		zap.String("data_dir", dirs.DataDir),
		zap.String("data_dir_source", string(dirs.DataDirSource)))
	return nil
}

// storeConfig builds the record store configuration for this invocation.
func storeConfig() types.Config {
	return buildStoreConfig(rt.v, rt.dataDir)
}

// openService opens the configured store. Missing postgres secrets yield a
// reporting-only service rather than an error.
func openService(ctx context.Context) (*entry.Service, error) {
	svc, err := stockparts.OpenService(ctx, storeConfig(), rt.logger)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	return svc, nil
}

func printNotice(w io.Writer, svc *entry.Service) {
	if n := svc.Notice(); n != "" {
		fmt.Fprintln(w, "Notice:", n)
	}
}
