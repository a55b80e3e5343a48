package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize stockparts configuration and storage",
		Long: "Create the configuration directory and config.yaml, then create the\n" +
			"entry table if it does not exist. Existing data is never touched.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(rt.configDir, 0o755); err != nil {
		return sysError("create config directory", err)
	}

	cfg := storeConfig()
	configPath := paths.ConfigFile(rt.configDir)
	created, err := writeConfigIfMissing(configPath, configFile{
		Backend:   cfg.Backend,
		DataDir:   rt.dataDir,
		Table:     cfg.TableName(),
		Policy:    string(cfg.EntryPolicy()),
		DBServer:  cfg.Postgres.Server,
		DBPort:    cfg.Postgres.Port,
		DBName:    cfg.Postgres.Database,
		Listen:    rt.v.GetString(keyListen),
		LogLevel:  rt.v.GetString(keyLogLevel),
		LogFormat: rt.v.GetString(keyLogFormat),
	})
	if err != nil {
		return sysError("write config", err)
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	}

	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()
	printNotice(cmd.OutOrStdout(), svc)

	fmt.Fprintf(cmd.OutOrStdout(), "stockparts initialized (backend %s, table %s, policy %s)\n",
		cfg.Backend, cfg.TableName(), svc.Policy())
	return nil
}
