package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "STOCKPARTS"

	keyBackend    = "backend"
	keyDataDir    = "data_dir"
	keyTable      = "table"
	keyPolicy     = "policy"
	keyDBServer   = "db_server"
	keyDBPort     = "db_port"
	keyDBDatabase = "db_database"
	keyDBUsername = "db_username"
	keyDBPassword = "db_password"
	keyDBSSLMode  = "db_sslmode"
	keyListen     = "listen"
	keyLogLevel   = "log_level"
	keyLogFormat  = "log_format"

	defaultListen = ":8080"
)

// flagKeys binds persistent flags to configuration keys. A set flag wins
// over env and config.yaml.
var flagKeys = map[string]string{
	"backend":    keyBackend,
	"table":      keyTable,
	"policy":     keyPolicy,
	"log-level":  keyLogLevel,
	"log-format": keyLogFormat,
}

// loadConfig reads config.yaml from configDir and STOCKPARTS_* environment
// variables. A missing config.yaml is not an error.
func loadConfig(configDir string, root *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(keyBackend, types.BackendSQLite)
	v.SetDefault(keyTable, types.DefaultTable)
	v.SetDefault(keyPolicy, string(types.DefaultPolicy))
	v.SetDefault(keyDBPort, 5432)
	v.SetDefault(keyDBSSLMode, "prefer")
	v.SetDefault(keyListen, defaultListen)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if root != nil {
		for name, key := range flagKeys {
			if f := root.PersistentFlags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	return v, nil
}

// buildStoreConfig maps configuration keys onto a types.Config.
func buildStoreConfig(v *viper.Viper, dataDir string) types.Config {
	return types.Config{
		Backend: v.GetString(keyBackend),
		DataDir: dataDir,
		Table:   v.GetString(keyTable),
		Policy:  types.Policy(v.GetString(keyPolicy)),
		Postgres: types.PostgresConfig{
			Server:   v.GetString(keyDBServer),
			Port:     v.GetInt(keyDBPort),
			Database: v.GetString(keyDBDatabase),
			Username: v.GetString(keyDBUsername),
			Password: v.GetString(keyDBPassword),
			SSLMode:  v.GetString(keyDBSSLMode),
		},
	}
}

// configFile is the structure written to config.yaml by init. Secrets are
// never written; they come from the environment.
type configFile struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir,omitempty"`
	Table     string `yaml:"table"`
	Policy    string `yaml:"policy"`
	DBServer  string `yaml:"db_server,omitempty"`
	DBPort    int    `yaml:"db_port,omitempty"`
	DBName    string `yaml:"db_database,omitempty"`
	Listen    string `yaml:"listen"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// writeConfigIfMissing creates config.yaml with cfg if the file does not
// exist. An existing file is left alone.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# stockparts configuration. Database secrets are read from\n# STOCKPARTS_DB_USERNAME and STOCKPARTS_DB_PASSWORD.\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}

// classifyOpenError maps store-open failures onto exit codes: bad
// configuration values are the user's to fix, everything else is a system
// error.
func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown),
		errors.Is(err, types.ErrInvalidTable),
		errors.Is(err, types.ErrInvalidPolicy):
		return userError("invalid configuration", err)
	default:
		return sysError("open store", err)
	}
}
