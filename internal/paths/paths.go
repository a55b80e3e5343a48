// Package paths locates the stockparts configuration directory, the
// config.yaml inside it, and the data directory that holds the SQLite
// database.
//
// The data directory is chosen by precedence: --data-dir flag, data_dir in
// config.yaml, STOCKPARTS_DATA_DIR, then .stockparts-db under the working
// directory so a workstation keeps its database next to where the tool runs.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName names the per-user configuration directory.
const AppName = "stockparts"

// DefaultDataDirName is created under the working directory when nothing
// else names a data directory.
const DefaultDataDirName = ".stockparts-db"

// ConfigFileName is the file read from the configuration directory.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STOCKPARTS_CONFIG_DIR"
	EnvDataDir   = "STOCKPARTS_DATA_DIR"
)

// Source records which setting chose a directory.
type Source string

const (
	SourceFlag       Source = "flag"
	SourceConfigFile Source = "config.yaml"
	SourceEnv        Source = "env"
	SourceDefault    Source = "default"
)

// Dirs is the directory layout for one invocation.
type Dirs struct {
	ConfigDir     string
	ConfigFile    string
	DataDir       string
	DataDirSource Source
}

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// Resolve picks the configuration directory from configFlag, then reads
// config.yaml there to pick the data directory. A missing config.yaml is
// not an error; a malformed one is.
func Resolve(configFlag, dataFlag string) (Dirs, error) {
	configDir, err := ResolveConfigDir(configFlag)
	if err != nil {
		return Dirs{}, fmt.Errorf("config dir: %w", err)
	}
	fromFile, err := ReadDataDir(configDir)
	if err != nil {
		return Dirs{}, err
	}
	dataDir, src, err := ResolveDataDir(dataFlag, fromFile)
	if err != nil {
		return Dirs{}, fmt.Errorf("data dir: %w", err)
	}
	return Dirs{
		ConfigDir:     configDir,
		ConfigFile:    ConfigFile(configDir),
		DataDir:       dataDir,
		DataDirSource: src,
	}, nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/stockparts (fallback ~/.config/stockparts)
// macOS:   ~/Library/Application Support/stockparts
// Windows: %APPDATA%/stockparts
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// STOCKPARTS_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return absDir(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return absDir(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies the data directory precedence to an explicit flag
// and the value read from config.yaml, and reports which one won.
func ResolveDataDir(flag, fromConfig string) (string, Source, error) {
	if flag != "" {
		dir, err := absDir(flag)
		return dir, SourceFlag, err
	}
	if fromConfig != "" {
		dir, err := absDir(fromConfig)
		return dir, SourceConfigFile, err
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		dir, err := absDir(env)
		return dir, SourceEnv, err
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", SourceDefault, err
	}
	return filepath.Join(cwd, DefaultDataDirName), SourceDefault, nil
}

// fileSettings is the part of config.yaml this package reads. Everything
// else in the file belongs to the command layer.
type fileSettings struct {
	DataDir string `yaml:"data_dir"`
}

// ReadDataDir returns data_dir from config.yaml in configDir, or "" when
// the file or the key is absent. A relative value is taken relative to
// configDir, so the file means the same thing wherever the tool is run.
func ReadDataDir(configDir string) (string, error) {
	path := ConfigFile(configDir)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	var s fileSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	dir := strings.TrimSpace(s.DataDir)
	if dir == "" {
		return "", nil
	}
	dir, err = expandHome(dir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(configDir, dir)
	}
	return filepath.Clean(dir), nil
}

// ConfigFile returns the path of config.yaml inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

func absDir(dir string) (string, error) {
	dir, err := expandHome(dir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", dir, err)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}
