// Package config loads grant-harness settings from config.yaml, the
// environment and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// EnvPrefix namespaces environment overrides, e.g. GRANT_HARNESS_STORAGE.
	EnvPrefix = "GRANT_HARNESS"
)

// Config keys.
const (
	KeyStorage         = "storage"
	KeyDataDir         = "data_dir"
	KeyWizard          = "wizard"
	KeyEngine          = "engine"
	KeyTolerance       = "tolerance"
	KeyNamespace       = "namespace"
	KeyLogLevel        = "log_level"
	KeyActivityEnabled = "activity.enabled"
	KeyActivityChannel = "activity.channel"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Defaults applied before config.yaml and the environment.
const (
	DefaultStorage   = StorageSQLite
	DefaultWizard    = "igp"
	DefaultEngine    = "expr"
	DefaultTolerance = 0.01
	DefaultLogLevel  = "warn"
	DefaultChannel   = "wizard"
	databaseFile     = "grant-harness.db"
)

const defaultConfigYAML = `# grant-harness configuration

# Durable storage for wizard progress: sqlite or memory
storage: sqlite

# Directory holding the sqlite database (optional; defaults to the config directory)
# data_dir:

# Wizard opened when --wizard is not given: igp or demo
wizard: igp

# Constraint expression engine: expr, cel or js
engine: expr

# Relative tolerance when budget categories are compared with the declared total
tolerance: 0.01

# Prefix for storage keys, e.g. a profile name
# namespace:

log_level: warn

activity:
  enabled: true
  channel: wizard
`

// Config is the resolved configuration.
type Config struct {
	Dir       string
	Storage   string
	DataDir   string
	Wizard    string
	Engine    string
	Tolerance float64
	Namespace string
	LogLevel  string
	Activity  Activity
}

// Activity controls lifecycle event emission.
type Activity struct {
	Enabled bool
	Channel string
}

// DatabasePath is the sqlite file inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, databaseFile)
}

// Validate rejects unknown backends, engines and negative tolerances.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{StorageSQLite, StorageMemory}, c.Storage) {
		errs = append(errs, fmt.Errorf("config: unknown storage %q", c.Storage))
	}
	if !slices.Contains([]string{"expr", "cel", "js"}, c.Engine) {
		errs = append(errs, fmt.Errorf("config: unknown engine %q", c.Engine))
	}
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("config: tolerance must not be negative, got %v", c.Tolerance))
	}
	if strings.Contains(c.Namespace, "/") {
		errs = append(errs, fmt.Errorf("config: namespace %q must not contain '/'", c.Namespace))
	}
	return errors.Join(errs...)
}

// DefaultDir returns $XDG_CONFIG_HOME/grant-harness or ~/.grant-harness.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "grant-harness"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".grant-harness"), nil
}

// New returns a viper instance with every default registered and
// GRANT_HARNESS_* environment overrides bound. Callers may bind flags to it
// before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyStorage, DefaultStorage)
	v.SetDefault(KeyWizard, DefaultWizard)
	v.SetDefault(KeyEngine, DefaultEngine)
	v.SetDefault(KeyTolerance, DefaultTolerance)
	v.SetDefault(KeyNamespace, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyActivityEnabled, true)
	v.SetDefault(KeyActivityChannel, DefaultChannel)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config.yaml from dir into v, creating the directory and a
// commented default file on first run. A missing file is not an error.
func Load(v *viper.Viper, dir string) (Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Config{}, fmt.Errorf("config: ensure dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return Config{}, fmt.Errorf("config: ensure default config: %w", err)
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := Config{
		Dir:       dir,
		Storage:   strings.ToLower(v.GetString(KeyStorage)),
		DataDir:   v.GetString(KeyDataDir),
		Wizard:    strings.ToLower(v.GetString(KeyWizard)),
		Engine:    strings.ToLower(v.GetString(KeyEngine)),
		Tolerance: v.GetFloat64(KeyTolerance),
		Namespace: v.GetString(KeyNamespace),
		LogLevel:  v.GetString(KeyLogLevel),
		Activity: Activity{
			Enabled: v.GetBool(KeyActivityEnabled),
			Channel: v.GetString(KeyActivityChannel),
		},
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
