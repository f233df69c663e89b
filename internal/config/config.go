package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/tablestat/internal/datasource"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
	// Per-query deadline; 0 disables it.
	QueryTimeoutSec int `mapstructure:"query_timeout_sec" yaml:"query_timeout_sec"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"driver", "host", "port", "database", "user", "password", "sslmode", "query_timeout_sec"}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tablestat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tablestat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := safeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// safeWriteFile writes data to a temp file and atomically renames it into place.
func safeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLESTAT")
	v.AutomaticEnv()

	// Defaults match the local demo database.
	v.SetDefault("driver", datasource.DriverPostgres)
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 5432)
	v.SetDefault("database", "postgres")
	v.SetDefault("user", "postgres")
	v.SetDefault("password", "password123")
	v.SetDefault("sslmode", "disable")
	v.SetDefault("query_timeout_sec", 30)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate checks the settings needed to build a data source.
func (c *Global) Validate() error {
	switch strings.ToLower(c.Driver) {
	case datasource.DriverPostgres, datasource.DriverSQLite:
	default:
		return fmt.Errorf("invalid driver: %s (use postgres or sqlite)", c.Driver)
	}
	if strings.ToLower(c.Driver) == datasource.DriverPostgres && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database must not be empty")
	}
	if c.QueryTimeoutSec < 0 {
		return fmt.Errorf("query_timeout_sec cannot be negative")
	}
	return nil
}

// DataSource converts the configuration into a datasource.Config.
func (c *Global) DataSource() datasource.Config {
	return datasource.Config{
		Driver:       strings.ToLower(c.Driver),
		Host:         c.Host,
		Port:         c.Port,
		Database:     c.Database,
		User:         c.User,
		Password:     c.Password,
		SSLMode:      c.SSLMode,
		QueryTimeout: time.Duration(c.QueryTimeoutSec) * time.Second,
	}
}
