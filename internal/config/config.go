// Package config loads pubtrend settings from defaults, an optional
// pubtrend.yaml, PUBTREND_* environment variables and command flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys understood by Load.
const (
	KeyBackendURL     = "backend_url"
	KeyMaxResults     = "max_results"
	KeyHTTPTimeout    = "http_timeout"
	KeyRequestRate    = "request_rate"
	KeyDataDir        = "data_dir"
	KeyLogLevel       = "log_level"
	KeyServeAddr      = "serve.addr"
	KeyServeDB        = "serve.db"
	KeyServeCatalog   = "serve.catalog"
	KeyWorkerInterval = "serve.worker_interval"
	KeyTrendYears     = "serve.trend_years"
)

// EnvPrefix is prepended to every environment override (PUBTREND_BACKEND_URL).
const EnvPrefix = "PUBTREND"

// Config is the resolved application configuration.
type Config struct {
	BackendURL  string        `mapstructure:"backend_url"`
	MaxResults  int           `mapstructure:"max_results"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	RequestRate float64       `mapstructure:"request_rate"`
	DataDir     string        `mapstructure:"data_dir"`
	LogLevel    string        `mapstructure:"log_level"`
	Serve       ServeConfig   `mapstructure:"serve"`
}

// ServeConfig holds the development backend settings.
type ServeConfig struct {
	Addr           string        `mapstructure:"addr"`
	DB             string        `mapstructure:"db"`
	Catalog        string        `mapstructure:"catalog"`
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	TrendYears     int           `mapstructure:"trend_years"`
}

// DefaultDataDir returns ~/.pubtrend, or .pubtrend when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pubtrend"
	}
	return filepath.Join(home, ".pubtrend")
}

// SetDefaults registers every default on v and enables env overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackendURL, "http://localhost:5000")
	v.SetDefault(KeyMaxResults, 20)
	v.SetDefault(KeyHTTPTimeout, 30*time.Second)
	v.SetDefault(KeyRequestRate, 2.0)
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyServeAddr, ":5000")
	v.SetDefault(KeyServeDB, "")
	v.SetDefault(KeyServeCatalog, "")
	v.SetDefault(KeyWorkerInterval, 5*time.Second)
	v.SetDefault(KeyTrendYears, 20)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// AddSearchPaths points v at pubtrend.yaml in the working directory and
// ~/.config/pubtrend, or at file when it is non-empty.
func AddSearchPaths(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
		return
	}
	v.SetConfigName("pubtrend")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pubtrend"))
	}
}

// Read loads the config file if one exists. A missing file is not an error.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Serve.DB == "" {
		cfg.Serve.DB = filepath.Join(cfg.DataDir, "jobs.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("config: backend_url is empty")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("config: max_results must be positive, got %d", c.MaxResults)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir is empty")
	}
	if c.Serve.WorkerInterval <= 0 {
		return fmt.Errorf("config: serve.worker_interval must be positive, got %s", c.Serve.WorkerInterval)
	}
	if c.Serve.TrendYears <= 0 {
		return fmt.Errorf("config: serve.trend_years must be positive, got %d", c.Serve.TrendYears)
	}
	return nil
}
