package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/stratbench/internal/core"
)

// Custom strategy backends
const (
	BackendMemory   = "memory"
	BackendArchive  = "archive"
	BackendPostgres = "postgres"
)

// Archive types
const (
	ArchiveLocalFS = "localfs"
	ArchiveS3      = "s3"
)

// Config is the root configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Collector CollectorConfig `mapstructure:"collector"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// BacktestConfig holds simulation defaults applied when a request omits them.
type BacktestConfig struct {
	InitialCapital  float64       `mapstructure:"initial_capital"`
	PositionSizePct float64       `mapstructure:"position_size_pct"`
	FeePct          float64       `mapstructure:"fee_pct"`
	DefaultInterval string        `mapstructure:"default_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects where custom strategies live
type StorageConfig struct {
	Custom   string         `mapstructure:"custom"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// ArchiveConfig holds blob storage settings
type ArchiveConfig struct {
	Type string   `mapstructure:"type"`
	Path string   `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// PostgresConfig holds the database connection string
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CollectorConfig selects and configures the candle source
type CollectorConfig struct {
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	Kite     KiteConfig    `mapstructure:"kite"`
	CSV      CSVConfig     `mapstructure:"csv"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// KiteConfig holds Kite Connect credentials
type KiteConfig struct {
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
}

// CSVConfig points at a directory of <instrument>.csv files
type CSVConfig struct {
	Dir string `mapstructure:"dir"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HistoryConfig bounds the in-memory result history
type HistoryConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

// LogConfig selects the log level and encoder
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("stratbench")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default so env overrides work without a file entry
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.job_ttl_hours", d.Server.JobTTLHours)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)

	v.SetDefault("backtest.initial_capital", d.Backtest.InitialCapital)
	v.SetDefault("backtest.position_size_pct", d.Backtest.PositionSizePct)
	v.SetDefault("backtest.fee_pct", d.Backtest.FeePct)
	v.SetDefault("backtest.default_interval", d.Backtest.DefaultInterval)
	v.SetDefault("backtest.timeout", d.Backtest.Timeout)

	v.SetDefault("storage.custom", d.Storage.Custom)
	v.SetDefault("storage.archive.type", d.Storage.Archive.Type)
	v.SetDefault("storage.archive.path", d.Storage.Archive.Path)
	v.SetDefault("storage.archive.s3.region", d.Storage.Archive.S3.Region)
	v.SetDefault("storage.postgres.dsn", d.Storage.Postgres.DSN)

	v.SetDefault("collector.provider", d.Collector.Provider)
	v.SetDefault("collector.base_url", d.Collector.BaseURL)
	v.SetDefault("collector.kite.api_key", d.Collector.Kite.APIKey)
	v.SetDefault("collector.kite.access_token", d.Collector.Kite.AccessToken)
	v.SetDefault("collector.csv.dir", d.Collector.CSV.Dir)
	v.SetDefault("collector.timeout", d.Collector.Timeout)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("history.max_results", d.History.MaxResults)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Backtest: BacktestConfig{
			InitialCapital:  100000,
			PositionSizePct: 95,
			FeePct:          0.03,
			DefaultInterval: "day",
			Timeout:         5 * time.Minute,
		},
		Storage: StorageConfig{
			Custom: BackendMemory,
			Archive: ArchiveConfig{
				Type: ArchiveLocalFS,
				Path: "./data/archive",
				S3:   S3Config{Region: "us-east-1"},
			},
		},
		Collector: CollectorConfig{
			Provider: "yahoo",
			Timeout:  15 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		History: HistoryConfig{
			MaxResults: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.JobTTLHours < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("job_ttl_hours cannot be negative, got %d", c.Server.JobTTLHours))
	}
	if c.Server.MaxJobs < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_jobs cannot be negative, got %d", c.Server.MaxJobs))
	}

	if err := c.Backtest.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Collector.validate(); err != nil {
		return err
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics path must start with /, got %q", c.Metrics.Path))
	}
	if c.History.MaxResults < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("history max_results cannot be negative, got %d", c.History.MaxResults))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	return nil
}

func (b BacktestConfig) validate() error {
	if b.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %f", b.InitialCapital))
	}
	if b.PositionSizePct <= 0 || b.PositionSizePct > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("position_size_pct must be in (0, 100], got %f", b.PositionSizePct))
	}
	if b.FeePct < 0 || b.FeePct >= 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fee_pct must be in [0, 100), got %f", b.FeePct))
	}
	if b.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backtest timeout cannot be negative, got %s", b.Timeout))
	}
	return nil
}

func (s StorageConfig) validate() error {
	switch s.Custom {
	case "", BackendMemory:
	case BackendArchive:
		switch s.Archive.Type {
		case "", ArchiveLocalFS:
			if s.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs storage"))
			}
		case ArchiveS3:
			if s.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required for s3 storage"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type %q", s.Archive.Type))
		}
	case BackendPostgres:
		if s.Postgres.DSN == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("postgres dsn required when custom storage is postgres"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown custom strategy storage %q", s.Custom))
	}
	return nil
}

func (c CollectorConfig) validate() error {
	switch c.Provider {
	case "yahoo", "binance":
	case "kite":
		if c.Kite.APIKey == "" || c.Kite.AccessToken == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("kite api_key and access_token required when provider is kite"))
		}
	case "csv":
		if c.CSV.Dir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("csv dir required when provider is csv"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown collector provider %q", c.Provider))
	}
	if c.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("collector timeout cannot be negative, got %s", c.Timeout))
	}
	return nil
}
