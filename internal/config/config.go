// Package config provides configuration management for the employees API.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the employees API.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Storage     StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Remote      RemoteConfig      `mapstructure:"remote" yaml:"remote"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter" yaml:"rate_limiter"`
	CORS        CORSConfig        `mapstructure:"cors" yaml:"cors"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StorageConfig holds the local spreadsheet configuration.
type StorageConfig struct {
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	ScratchDir string `mapstructure:"scratch_dir" yaml:"scratch_dir"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
}

// RemoteConfig holds the object store mirror configuration. None of these
// settings is validated at load time: a missing value only disables syncing.
type RemoteConfig struct {
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	Bucket          string        `mapstructure:"bucket" yaml:"bucket"`
	InstanceID      string        `mapstructure:"instance_id" yaml:"instance_id"`
	ObjectName      string        `mapstructure:"object_name" yaml:"object_name"`
	Region          string        `mapstructure:"region" yaml:"region"`
	IAMEndpoint     string        `mapstructure:"iam_endpoint" yaml:"iam_endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	PathStyle       bool          `mapstructure:"path_style" yaml:"path_style"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port" yaml:"port"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// legacyEnv maps config keys to the variable names used by earlier
// deployments of the service. A prefixed EMPLOYEES_* variable still wins.
var legacyEnv = map[string]string{
	"remote.endpoint":    "COS_ENDPOINT",
	"remote.api_key":     "COS_API_KEY",
	"remote.bucket":      "COS_BUCKET",
	"remote.instance_id": "COS_RESOURCE_INSTANCE_ID",
	"remote.object_name": "EXCEL_OBJECT_NAME",
	"logging.level":      "LOG_LEVEL",
	"logging.format":     "LOG_FORMAT",
}

const envPrefix = "EMPLOYEES"

// Load reads configuration from .env, an optional file and environment variables.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/employees-api/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Storage.ScratchDir == "" {
		cfg.Storage.ScratchDir = filepath.Join(filepath.Dir(cfg.Storage.FilePath), ".tmp")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Storage defaults
	v.SetDefault("storage.file_path", "data/employees.xlsx")
	v.SetDefault("storage.scratch_dir", "")
	v.SetDefault("storage.sheet_name", "Sheet1")

	// Remote defaults
	v.SetDefault("remote.endpoint", "")
	v.SetDefault("remote.api_key", "")
	v.SetDefault("remote.bucket", "")
	v.SetDefault("remote.instance_id", "")
	v.SetDefault("remote.object_name", "employees.xlsx")
	v.SetDefault("remote.region", "us-standard")
	v.SetDefault("remote.iam_endpoint", "https://iam.cloud.ibm.com/identity/token")
	v.SetDefault("remote.access_key_id", "")
	v.SetDefault("remote.secret_access_key", "")
	v.SetDefault("remote.path_style", true)
	v.SetDefault("remote.timeout", "60s")

	// Rate limiter defaults
	v.SetDefault("rate_limiter.enabled", false)
	v.SetDefault("rate_limiter.requests_per_second", 100.0)
	v.SetDefault("rate_limiter.burst_size", 50)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive")
	}

	if c.Storage.FilePath == "" {
		return fmt.Errorf("storage file path is required")
	}

	if c.Storage.SheetName == "" {
		return fmt.Errorf("storage sheet name is required")
	}

	if c.Remote.ObjectName == "" {
		return fmt.Errorf("remote object name is required")
	}

	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return fmt.Errorf("metrics port must differ from server port")
		}
	}

	return nil
}

// Redacted returns a copy of the configuration with secrets masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Remote.APIKey = mask(c.Remote.APIKey)
	c.Remote.SecretAccessKey = mask(c.Remote.SecretAccessKey)
	c.CORS.AllowedOrigins = append([]string(nil), c.CORS.AllowedOrigins...)
	return c
}

// YAML renders the redacted configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
