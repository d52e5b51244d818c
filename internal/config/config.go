// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AllowedOrigins is a comma-separated CORS allow list.
	AllowedOrigins string `koanf:"allowed_origins"`

	// DBDriver selects the store: sqlite (embedded file) or postgres.
	DBDriver   string `koanf:"db_driver"`
	DBPath     string `koanf:"db_path"`
	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`

	// UploadDir receives roster CSV files before import.
	UploadDir   string `koanf:"upload_dir"`
	MaxUploadMB int64  `koanf:"max_upload_mb"`

	// Text-generation backend used for custom questions.
	InferenceURL           string  `koanf:"inference_url"`
	InferenceModel         string  `koanf:"inference_model"`
	InferenceTimeoutSec    int     `koanf:"inference_timeout_sec"`
	InferenceTemperature   float64 `koanf:"inference_temperature"`
	InferenceTopK          int     `koanf:"inference_top_k"`
	InferenceTopP          float64 `koanf:"inference_top_p"`
	InferenceRepeatPenalty float64 `koanf:"inference_repeat_penalty"`
	InferenceNumPredict    int     `koanf:"inference_num_predict"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		AllowedOrigins:         "http://localhost:3000,http://localhost:5173",
		DBDriver:               DriverSQLite,
		DBPath:                 "data/gradebook.db",
		DBPort:                 "5432",
		UploadDir:              "uploads",
		MaxUploadMB:            100,
		InferenceURL:           "http://localhost:11434/api/generate",
		InferenceModel:         "deepseek-r1:1.5b",
		InferenceTimeoutSec:    120,
		InferenceTemperature:   0.3,
		InferenceTopK:          40,
		InferenceTopP:          0.9,
		InferenceRepeatPenalty: 1.1,
		InferenceNumPredict:    1024,
	}
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// InferenceTimeout returns the text-generation call bound.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSec) * time.Second
}

// MaxUploadBytes returns the multipart size limit.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// PostgresDSN builds the key/value DSN consumed by the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres:
		return fmt.Errorf("%w: unsupported db_driver %q", ErrInvalidConfig, c.DBDriver)
	case c.DBDriver == DriverSQLite && strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path is required for sqlite", ErrInvalidConfig)
	case c.DBDriver == DriverPostgres && (c.DBHost == "" || c.DBName == ""):
		return fmt.Errorf("%w: db_host and db_name are required for postgres", ErrInvalidConfig)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalidConfig)
	case c.InferenceTimeoutSec <= 0:
		return fmt.Errorf("%w: inference_timeout_sec must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.InferenceURL) == "":
		return fmt.Errorf("%w: inference_url must not be empty", ErrInvalidConfig)
	}
	return nil
}
