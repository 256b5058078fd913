package config

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address             string        `mapstructure:"address"`
	ReloadRatePerMinute float64       `mapstructure:"reload_rate_per_minute"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig points at the source table
type DataConfig struct {
	Path      string `mapstructure:"path"`
	Delimiter string `mapstructure:"delimiter"`
	Sheet     string `mapstructure:"sheet"`
}

// DashboardConfig selects the aggregated fields and the histogram bin width
type DashboardConfig struct {
	CategoryField string  `mapstructure:"category_field"`
	NumericField  string  `mapstructure:"numeric_field"`
	BinWidth      float64 `mapstructure:"bin_width"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and environment variables.
// Environment variables use the CARDASH_ prefix, e.g. CARDASH_DASHBOARD_BIN_WIDTH.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CARDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.reload_rate_per_minute", 6)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("data.path", "data/used_cars.csv")
	v.SetDefault("data.delimiter", "")
	v.SetDefault("data.sheet", "")

	v.SetDefault("dashboard.category_field", "body_type")
	v.SetDefault("dashboard.numeric_field", "Price_USD")
	v.SetDefault("dashboard.bin_width", 5000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Server.ReloadRatePerMinute <= 0 {
		return fmt.Errorf("server.reload_rate_per_minute must be positive")
	}

	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if d := c.Data.Delimiter; d != `\t` && utf8.RuneCountInString(d) > 1 {
		return fmt.Errorf("data.delimiter must be a single character")
	}

	if c.Dashboard.CategoryField == "" {
		return fmt.Errorf("dashboard.category_field is required")
	}
	if c.Dashboard.NumericField == "" {
		return fmt.Errorf("dashboard.numeric_field is required")
	}
	if w := c.Dashboard.BinWidth; w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("dashboard.bin_width must be a positive number, got %v", w)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// DelimiterRune returns the configured delimiter, or 0 to sniff it.
func (d DataConfig) DelimiterRune() rune {
	if d.Delimiter == "" {
		return 0
	}
	if d.Delimiter == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(d.Delimiter)
	return r
}
