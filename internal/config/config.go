package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global configuration for fetching and serving statistics
type Config struct {
	// Upstream API settings
	APIBaseURL     string        `yaml:"api_base_url"`
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RequestDelay   time.Duration `yaml:"request_delay"` // minimum pause between pages

	// Export settings
	ExportDir string `yaml:"export_dir"`

	// Database settings
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBSchema   string `yaml:"db_schema"`

	// HTTP server settings
	ListenAddr string `yaml:"listen_addr"`

	// Logging and metrics
	Verbose         bool          `yaml:"verbose"`
	LogFile         string        `yaml:"log_file"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:      "https://api.openstreetmap.org/api/0.6",
		UserAgent:       "osmstats-go/1.0",
		RequestTimeout:  30 * time.Second,
		RequestDelay:    1100 * time.Millisecond,
		ExportDir:       "./exports",
		DBHost:          "localhost",
		DBPort:          5432,
		DBName:          "osmstats",
		DBUser:          "postgres",
		DBPassword:      "",
		DBSchema:        "public",
		ListenAddr:      ":8080",
		LogFile:         "",
		MetricsInterval: 30 * time.Second,
	}
}

// LoadFile overlays settings from a YAML config file onto the config
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base URL is required")
	}
	if c.RequestDelay < 1100*time.Millisecond {
		return fmt.Errorf("request delay must be at least 1100ms (upstream rate limit)")
	}
	if c.ExportDir == "" {
		return fmt.Errorf("export directory is required")
	}
	return nil
}
