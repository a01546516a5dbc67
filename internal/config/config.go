package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/existflow/wedplan/internal/logger"
)

// DirName is the per-user state directory under $HOME.
const DirName = ".wedplan"

// Config holds user preferences
type Config struct {
	ServerURL       string        `yaml:"server_url" json:"server_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"` // TUI background refetch
	ConfirmDelete   bool          `yaml:"confirm_delete" json:"confirm_delete"`
	DefaultSort     string        `yaml:"default_sort" json:"default_sort"` // initial task sort key

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns ~/.wedplan.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// DefaultConfig returns default settings with env overrides applied
func DefaultConfig() *Config {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "wedplan.log")
	}

	return &Config{
		ServerURL:       getEnv("WEDPLAN_SERVER_URL", "http://localhost:8080"),
		RequestTimeout:  getDuration("WEDPLAN_REQUEST_TIMEOUT", 30*time.Second),
		RefreshInterval: getDuration("WEDPLAN_REFRESH_INTERVAL", 30*time.Second),
		ConfirmDelete:   true,
		DefaultSort:     "created_at",
		LogLevel:        getEnv("WEDPLAN_LOG_LEVEL", "INFO"),
		LogFile:         getEnv("WEDPLAN_LOG_FILE", logPath),
		LogConsole:      getEnv("WEDPLAN_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Path returns the config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.wedplan/config.yaml
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads config from path, returning defaults if it does not exist
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.wedplan/config.yaml
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Logger builds the logger configuration from these settings
func (c *Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.LogLevel)
	lc.FilePath = c.LogFile
	lc.Console = c.LogConsole
	return lc
}
