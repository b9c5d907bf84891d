package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittofd/pkg/gc"
	"github.com/spf13/viper"
)

// Config represents the complete dittofd configuration.
//
// This structure captures all configurable aspects of a dittofd kernel:
//   - Logging configuration
//   - Kernel limits and syscall throttling
//   - The console device behind the standard streams
//   - Content store selection and configuration (store-specific)
//   - Metadata store selection and configuration (store-specific)
//   - Metrics and orphaned-content collection
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOFD_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type. The Config
// struct contains type-specific sections (e.g., content.filesystem,
// content.s3) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Kernel contains descriptor table and syscall settings
	Kernel KernelConfig `mapstructure:"kernel" yaml:"kernel"`

	// Console configures the console device used for standard streams
	Console ConsoleConfig `mapstructure:"console" yaml:"console"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Metadata specifies the metadata store type and type-specific configuration
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// GC controls orphaned-content collection
	GC gc.Config `mapstructure:"gc" yaml:"gc"`

	// ShutdownTimeout is the maximum time to wait for processes to exit
	// and stores to close
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// KernelConfig contains per-process and syscall-entry settings.
type KernelConfig struct {
	// MaxDescriptors is the size of each process's descriptor table
	MaxDescriptors int `mapstructure:"max_descriptors" yaml:"max_descriptors" validate:"min=3,max=65536"`

	// MaxPathLen bounds path arguments, terminating NUL included
	MaxPathLen int `mapstructure:"max_path_len" yaml:"max_path_len" validate:"min=2"`

	// SyscallRate is the number of system calls admitted per second
	// across all processes (0 = unlimited)
	SyscallRate uint `mapstructure:"syscall_rate" yaml:"syscall_rate"`

	// SyscallBurst is the number of calls admitted above SyscallRate
	SyscallBurst uint `mapstructure:"syscall_burst" yaml:"syscall_burst"`
}

// ConsoleConfig configures the console device.
type ConsoleConfig struct {
	// Disabled leaves the console unregistered. Standard-stream I/O then
	// fails with ENODEV.
	Disabled bool `mapstructure:"disabled" yaml:"disabled"`

	// Device is the name the console is registered under, without the colon
	Device string `mapstructure:"device" yaml:"device" validate:"required,excludesall=:/"`

	// Input is where console reads come from
	// Valid values: stdin, none, or a file path
	Input string `mapstructure:"input" yaml:"input" validate:"required"`

	// Output is where console writes go
	// Valid values: stdout, stderr, none, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ContentConfig specifies content store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: memory, filesystem, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory filesystem s3"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// MetadataConfig specifies metadata store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	// Enabled turns on Prometheus collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for /metrics and /healthz
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOFD_*)
//  2. Configuration file
//  3. Default values
//
// A missing configuration file is not an error; defaults are used.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTOFD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env overrides only apply to keys viper knows about, so register the
	// scalar settings users most often override.
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"kernel.max_descriptors", "kernel.max_path_len",
		"kernel.syscall_rate", "kernel.syscall_burst",
		"console.device", "console.input", "console.output",
		"content.type", "metadata.type",
		"metrics.enabled", "metrics.port",
		"gc.enabled", "gc.interval", "gc.dry_run",
		"shutdown_timeout",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittofd/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittofd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittofd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
