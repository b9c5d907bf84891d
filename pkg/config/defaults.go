package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/gc"
	"github.com/marmos91/dittofd/pkg/uio"
	"github.com/marmos91/dittofd/pkg/vfs/console"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are filled into the type-specific maps
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyKernelDefaults(&cfg.Kernel)
	applyConsoleDefaults(&cfg.Console)
	applyContentDefaults(&cfg.Content)
	applyMetadataDefaults(&cfg.Metadata)
	applyMetricsDefaults(&cfg.Metrics)
	applyGCDefaults(&cfg.GC)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyKernelDefaults(cfg *KernelConfig) {
	if cfg.MaxDescriptors == 0 {
		cfg.MaxDescriptors = fd.DefaultMaxDescriptors
	}
	if cfg.MaxPathLen == 0 {
		cfg.MaxPathLen = uio.DefaultMaxPathLen
	}
	if cfg.SyscallRate > 0 && cfg.SyscallBurst == 0 {
		cfg.SyscallBurst = cfg.SyscallRate
	}
}

func applyConsoleDefaults(cfg *ConsoleConfig) {
	if cfg.Device == "" {
		cfg.Device = console.DeviceName
	}
	if cfg.Input == "" {
		cfg.Input = "stdin"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyContentDefaults sets content store defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}

	// Defaults for every store type, so a generated config documents them.
	if _, ok := cfg.Memory["max_size_bytes"]; !ok {
		cfg.Memory["max_size_bytes"] = uint64(1073741824) // 1GB
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = "/tmp/dittofd-content"
	}
}

// applyMetadataDefaults sets metadata store defaults.
func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/tmp/dittofd-metadata"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyGCDefaults(cfg *gc.Config) {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
