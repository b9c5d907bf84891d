package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level normalized to 'WARN', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Kernel(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Kernel.MaxDescriptors != 128 {
		t.Errorf("Expected default max_descriptors 128, got %d", cfg.Kernel.MaxDescriptors)
	}
	if cfg.Kernel.MaxPathLen != 1024 {
		t.Errorf("Expected default max_path_len 1024, got %d", cfg.Kernel.MaxPathLen)
	}
	if cfg.Kernel.SyscallRate != 0 || cfg.Kernel.SyscallBurst != 0 {
		t.Errorf("Expected unlimited syscalls by default, got %+v", cfg.Kernel)
	}
}

func TestApplyDefaults_SyscallBurstFollowsRate(t *testing.T) {
	cfg := &Config{Kernel: KernelConfig{SyscallRate: 50}}
	ApplyDefaults(cfg)

	if cfg.Kernel.SyscallBurst != 50 {
		t.Errorf("Expected syscall_burst 50, got %d", cfg.Kernel.SyscallBurst)
	}

	cfg = &Config{Kernel: KernelConfig{SyscallRate: 50, SyscallBurst: 5}}
	ApplyDefaults(cfg)

	if cfg.Kernel.SyscallBurst != 5 {
		t.Errorf("Expected explicit syscall_burst 5 preserved, got %d", cfg.Kernel.SyscallBurst)
	}
}

func TestApplyDefaults_Console(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Console.Device != "con" || cfg.Console.Input != "stdin" || cfg.Console.Output != "stdout" {
		t.Errorf("Unexpected console defaults: %+v", cfg.Console)
	}
}

func TestApplyDefaults_Stores(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Content.Type != "memory" {
		t.Errorf("Expected default content type 'memory', got %q", cfg.Content.Type)
	}
	if cfg.Content.Memory["max_size_bytes"] != uint64(1073741824) {
		t.Errorf("Expected default max_size_bytes 1GB, got %v", cfg.Content.Memory["max_size_bytes"])
	}
	if cfg.Content.Filesystem["path"] != "/tmp/dittofd-content" {
		t.Errorf("Expected default filesystem path, got %v", cfg.Content.Filesystem["path"])
	}
	if cfg.Metadata.Type != "memory" {
		t.Errorf("Expected default metadata type 'memory', got %q", cfg.Metadata.Type)
	}
	if cfg.Metadata.Badger["db_path"] != "/tmp/dittofd-metadata" {
		t.Errorf("Expected default badger db_path, got %v", cfg.Metadata.Badger["db_path"])
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Content: ContentConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": "/data/content"},
		},
		Metrics:         MetricsConfig{Port: 9999},
		ShutdownTimeout: time.Second,
	}
	ApplyDefaults(cfg)

	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected content type preserved, got %q", cfg.Content.Type)
	}
	if cfg.Content.Filesystem["path"] != "/data/content" {
		t.Errorf("Expected filesystem path preserved, got %v", cfg.Content.Filesystem["path"])
	}
	if cfg.Metrics.Port != 9999 {
		t.Errorf("Expected metrics port preserved, got %d", cfg.Metrics.Port)
	}
	if cfg.ShutdownTimeout != time.Second {
		t.Errorf("Expected shutdown timeout preserved, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_MetricsAndGC(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.GC.Enabled {
		t.Error("Expected gc disabled by default")
	}
	if cfg.GC.Interval != time.Hour {
		t.Errorf("Expected default gc interval 1h, got %v", cfg.GC.Interval)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}
}
