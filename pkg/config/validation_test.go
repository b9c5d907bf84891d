package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "Format",
		},
		{
			name:   "content type",
			mutate: func(c *Config) { c.Content.Type = "invalid" },
			want:   "Type",
		},
		{
			name:   "metadata type",
			mutate: func(c *Config) { c.Metadata.Type = "postgres" },
			want:   "Type",
		},
		{
			name:   "too few descriptors",
			mutate: func(c *Config) { c.Kernel.MaxDescriptors = 2 },
			want:   "MaxDescriptors",
		},
		{
			name:   "too many descriptors",
			mutate: func(c *Config) { c.Kernel.MaxDescriptors = 100000 },
			want:   "MaxDescriptors",
		},
		{
			name:   "path length",
			mutate: func(c *Config) { c.Kernel.MaxPathLen = 1 },
			want:   "MaxPathLen",
		},
		{
			name:   "device name with colon",
			mutate: func(c *Config) { c.Console.Device = "con:" },
			want:   "Device",
		},
		{
			name:   "metrics port",
			mutate: func(c *Config) { c.Metrics.Port = 70000 },
			want:   "Port",
		},
		{
			name:   "zero shutdown timeout",
			mutate: func(c *Config) { c.ShutdownTimeout = 0 },
			want:   "ShutdownTimeout",
		},
		{
			name: "burst without rate",
			mutate: func(c *Config) {
				c.Kernel.SyscallRate = 0
				c.Kernel.SyscallBurst = 10
			},
			want: "syscall_burst",
		},
		{
			name:   "console input from stdout",
			mutate: func(c *Config) { c.Console.Input = "stdout" },
			want:   "console",
		},
		{
			name:   "console output to stdin",
			mutate: func(c *Config) { c.Console.Output = "stdin" },
			want:   "console",
		},
		{
			name: "filesystem without path",
			mutate: func(c *Config) {
				c.Content.Type = "filesystem"
				c.Content.Filesystem = map[string]any{}
			},
			want: "path is required",
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Content.Type = "s3"
				c.Content.S3 = map[string]any{"region": "us-east-1"}
			},
			want: "bucket is required",
		},
		{
			name: "badger without path",
			mutate: func(c *Config) {
				c.Metadata.Type = "badger"
				c.Metadata.Badger = map[string]any{}
			},
			want: "db_path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_BadgerInMemoryNeedsNoPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metadata.Type = "badger"
	cfg.Metadata.Badger = map[string]any{"in_memory": true}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected in-memory badger to validate, got: %v", err)
	}
}

func TestValidate_LowercaseLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "debug"

	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected lowercase level to validate, got: %v", err)
	}
}
