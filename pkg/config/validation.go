package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that span
// several fields or depend on the selected store type.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.Kernel.SyscallBurst > 0 && cfg.Kernel.SyscallRate == 0 {
		return fmt.Errorf("kernel: syscall_burst is set but syscall_rate is 0 (unlimited)")
	}

	if cfg.Console.Input == "stdout" || cfg.Console.Input == "stderr" {
		return fmt.Errorf("console: input cannot be %q", cfg.Console.Input)
	}
	if cfg.Console.Output == "stdin" {
		return fmt.Errorf("console: output cannot be \"stdin\"")
	}

	switch cfg.Content.Type {
	case "filesystem":
		if path, _ := cfg.Content.Filesystem["path"].(string); path == "" {
			return fmt.Errorf("content.filesystem: path is required")
		}
	case "s3":
		if bucket, _ := cfg.Content.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("content.s3: bucket is required")
		}
	}

	if cfg.Metadata.Type == "badger" {
		inMemory, _ := cfg.Metadata.Badger["in_memory"].(bool)
		if path, _ := cfg.Metadata.Badger["db_path"].(string); path == "" && !inMemory {
			return fmt.Errorf("metadata.badger: db_path is required")
		}
	}

	if cfg.GC.Enabled && cfg.GC.Interval < 0 {
		return fmt.Errorf("gc: interval must be positive")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
