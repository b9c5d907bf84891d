package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/kernel"
	"github.com/marmos91/dittofd/pkg/metrics"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/marmos91/dittofd/pkg/vfs"
	"github.com/marmos91/dittofd/pkg/vfs/console"
)

// Runtime is a kernel together with the stores and streams behind it.
type Runtime struct {
	Kernel   *kernel.Kernel
	Metadata metadata.MetadataStore
	Content  content.ContentStore

	closers []io.Closer
}

// BuildKernel creates the stores, the VFS, the console device and the
// kernel described by cfg.
//
// Parameters:
//   - ctx: Context for store initialization
//   - cfg: Loaded and validated configuration
//   - syscallMetrics: Kernel metrics (nil records nothing)
//
// Returns:
//   - *Runtime: The wired kernel; call Close when done
//   - error: Store or console initialization error
func BuildKernel(ctx context.Context, cfg *Config, syscallMetrics metrics.SyscallMetrics) (*Runtime, error) {
	rt := &Runtime{}

	// ===== Step 1: Stores =====
	meta, err := CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		return nil, err
	}
	rt.Metadata = meta

	store, err := CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		_ = meta.Close()
		return nil, err
	}
	rt.Content = store

	v := vfs.New(meta, store)

	// ===== Step 2: Console =====
	var stdio kernel.StdioProvider
	if !cfg.Console.Disabled {
		dev, err := rt.openConsole(&cfg.Console)
		if err != nil {
			_ = rt.close()
			return nil, err
		}
		if err := v.AddDevice(cfg.Console.Device, dev); err != nil {
			_ = rt.close()
			return nil, fmt.Errorf("failed to register console %q: %w", cfg.Console.Device, err)
		}
		stdio = kernel.ConsoleStdio{VFS: v, Device: cfg.Console.Device}
	} else {
		logger.Warn("Console disabled: standard streams will fail with ENODEV")
	}

	// ===== Step 3: Kernel =====
	rt.Kernel = kernel.New(v, kernel.Config{
		MaxDescriptors: cfg.Kernel.MaxDescriptors,
		MaxPathLen:     cfg.Kernel.MaxPathLen,
		SyscallRate:    cfg.Kernel.SyscallRate,
		SyscallBurst:   cfg.Kernel.SyscallBurst,
		Stdio:          stdio,
		Metrics:        syscallMetrics,
	})

	logger.Info("Kernel ready: content=%s metadata=%s max_descriptors=%d",
		cfg.Content.Type, cfg.Metadata.Type, cfg.Kernel.MaxDescriptors)
	return rt, nil
}

// openConsole opens the console's streams and creates the device.
func (rt *Runtime) openConsole(cfg *ConsoleConfig) (*console.Console, error) {
	var in io.Reader
	switch cfg.Input {
	case "stdin":
		in = os.Stdin
	case "none":
	default:
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open console input: %w", err)
		}
		rt.closers = append(rt.closers, f)
		in = f
	}

	var out io.Writer
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case "none":
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open console output: %w", err)
		}
		rt.closers = append(rt.closers, f)
		out = f
	}

	return console.New(in, out), nil
}

// Close shuts the kernel down, exiting every live process, then closes the
// metadata store and any console files.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Kernel != nil {
		if err := rt.Kernel.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kernel shutdown: %w", err))
		}
	}
	if err := rt.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (rt *Runtime) close() error {
	var errs []error
	if rt.Metadata != nil {
		if err := rt.Metadata.Close(); err != nil {
			errs = append(errs, fmt.Errorf("metadata store: %w", err))
		}
		rt.Metadata = nil
	}
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
