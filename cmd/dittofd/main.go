package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/internal/script"
	"github.com/marmos91/dittofd/pkg/config"
	"github.com/marmos91/dittofd/pkg/gc"
	"gopkg.in/yaml.v3"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

const usage = `dittofd - per-process file descriptors over DittoFS stores

Usage:
  dittofd [flags] run <script.yaml>...   Run syscall scripts
  dittofd [flags] gc                     Remove orphaned content once
  dittofd init [--force]                 Write a default config file
  dittofd version                        Print the version

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dittofd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/dittofd/config.yaml)")
	logLevel := fs.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	reportPath := fs.String("report", "", "Write run results as YAML to this file (- for stderr)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "dittofd %s\n", version)
		return 0
	case "init":
		return runInit(cmdArgs, stdout, stderr)
	case "run", "gc":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	if cmd == "run" && len(cmdArgs) == 0 {
		fmt.Fprintln(stderr, "run: at least one script is required")
		return 2
	}

	// ===== Step 1: Configuration and logging =====
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logCloser, err := config.ConfigureLogging(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to configure logging: %v\n", err)
		return 1
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ===== Step 2: Metrics (before stores, which register their own) =====
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	// ===== Step 3: Kernel =====
	rt, err := config.BuildKernel(ctx, cfg, metricsResult.SyscallMetrics)
	if err != nil {
		logger.Error("Failed to build kernel: %v", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := rt.Close(shutdownCtx); err != nil {
			logger.Error("Shutdown error: %v", err)
		}
		if metricsResult.Server != nil {
			_ = metricsResult.Server.Stop(shutdownCtx)
		}
	}()

	collector := gc.NewCollector(rt.Metadata, rt.Content, cfg.GC)

	if cmd == "gc" {
		stats, err := collector.RunNow(ctx)
		if err != nil {
			logger.Error("Garbage collection failed: %v", err)
			return 1
		}
		fmt.Fprintln(stdout, stats.Summary())
		return 0
	}

	collector.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = collector.Stop(shutdownCtx)
	}()

	// ===== Step 4: Scripts =====
	return runScripts(ctx, rt, cmdArgs, *reportPath, stderr)
}

func runScripts(ctx context.Context, rt *config.Runtime, paths []string, reportPath string, stderr io.Writer) int {
	runner := script.NewRunner(rt.Kernel)
	status := 0
	var reports []*script.Report

	for _, path := range paths {
		s, err := script.Load(path)
		if err != nil {
			logger.Error("%s: %v", path, err)
			status = 1
			continue
		}
		if s.Name == "" {
			s.Name = path
		}

		report, err := runner.Run(ctx, s)
		if report != nil {
			reports = append(reports, report)
		}
		switch {
		case errors.Is(err, script.ErrAssertion):
			logger.Error("%s: %v", s.Name, err)
			status = 1
		case err != nil:
			logger.Error("%s: %v", s.Name, err)
			return 1
		default:
			logger.Info("%s: %d steps passed", s.Name, len(report.Results))
		}
	}

	if reportPath != "" {
		if err := writeReports(reportPath, reports, stderr); err != nil {
			logger.Error("Failed to write report: %v", err)
			return 1
		}
	}
	return status
}

func writeReports(path string, reports []*script.Report, stderr io.Writer) error {
	out, err := yaml.Marshal(reports)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = stderr.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	path := fs.String("path", "", "Write to this path instead of the default location")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	target := *path
	if target == "" {
		var err error
		if target, err = config.InitConfig(*force); err != nil {
			fmt.Fprintf(stderr, "Failed to initialize config: %v\n", err)
			return 1
		}
	} else if err := config.InitConfigToPath(target, *force); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize config: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Configuration written to %s\n", target)
	return 0
}
