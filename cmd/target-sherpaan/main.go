// Command target-sherpaan is a Singer target that loads purchase orders into
// Sherpa.
//
// Usage:
//
//	tap-something | target-sherpaan --config config.json [--metrics-file sherpa.prom]
//
// Singer messages are read from stdin; STATE values are written to stdout and
// logs to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/sirosfoundation/target-sherpaan/internal/config"
	"github.com/sirosfoundation/target-sherpaan/internal/logging"
	"github.com/sirosfoundation/target-sherpaan/internal/metrics"
	"github.com/sirosfoundation/target-sherpaan/internal/purchase"
	"github.com/sirosfoundation/target-sherpaan/internal/singer"
	"github.com/sirosfoundation/target-sherpaan/pkg/transport"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("target-sherpaan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the JSON or YAML config file")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this file when the run ends")
	logLevel := fs.String("log-level", "", "override log_level from the config (debug, info, warn, error)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}
	if *configPath == "" {
		fmt.Fprintln(stderr, "--config is required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		if _, err := logging.ParseLevel(*logLevel); err != nil {
			fmt.Fprintf(stderr, "Invalid --log-level: %v\n", err)
			return 2
		}
		cfg.LogLevel = *logLevel
	}

	logger := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		Output:  stderr,
		RunID:   uuid.NewString(),
		Version: version,
	})
	slog.SetDefault(logger)

	m := metrics.New()
	err = runTarget(ctx, cfg, m, logger, stdin, stdout)

	if *metricsFile != "" {
		if werr := m.WriteTextfile(*metricsFile); werr != nil {
			logger.Error("failed to write metrics", slog.String("error", werr.Error()))
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted")
		} else {
			logger.Error("run failed", slog.String("error", err.Error()))
		}
		return 1
	}
	return 0
}

func runTarget(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	endpoint := transport.EndpointURL(cfg.BaseURL, cfg.ShopID.String())

	httpsCfg := transport.DefaultHTTPSConfig()
	httpsCfg.Timeout = cfg.Timeout.Std()
	httpsCfg.Retry = transport.RetryPolicy{
		MaxAttempts:      cfg.Retry.MaxAttempts,
		InitialInterval:  cfg.Retry.InitialInterval.Std(),
		MaxInterval:      cfg.Retry.MaxInterval.Std(),
		SkipClientErrors: cfg.StrictRetry,
	}
	if cfg.CircuitBreaker.Enabled {
		httpsCfg.CircuitBreaker = &transport.CircuitBreakerConfig{
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			OpenTimeout:      cfg.CircuitBreaker.OpenTimeout.Std(),
		}
	}
	httpsCfg.Observer = m
	httpsCfg.Logger = logger.With(slog.String("component", "transport"))

	client := transport.NewHTTPSClient(endpoint, httpsCfg)
	logger.Info("starting target",
		slog.String("endpoint", client.Endpoint()),
		slog.Any("streams", cfg.Streams),
		slog.Int("batch_size", cfg.BatchSize))

	tracker := purchase.NewTracker(m)
	workflow, err := purchase.NewWorkflow(purchase.Config{
		SecurityCode: cfg.SecurityCode.String(),
		Defaults:     purchase.Defaults{WarehouseCode: cfg.DefaultWarehouse.String()},
		Sender:       client,
		Tracker:      tracker,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating workflow: %w", err)
	}

	runner := singer.NewRunner(singer.RunnerConfig{
		Processor: workflow,
		Streams:   cfg.Streams,
		BatchSize: cfg.BatchSize,
		Logger:    logger,
	})

	err = runner.Run(ctx, stdin, stdout)
	logger.Info("run finished", slog.String("summary", tracker.Summary().String()))
	return err
}
