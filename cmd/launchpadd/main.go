package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"launchpad/config"
	"launchpad/core"
	"launchpad/core/events"
	"launchpad/core/state"
	nativecommon "launchpad/native/common"
	"launchpad/native/linkdrop"
	"launchpad/observability/logging"
	telemetry "launchpad/observability/otel"
	"launchpad/rpc"
	"launchpad/storage"
	"launchpad/storage/journal"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "export-journal" {
		os.Exit(runExportJournal(os.Args[2:], os.Stdout, os.Stderr))
	}

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to the launchpad configuration")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "launchpadd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup("launchpadd", cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    strings.TrimSpace(cfg.Telemetry.Endpoint),
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	params, err := cfg.Params()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()

	jrnl, err := journal.Open(cfg.JournalPath, logger)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	engine, err := core.NewEngine(state.NewManager(db), params,
		core.WithClock(wallClock),
		core.WithLogger(logger),
		core.WithPauses(nativecommon.NewStaticPauses(cfg.PausedModules)),
		core.WithEmitter(events.Fanout{jrnl, eventLogger{logger: logger}}),
		core.WithAccountCreator(linkdrop.FuncCreator(func(_ context.Context, account string, funded *big.Int) error {
			logger.Info("account provisioned", slog.String("account", account), slog.String("funded", funded.String()))
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	logger.Info("ledger ready",
		slog.String("owner", params.Owner),
		slog.Uint64("journal_seq", jrnl.LastSeq()),
		slog.Any("paused", cfg.PausedModules))

	server := rpc.NewServer(engine, rpc.ServerConfig{
		ListenAddress: cfg.ListenAddress,
		Auth: rpc.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.ClockSkew(),
		},
		RateLimit: rpc.RateLimit{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
		},
	}, logger)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("rpc server: %w", err)
	}
	logger.Info("launchpadd stopped")
	return nil
}

// wallClock reports nanoseconds since the Unix epoch, the unit sale windows
// are expressed in.
func wallClock() uint64 {
	return uint64(time.Now().UnixNano())
}

type eventLogger struct {
	logger *slog.Logger
}

func (l eventLogger) Emit(e events.Event) {
	attrs := e.Attributes()
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("type", e.EventType()))
	for k, v := range attrs {
		args = append(args, slog.String(k, v))
	}
	l.logger.Debug("ledger event", args...)
}
