package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rackplan/internal/adapter"
	"rackplan/internal/config"
	"rackplan/internal/handler"
	"rackplan/internal/hub"
	"rackplan/internal/loader"
	"rackplan/internal/logging"
	"rackplan/internal/metrics"
	"rackplan/internal/registry"
	"rackplan/internal/repository"
	"rackplan/internal/service"
	"rackplan/internal/sink"
	"rackplan/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if *configPath != "" {
		cfg, path, err = config.LoadFromPath(*configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config %s: %v\n", path, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Listen = *addr
	}

	logger := logging.New(cfg.Logging)
	if path == "" {
		path = "defaults"
	}
	logger.Info().Str("config", path).Msg(cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	sinks, err := openSinks(ctx, cfg.Sinks, logger)
	if err != nil {
		return err
	}
	if store != nil {
		sinks = append([]sink.Sink{sink.NewStore(store)}, sinks...)
	}
	fanout := sink.NewMulti(sinks...)
	defer func() {
		if err := fanout.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close sinks")
		}
	}()

	reg := registry.New(cfg.RackCatalog(), registry.WithCapacity(cfg.Engine.Capacity))
	bus := service.NewEventBus()
	planner := service.NewPlanner(reg, bus,
		service.WithSink(fanout),
		service.WithLogger(logger),
		service.WithRecorder(m),
		service.WithRequireAfterPlacement(cfg.Engine.RequireAfterPlacement),
	)

	restored := false
	if store != nil {
		raw, err := store.Load(ctx)
		switch {
		case errors.Is(err, repository.ErrNoSnapshot):
			logger.Info().Str("driver", cfg.Storage.Driver).Msg("no stored snapshot")
		case err != nil:
			return fmt.Errorf("load snapshot: %w", err)
		default:
			planner.Load(*raw)
			restored = true
		}
	}
	if seed := cfg.Engine.SeedPath; seed != "" {
		if !restored {
			if _, err := loader.ImportFile(ctx, seed, planner); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
		if cfg.Engine.WatchSeed {
			go watchSeed(ctx, seed, planner, logger)
		}
	}
	m.Observe(planner.Summary())

	sseHub := hub.New(logger)
	sseHub.Subscribe(bus)
	go sseHub.Run(ctx)

	h := handler.New(planner, logger)
	if cfg.Probe.Enabled {
		h.SetProber(adapter.NewProber(
			adapter.WithTimeout(cfg.Probe.Timeout.Duration()),
			adapter.WithBinaryPath(cfg.Probe.BinaryPath),
			adapter.WithLogger(logger),
		))
	}

	server := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: h.NewRouter(handler.Router{
			Events:   sseHub,
			Metrics:  promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
			Recorder: m,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: /events streams for the life of the client
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Listen).Msg("server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// watchSeed re-imports the seed document on every change. A bad edit is
// logged and the live state kept.
func watchSeed(ctx context.Context, path string, imp loader.Importer, logger zerolog.Logger) {
	logger = logging.Component(logger, "seed")
	w := watcher.New(path, func() {
		report, err := loader.ImportFile(ctx, path, imp)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("seed reload failed")
			return
		}
		logger.Info().Str("path", path).Int("devices", report.Devices).Msg("seed reloaded")
	}, watcher.WithLogger(logger))

	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Str("path", path).Msg("seed watcher stopped")
	}
}
