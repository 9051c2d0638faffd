package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-monitor/internal/api/http"
	"github.com/i474232898/weather-monitor/internal/config"
	"github.com/i474232898/weather-monitor/internal/logging"
	"github.com/i474232898/weather-monitor/internal/metrics"
	"github.com/i474232898/weather-monitor/internal/notify"
	"github.com/i474232898/weather-monitor/internal/scheduler"
	"github.com/i474232898/weather-monitor/internal/store"
	"github.com/i474232898/weather-monitor/internal/store/postgres"
	"github.com/i474232898/weather-monitor/internal/store/sqlite"
	"github.com/i474232898/weather-monitor/internal/weather"
	"github.com/i474232898/weather-monitor/internal/weather/providers"
)

const appName = "weather-monitor"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel, version, appName)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	recorder := metrics.NewRecorder()
	history := weather.NewAlertHistory(cfg.AlertHistory)
	sinks := weather.MultiSink{weather.NewLogSink(logger), history, recorder}

	if cfg.MQTTBroker != "" {
		pub := notify.NewMQTTPublisher(notify.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, logger)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := pub.Connect(connectCtx); err != nil {
			// Auto-reconnect keeps trying; alerts are dropped until connected.
			logger.Warn("mqtt alert publisher not connected yet", "error", err)
		}
		cancel()
		defer pub.Disconnect()
		sinks = append(sinks, pub)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	source := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithBackoff(providers.BackoffConfig{
			MaxRetries:      cfg.FetchMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}),
	)
	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("openweather api key is not configured; every poll will fail")
	}

	window, err := weather.ParseWindow(cfg.AggregateWindow)
	if err != nil {
		return err
	}

	thresholds := weather.NewThresholdConfig(cfg.Thresholds())
	service := weather.NewService(st, source, thresholds,
		weather.WithAlertSink(sinks),
		weather.WithWindow(window),
		weather.WithLogger(logger),
		weather.WithRecorder(recorder),
	)

	sched := scheduler.New(cfg.Locations, cfg.PollInterval, service, thresholds,
		scheduler.WithTimeout(cfg.FetchTimeout),
		scheduler.WithLogger(logger),
		scheduler.WithTickObserver(recorder),
	)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.ServerConfig{
		AppName:   appName,
		StaticDir: cfg.StaticDir,
		Metrics:   recorder.Handler(),
		AccessLog: cfg.AppEnv == "dev",
	}, httpapi.Deps{
		Reader:     service,
		Thresholds: thresholds,
		Alerts:     history,
	})

	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	return nil
}

// openStore selects the Observation Store named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (weather.Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryStore(cfg.StoreMaxHistory), closerFunc(func() error { return nil }), nil
	case "postgres":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		repo, err := postgres.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to postgres store")
		return repo, repo, nil
	default:
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite store", "path", cfg.SQLitePath)
		return s, s, nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
