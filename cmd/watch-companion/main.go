package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/watch-companion/internal/api/http"
	"github.com/i474232898/watch-companion/internal/config"
	"github.com/i474232898/watch-companion/internal/device"
	"github.com/i474232898/watch-companion/internal/location"
	"github.com/i474232898/watch-companion/internal/logging"
	"github.com/i474232898/watch-companion/internal/report"
	"github.com/i474232898/watch-companion/internal/scheduler"
	"github.com/i474232898/watch-companion/internal/settings"
	"github.com/i474232898/watch-companion/internal/store"
	"github.com/i474232898/watch-companion/internal/weather"
	"github.com/i474232898/watch-companion/internal/weather/providers"
)

// Version is set at build time via ldflags.
var Version = "dev"

const serviceName = "watch-companion"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.Env, cfg.LogLevel, serviceName, Version)
	log.Info().Str("env", cfg.Env).Msg("starting watch companion")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable settings.
	kv, err := settings.OpenSQLite(cfg.SettingsDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SettingsDBPath).Msg("failed to open settings store")
	}
	defer func() {
		if closeErr := kv.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close settings store")
		}
	}()

	bridge := settings.NewBridge(settings.BridgeConfig{
		KV:        kv,
		PublicURL: cfg.PublicURL,
		Logger:    log,
	})
	if err := bridge.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	// Outbound device channel, recording what was delivered.
	history := store.NewMemoryStore(cfg.HistoryMax, cfg.HistoryMaxAge)
	channel := device.NewMQTTChannel(device.MQTTConfig{
		Broker:   cfg.MQTTBroker,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID,
		DeviceID: cfg.DeviceID,
		Logger:   log,
	})
	defer channel.Disconnect()
	sender := device.NewRecorder(channel, history)

	locator := newLocator(cfg, log)
	locOpts := location.DefaultOptions()
	locOpts.MaximumAge = cfg.LocationMaxAge
	locOpts.Timeout = cfg.LocationTimeout

	// Timeouts are applied per request by the fetchers.
	httpClient := &http.Client{}
	// An open breaker must never outlive the gap between two cycles.
	breakerCooldown := cfg.FetchInterval / 2

	weatherFetcher := weather.NewFetcher(weather.FetcherConfig{
		Settings:        bridge,
		Locator:         location.NewCached(locator),
		LocationOptions: &locOpts,
		Provider:        providers.NewDarkSkyProvider(httpClient, cfg.DarkSkyBaseURL, breakerCooldown),
		Sender:          sender,
		Timeout:         cfg.WeatherTimeout,
		Logger:          log,
	})
	reportFetcher := report.NewFetcher(report.FetcherConfig{
		Settings:        bridge,
		Client:          httpClient,
		Sender:          sender,
		Timeout:         cfg.ReportTimeout,
		BreakerCooldown: breakerCooldown,
		Logger:          log,
	})

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpapi.RequestLogger(log.With().Str("component", "http").Logger()))
	httpapi.RegisterRoutes(app, bridge, history)

	go func() {
		log.Info().Str("port", cfg.Port).Str("form_url", bridge.FormURL("")).Msg("settings server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// The broker connection is the ready signal; cycles start only after it.
	if err := channel.Connect(ctx); err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("failed to connect device channel")
		}
		shutdown(app, log)
		return
	}

	sched := scheduler.New(cfg.FetchInterval, log, weatherFetcher, reportFetcher)
	if err := sched.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start scheduler")
		shutdown(app, log)
		return
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sched.Stop()
	shutdown(app, log)
}

func newLocator(cfg *config.AppConfig, log zerolog.Logger) location.Locator {
	switch {
	case cfg.HasStaticLocation():
		return location.Static{Lat: *cfg.LocationLat, Lon: *cfg.LocationLon}
	case cfg.LocationCity != "":
		return location.NewGeocoded(cfg.LocationCity, cfg.LocationCountry, cfg.GeocoderAPIKey)
	default:
		log.Warn().Msg("no device location configured; weather cycles will abort")
		return location.Unavailable{}
	}
}

func shutdown(app *fiber.App, log zerolog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
