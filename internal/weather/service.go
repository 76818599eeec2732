package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/watch-companion/internal/device"
	"github.com/i474232898/watch-companion/internal/location"
	"github.com/i474232898/watch-companion/internal/settings"
	"github.com/rs/zerolog"
)

// FetcherConfig wires the weather fetch cycle.
type FetcherConfig struct {
	Settings settings.Source
	Locator  location.Locator

	// LocationOptions default to location.DefaultOptions().
	LocationOptions *location.Options

	Provider Provider
	Sender   device.Sender

	// Timeout bounds the provider call.
	// Default: 15 seconds
	Timeout time.Duration

	Logger zerolog.Logger
}

// Fetcher runs one weather cycle per Run: locate, fetch, transform, send.
type Fetcher struct {
	settings settings.Source
	locator  location.Locator
	locOpts  location.Options
	provider Provider
	sender   device.Sender
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	opts := location.DefaultOptions()
	if cfg.LocationOptions != nil {
		opts = *cfg.LocationOptions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		settings: cfg.Settings,
		locator:  cfg.Locator,
		locOpts:  opts,
		provider: cfg.Provider,
		sender:   cfg.Sender,
		timeout:  timeout,
		logger:   cfg.Logger.With().Str("component", "weather").Logger(),
	}
}

func (f *Fetcher) Name() string {
	return "weather"
}

// Run performs a single cycle. Without an API key it does nothing. A returned
// error means nothing was sent this cycle.
func (f *Fetcher) Run(ctx context.Context) error {
	current := f.settings.Current()
	if current.APIKey == nil {
		f.logger.Debug().Msg("api key not set; skipping")
		return nil
	}

	pos, err := f.locator.CurrentPosition(ctx, f.locOpts)
	if err != nil {
		switch {
		case errors.Is(err, location.ErrPermissionDenied):
			return fmt.Errorf("location access denied: %w", err)
		case errors.Is(err, location.ErrTimeout):
			return fmt.Errorf("location timed out: %w", err)
		default:
			return fmt.Errorf("location error: %w", err)
		}
	}
	f.logger.Debug().Float64("lat", pos.Lat).Float64("lon", pos.Lon).Msg("got position")

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	forecast, err := f.provider.Fetch(reqCtx, *current.APIKey, pos)
	if err != nil {
		return fmt.Errorf("provider %s: %w", f.provider.Name(), err)
	}

	sample, err := Transform(forecast)
	if err != nil {
		return fmt.Errorf("provider %s: %w", f.provider.Name(), err)
	}
	if sample.Condition == ConditionUnknown {
		f.logger.Warn().Str("icon", sample.Icon).Msg("unknown weather icon; sending fallback condition")
	}

	if err := f.sender.Send(ctx, sample.Message()); err != nil {
		return fmt.Errorf("send weather: %w", err)
	}

	f.logger.Info().
		Int("condition", int(sample.Condition)).
		Int("tempC", sample.Temp).
		Int("minutes", len(sample.MinutePrecip)).
		Msg("weather sent")
	return nil
}
