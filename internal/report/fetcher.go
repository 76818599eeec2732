package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/i474232898/watch-companion/internal/device"
	"github.com/i474232898/watch-companion/internal/settings"
	"github.com/i474232898/watch-companion/internal/weather/providers"
	"github.com/rs/zerolog"
)

// MaxReportLength is the report size in bytes the watchface buffer holds,
// leaving room for the terminating NUL.
const MaxReportLength = 99

// maxBodyBytes bounds how much of the report body is read.
const maxBodyBytes = 64 << 10

// FetcherConfig wires the report fetch cycle.
type FetcherConfig struct {
	Settings settings.Source
	Client   *http.Client
	Sender   device.Sender

	// Timeout bounds the whole request including the body read.
	// Default: 30 seconds
	Timeout time.Duration

	// BreakerCooldown bounds how long repeated failures of one URL are
	// short-circuited. Keep it below the fetch interval.
	// Default: providers.DefaultBreakerCooldown
	BreakerCooldown time.Duration

	Logger zerolog.Logger
}

// Fetcher pulls the user's report URL and forwards its text.
type Fetcher struct {
	settings settings.Source
	client   *http.Client
	breakers *providers.SourceBreakers
	sender   device.Sender
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		settings: cfg.Settings,
		client:   client,
		breakers: providers.NewSourceBreakers("report", cfg.BreakerCooldown),
		sender:   cfg.Sender,
		timeout:  timeout,
		logger:   cfg.Logger.With().Str("component", "report").Logger(),
	}
}

func (f *Fetcher) Name() string {
	return "report"
}

// Run performs a single cycle. The response status is not checked: any body
// that arrives is forwarded, truncated.
func (f *Fetcher) Run(ctx context.Context) error {
	current := f.settings.Current()
	if current.ReportSourceURL == nil {
		f.logger.Debug().Msg("report source not set; skipping")
		return nil
	}
	source := *current.ReportSourceURL

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	httpCfg := providers.HTTPClientConfig{Client: f.client, Breaker: f.breakers.For(source)}
	resp, err := providers.DoRequest(reqCtx, httpCfg, providers.AnyStatus, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	})
	if err != nil {
		return fmt.Errorf("get report: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	text := Truncate(string(body), MaxReportLength)
	if err := f.sender.Send(ctx, device.Message{device.KeyReport: text}); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	f.logger.Info().
		Int("status", resp.StatusCode).
		Int("chars", utf8.RuneCountInString(text)).
		Msg("report sent")
	return nil
}

// Truncate returns the longest prefix of s that is at most n bytes and ends on
// a rune boundary. The watchface copies the report into a fixed 100-byte buffer,
// so multi-byte text keeps fewer than n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	end := 0
	for end < len(s) {
		_, size := utf8.DecodeRuneInString(s[end:])
		if end+size > n {
			break
		}
		end += size
	}
	return s[:end]
}
