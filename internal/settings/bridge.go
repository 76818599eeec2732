package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// BridgeConfig wires the Settings Bridge.
type BridgeConfig struct {
	KV KV

	// PublicURL is the externally reachable base of the settings HTTP server.
	PublicURL string

	Logger zerolog.Logger
}

// Bridge owns the in-memory settings. It is the only writer; fetchers read via Current.
type Bridge struct {
	kv        KV
	publicURL string
	logger    zerolog.Logger

	mu      sync.RWMutex
	current Settings
}

func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.KV == nil {
		cfg.KV = NewMemoryKV()
	}
	return &Bridge{
		kv:        cfg.KV,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    cfg.Logger.With().Str("component", "settings").Logger(),
	}
}

// Load reads both settings from durable storage. Missing keys stay unset.
func (b *Bridge) Load(ctx context.Context) error {
	apiKey, err := b.load(ctx, StorageKeyAPIKey)
	if err != nil {
		return err
	}
	reportURL, err := b.load(ctx, StorageKeyReportSource)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.current = Settings{APIKey: apiKey, ReportSourceURL: reportURL}
	b.mu.Unlock()

	b.logger.Info().
		Bool("apiKeySet", apiKey != nil).
		Bool("reportSourceSet", reportURL != nil).
		Msg("settings loaded")
	return nil
}

func (b *Bridge) load(ctx context.Context, key string) (*string, error) {
	v, ok, err := b.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || v == "" {
		return nil, nil
	}
	return &v, nil
}

// Current returns a copy of the settings in effect.
func (b *Bridge) Current() Settings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current.Snapshot()
}

// FormSchema returns the form with current values prefilled.
func (b *Bridge) FormSchema() []Item {
	return FormSchema(b.Current())
}

// FormURL returns the URL that opens the configuration form. The form posts its
// response back to returnTo when given.
func (b *Bridge) FormURL(returnTo string) string {
	u := b.publicURL + "/config"
	if returnTo == "" {
		return u
	}
	return u + "?" + url.Values{"return_to": {returnTo}}.Encode()
}

type responseValue struct {
	Value string `json:"value"`
}

type closedResponse struct {
	APIKey          *responseValue `json:"apiKey"`
	ReportSourceURL *responseValue `json:"reportSourceUrl"`
}

// EncodeResponse builds the payload a configuration-closed event carries.
func EncodeResponse(apiKey, reportSourceURL string) (string, error) {
	b, err := json.Marshal(closedResponse{
		APIKey:          &responseValue{Value: apiKey},
		ReportSourceURL: &responseValue{Value: reportSourceURL},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HandleClosed applies a configuration-closed payload. An empty payload means the
// user cancelled and reports false. Each non-empty value is persisted before it
// takes effect in memory.
func (b *Bridge) HandleClosed(ctx context.Context, response string) (bool, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		b.logger.Debug().Msg("configuration closed without response")
		return false, nil
	}

	var resp closedResponse
	if err := json.Unmarshal([]byte(response), &resp); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	applied := false
	if v := value(resp.APIKey); v != "" {
		if err := b.apply(ctx, StorageKeyAPIKey, v, func(s *Settings, p *string) { s.APIKey = p }); err != nil {
			return applied, err
		}
		applied = true
	}
	if v := value(resp.ReportSourceURL); v != "" {
		if err := b.apply(ctx, StorageKeyReportSource, v, func(s *Settings, p *string) { s.ReportSourceURL = p }); err != nil {
			return applied, err
		}
		applied = true
	}

	b.logger.Info().Bool("changed", applied).Msg("configuration saved")
	return applied, nil
}

func (b *Bridge) apply(ctx context.Context, key, v string, set func(*Settings, *string)) error {
	if err := b.kv.Set(ctx, key, v); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	b.mu.Lock()
	set(&b.current, &v)
	b.mu.Unlock()
	return nil
}

func value(v *responseValue) string {
	if v == nil {
		return ""
	}
	return v.Value
}
