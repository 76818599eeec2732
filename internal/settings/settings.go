package settings

import (
	"context"
	"errors"
)

// Keys in durable storage.
const (
	StorageKeyAPIKey       = "DarkskyKey"
	StorageKeyReportSource = "ReportSource"
)

// Field names used by the configuration form and its response.
const (
	FieldAPIKey          = "apiKey"
	FieldReportSourceURL = "reportSourceUrl"
)

var (
	// ErrInvalidResponse is returned when a configuration-closed payload cannot be parsed.
	ErrInvalidResponse = errors.New("invalid configuration response")
)

// Settings holds the two user-provided strings. A nil field is unset.
type Settings struct {
	APIKey          *string `json:"apiKey"`
	ReportSourceURL *string `json:"reportSourceUrl"`
}

// Snapshot returns a deep copy so callers never share pointers with the bridge.
func (s Settings) Snapshot() Settings {
	return Settings{
		APIKey:          copyString(s.APIKey),
		ReportSourceURL: copyString(s.ReportSourceURL),
	}
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Source is the read handle the fetchers hold.
type Source interface {
	Current() Settings
}

// KV is durable per-key string storage.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
