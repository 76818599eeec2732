package location

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrTimeout          = errors.New("location timeout")
	ErrUnavailable      = errors.New("location unavailable")
)

// Position is a geographic fix.
type Position struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// Options mirror the usual geolocation request options.
type Options struct {
	HighAccuracy bool
	MaximumAge   time.Duration
	Timeout      time.Duration
}

// DefaultOptions is a coarse fix, at most 10 minutes old, within 10 seconds.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: false,
		MaximumAge:   10 * time.Minute,
		Timeout:      10 * time.Second,
	}
}

// Locator returns the device's current position.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}
