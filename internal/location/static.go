package location

import (
	"context"
	"time"
)

// Static always reports the configured coordinates.
type Static struct {
	Lat, Lon float64
}

func (s Static) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Lat: s.Lat, Lon: s.Lon, Timestamp: time.Now().UTC()}, nil
}

// Unavailable is used when nothing is configured; every call fails.
type Unavailable struct{}

func (Unavailable) CurrentPosition(context.Context, Options) (Position, error) {
	return Position{}, ErrUnavailable
}
