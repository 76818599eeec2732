package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
)

type geocodeFunc func(geocoder.Address) (geocoder.Location, error)

// Geocoded resolves a configured city/country to coordinates.
type Geocoded struct {
	city    string
	country string
	apiKey  string
	lookup  geocodeFunc
}

var geocoderKeyMu sync.Mutex

func NewGeocoded(city, country, apiKey string) *Geocoded {
	g := &Geocoded{city: city, country: country, apiKey: apiKey}
	g.lookup = g.geocode
	return g
}

// the library reads its key from a package variable
func (g *Geocoded) geocode(addr geocoder.Address) (geocoder.Location, error) {
	geocoderKeyMu.Lock()
	defer geocoderKeyMu.Unlock()
	geocoder.ApiKey = g.apiKey
	return geocoder.Geocoding(addr)
}

func (g *Geocoded) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if g.apiKey == "" {
		return Position{}, fmt.Errorf("%w: geocoder api key is not configured", ErrPermissionDenied)
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := g.lookup(geocoder.Address{City: g.city, Country: g.country})
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return Position{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return Position{}, fmt.Errorf("%w: geocode %s,%s: %v", ErrUnavailable, g.city, g.country, r.err)
		}
		return Position{
			Lat:       r.loc.Latitude,
			Lon:       r.loc.Longitude,
			Timestamp: time.Now().UTC(),
		}, nil
	}
}
