package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/watch-companion/internal/location"
	"github.com/i474232898/watch-companion/internal/weather"
)

const DefaultDarkSkyBaseURL = "https://api.darksky.net/forecast"

// DarkSkyProvider implements weather.Provider for the Dark Sky forecast API.
type DarkSkyProvider struct {
	name     string
	baseURL  string
	client   *http.Client
	breakers *SourceBreakers
}

// NewDarkSkyProvider builds the provider. cooldown bounds how long repeated
// failures with one API key are short-circuited; zero uses DefaultBreakerCooldown.
func NewDarkSkyProvider(client *http.Client, baseURL string, cooldown time.Duration) *DarkSkyProvider {
	if baseURL == "" {
		baseURL = DefaultDarkSkyBaseURL
	}
	return &DarkSkyProvider{
		name:     "darksky",
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		breakers: NewSourceBreakers("darksky", cooldown),
	}
}

func (p *DarkSkyProvider) Name() string {
	return p.name
}

// URL returns the forecast URL for key and pos, in SI units.
func (p *DarkSkyProvider) URL(apiKey string, pos location.Position) string {
	coords := strconv.FormatFloat(pos.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(pos.Lon, 'f', -1, 64)
	return fmt.Sprintf("%s/%s/%s?units=si", p.baseURL, url.PathEscape(apiKey), coords)
}

func (p *DarkSkyProvider) Fetch(ctx context.Context, apiKey string, pos location.Position) (weather.Forecast, error) {
	if apiKey == "" {
		return weather.Forecast{}, fmt.Errorf("darksky api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(apiKey, pos), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	httpCfg := HTTPClientConfig{Client: p.client, Breaker: p.breakers.For(apiKey)}
	resp, err := DoRequest(ctx, httpCfg, RequireSuccess, buildRequest)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload weather.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}

	return payload, nil
}
