package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/watch-companion/internal/device"
	"github.com/i474232898/watch-companion/internal/location"
	"github.com/i474232898/watch-companion/internal/settings"
	"github.com/i474232898/watch-companion/internal/weather"
	"github.com/i474232898/watch-companion/internal/weather/providers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forecastJSON = `{
	"currently": {"icon": "rain", "temperature": 11.6, "apparentTemperature": 10.2, "humidity": 0.81, "windSpeed": 4.4},
	"daily": {"data": [{"temperatureMax": 14, "temperatureMin": 7, "apparentTemperatureMax": 13, "apparentTemperatureMin": 5, "precipProbability": 0.6}]},
	"minutely": {"data": [{"precipIntensity": 0.5}]}
}`

type recordingSender struct {
	sent []device.Message
}

func (s *recordingSender) Send(_ context.Context, msg device.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func TestFetcherUsesNewlySavedAPIKeyAfterFailures(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), keys...)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")[0]
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
		if key != "fresh" {
			http.Error(w, `{"code":403,"error":"permission denied"}`, http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	bridge := settings.NewBridge(settings.BridgeConfig{
		KV:     settings.NewMemoryKV(),
		Logger: zerolog.Nop(),
	})
	sender := &recordingSender{}
	f := weather.NewFetcher(weather.FetcherConfig{
		Settings: bridge,
		Locator:  location.Static{Lat: 50.06, Lon: 19.94},
		Provider: providers.NewDarkSkyProvider(srv.Client(), srv.URL, time.Hour),
		Sender:   sender,
		Timeout:  time.Second,
		Logger:   zerolog.Nop(),
	})

	saveKey := func(key string) {
		t.Helper()
		applied, err := bridge.HandleClosed(context.Background(), `{"apiKey":{"value":"`+key+`"}}`)
		require.NoError(t, err)
		require.True(t, applied)
	}

	saveKey("revoked")
	for i := 0; i < 3; i++ {
		require.Error(t, f.Run(context.Background()))
	}
	assert.ErrorIs(t, f.Run(context.Background()), providers.ErrCircuitOpen)
	assert.Len(t, seen(), 3)

	saveKey("fresh")
	require.NoError(t, f.Run(context.Background()))

	assert.Equal(t, []string{"revoked", "revoked", "revoked", "fresh"}, seen())
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int(weather.ConditionRain), sender.sent[0][device.KeyCondition])
}
