package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Env      string `validate:"oneof=dev prod"`
	LogLevel string `validate:"oneof=trace debug info warn error"`

	// Settings HTTP server.
	Port      string `validate:"required,numeric"`
	PublicURL string `validate:"required,url"`

	// FetchInterval controls how often both fetchers run.
	FetchInterval  time.Duration `validate:"gt=0"`
	WeatherTimeout time.Duration `validate:"gt=0"`
	ReportTimeout  time.Duration `validate:"gt=0"`

	DarkSkyBaseURL string `validate:"required,url"`

	// Device position: static coordinates win over a geocoded city.
	LocationLat     *float64 `validate:"omitempty,latitude"`
	LocationLon     *float64 `validate:"omitempty,longitude"`
	LocationCity    string
	LocationCountry string
	GeocoderAPIKey  string
	LocationMaxAge  time.Duration `validate:"gte=0"`
	LocationTimeout time.Duration `validate:"gt=0"`

	SettingsDBPath string `validate:"required"`

	MQTTBroker   string `validate:"required,hostname_rfc1123|ip"`
	MQTTPort     int    `validate:"gt=0,lte=65535"`
	MQTTClientID string `validate:"required"`
	DeviceID     string `validate:"required"`

	// Delivered-message history retention.
	HistoryMax    int           `validate:"gte=0"` // 0 = unlimited
	HistoryMaxAge time.Duration `validate:"gte=0"` // 0 = unlimited
}

// HasStaticLocation reports whether both coordinates are configured.
func (c *AppConfig) HasStaticLocation() bool {
	return c.LocationLat != nil && c.LocationLon != nil
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates the configuration from the current environment.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Env:             getenvDefault("APP_ENV", "dev"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		Port:            getenvDefault("PORT", "8080"),
		DarkSkyBaseURL:  getenvDefault("DARKSKY_BASE_URL", "https://api.darksky.net/forecast"),
		LocationCity:    os.Getenv("LOCATION_CITY"),
		LocationCountry: os.Getenv("LOCATION_COUNTRY"),
		GeocoderAPIKey:  os.Getenv("GEOCODER_API_KEY"),
		SettingsDBPath:  getenvDefault("SETTINGS_DB_PATH", "data/settings.db"),
		MQTTBroker:      getenvDefault("MQTT_BROKER", "localhost"),
		MQTTClientID:    getenvDefault("MQTT_CLIENT_ID", "watch-companion-"+uuid.NewString()),
		DeviceID:        getenvDefault("DEVICE_ID", "watch"),
	}
	cfg.PublicURL = getenvDefault("PUBLIC_URL", "http://localhost:"+cfg.Port)

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"FETCH_INTERVAL", "30m", &cfg.FetchInterval},
		{"WEATHER_TIMEOUT", "15s", &cfg.WeatherTimeout},
		{"REPORT_TIMEOUT", "30s", &cfg.ReportTimeout},
		{"LOCATION_MAX_AGE", "10m", &cfg.LocationMaxAge},
		{"LOCATION_TIMEOUT", "10s", &cfg.LocationTimeout},
		{"HISTORY_MAX_AGE", "48h", &cfg.HistoryMaxAge},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.MQTTPort, err = getenvInt("MQTT_PORT", 1883); err != nil {
		return nil, err
	}
	// roughly 48h at 30-minute intervals for each kind
	if cfg.HistoryMax, err = getenvInt("HISTORY_MAX", 96); err != nil {
		return nil, err
	}

	if cfg.LocationLat, err = getenvFloat("LOCATION_LAT"); err != nil {
		return nil, err
	}
	if cfg.LocationLon, err = getenvFloat("LOCATION_LON"); err != nil {
		return nil, err
	}
	if (cfg.LocationLat == nil) != (cfg.LocationLon == nil) {
		return nil, errors.New("LOCATION_LAT and LOCATION_LON must be set together")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
