package weather

import (
	"context"

	"github.com/i474232898/watch-companion/internal/location"
)

// Forecast is the subset of the provider's forecast document the watch uses.
// Pointer fields distinguish absent values from zero.
type Forecast struct {
	Currently *Currently   `json:"currently"`
	Daily     *DailyBlock  `json:"daily"`
	Minutely  *MinuteBlock `json:"minutely"`
}

type Currently struct {
	Icon                *string  `json:"icon"`
	ApparentTemperature *float64 `json:"apparentTemperature"`
	Temperature         *float64 `json:"temperature"`
	Humidity            *float64 `json:"humidity"`
	WindSpeed           *float64 `json:"windSpeed"`
}

type DailyBlock struct {
	Data []DailyPoint `json:"data"`
}

type DailyPoint struct {
	ApparentTemperatureMax *float64 `json:"apparentTemperatureMax"`
	ApparentTemperatureMin *float64 `json:"apparentTemperatureMin"`
	TemperatureMax         *float64 `json:"temperatureMax"`
	TemperatureMin         *float64 `json:"temperatureMin"`
	PrecipProbability      *float64 `json:"precipProbability"`
}

type MinuteBlock struct {
	Data []MinutePoint `json:"data"`
}

type MinutePoint struct {
	PrecipIntensity *float64 `json:"precipIntensity"`
}

// Provider fetches a forecast for a position.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, apiKey string, pos location.Position) (Forecast, error)
}
