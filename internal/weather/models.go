package weather

import (
	"errors"
	"strings"
)

// Condition is the weather state code shown by the watchface icon.
type Condition int

const (
	// ConditionUnknown is sent for icon names outside the table; the watchface
	// keeps its default icon for it.
	ConditionUnknown Condition = iota
	ConditionClearDay
	ConditionClearNight
	ConditionRain
	ConditionSnow
	ConditionSleet
	ConditionWind
	ConditionFog
	ConditionCloudy
	ConditionPartlyCloudyDay
	ConditionPartlyCloudyNight
)

var iconConditions = map[string]Condition{
	"clear-day":           ConditionClearDay,
	"clear-night":         ConditionClearNight,
	"rain":                ConditionRain,
	"snow":                ConditionSnow,
	"sleet":               ConditionSleet,
	"wind":                ConditionWind,
	"fog":                 ConditionFog,
	"cloudy":              ConditionCloudy,
	"partly-cloudy-day":   ConditionPartlyCloudyDay,
	"partly-cloudy-night": ConditionPartlyCloudyNight,
}

// ConditionFromIcon maps a provider icon name to its condition code.
// The second result is false for unlisted names.
func ConditionFromIcon(icon string) (Condition, bool) {
	c, ok := iconConditions[icon]
	if !ok {
		return ConditionUnknown, false
	}
	return c, true
}

// MaxMinutePrecip is the number of per-minute intensities forwarded.
const MaxMinutePrecip = 60

// ErrMalformedResponse marks provider output that cannot be mapped to a Sample.
var ErrMalformedResponse = errors.New("malformed weather response")

// MissingFieldsError lists the provider fields that were absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error { return ErrMalformedResponse }

// Sample is one cycle's weather reading in watchface units.
type Sample struct {
	Icon      string    `json:"icon"`
	Condition Condition `json:"condition"`

	ApparentTemp    int `json:"apparentTempC"`
	ApparentTempMax int `json:"apparentTempMaxC"`
	ApparentTempMin int `json:"apparentTempMinC"`
	Temp            int `json:"tempC"`
	TempMax         int `json:"tempMaxC"`
	TempMin         int `json:"tempMinC"`

	PrecipProbability int    `json:"precipProbabilityPercent"`
	MinutePrecip      []byte `json:"minutePrecip"` // 0-255 per minute, at most 60
	Humidity          int    `json:"humidityPercent"`
	WindSpeed         int    `json:"windSpeedDms"` // tenths of m/s
}
