package weather

import (
	"math"

	"github.com/i474232898/watch-companion/internal/device"
)

// Transform maps a forecast into a Sample. Every field except minutely data is
// required; missing ones are reported together in a *MissingFieldsError.
func Transform(f Forecast) (Sample, error) {
	var missing []string
	req := func(name string, v *float64) float64 {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			missing = append(missing, name)
			return 0
		}
		return *v
	}

	cur := f.Currently
	if cur == nil {
		cur = &Currently{}
		missing = append(missing, "currently")
	}
	var day DailyPoint
	if f.Daily == nil || len(f.Daily.Data) == 0 {
		missing = append(missing, "daily.data[0]")
	} else {
		day = f.Daily.Data[0]
	}

	var s Sample
	if cur.Icon == nil {
		missing = append(missing, "currently.icon")
	} else {
		s.Icon = *cur.Icon
		s.Condition, _ = ConditionFromIcon(s.Icon)
	}

	s.ApparentTemp = round(req("currently.apparentTemperature", cur.ApparentTemperature))
	s.Temp = round(req("currently.temperature", cur.Temperature))
	s.Humidity = round(req("currently.humidity", cur.Humidity) * 100)
	s.WindSpeed = round(req("currently.windSpeed", cur.WindSpeed) * 10)

	if f.Daily != nil && len(f.Daily.Data) > 0 {
		s.ApparentTempMax = round(req("daily.data[0].apparentTemperatureMax", day.ApparentTemperatureMax))
		s.ApparentTempMin = round(req("daily.data[0].apparentTemperatureMin", day.ApparentTemperatureMin))
		s.TempMax = round(req("daily.data[0].temperatureMax", day.TemperatureMax))
		s.TempMin = round(req("daily.data[0].temperatureMin", day.TemperatureMin))
		s.PrecipProbability = round(req("daily.data[0].precipProbability", day.PrecipProbability) * 100)
	}

	s.MinutePrecip = []byte{}
	if f.Minutely != nil {
		s.MinutePrecip = minutePrecip(f.Minutely.Data)
	}

	if len(missing) > 0 {
		return Sample{}, &MissingFieldsError{Fields: missing}
	}
	return s, nil
}

func minutePrecip(points []MinutePoint) []byte {
	n := len(points)
	if n > MaxMinutePrecip {
		n = MaxMinutePrecip
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v := 0.0
		if p := points[i].PrecipIntensity; p != nil {
			v = *p
		}
		out[i] = ScaleMinutePrecip(v)
	}
	return out
}

// ScaleMinutePrecip maps a precipitation intensity in mm/h onto a byte, where
// 10 mm/h and above saturate at 255.
func ScaleMinutePrecip(intensity float64) byte {
	if math.IsNaN(intensity) {
		return 0
	}
	v := round(intensity / 10 * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// round is half-up, so -2.5 becomes -2.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Message builds the outbound weather message (keys 0-10).
func (s Sample) Message() device.Message {
	precip := s.MinutePrecip
	if precip == nil {
		precip = []byte{}
	}
	return device.Message{
		device.KeyCondition:         int(s.Condition),
		device.KeyApparentTemp:      s.ApparentTemp,
		device.KeyApparentTempMax:   s.ApparentTempMax,
		device.KeyApparentTempMin:   s.ApparentTempMin,
		device.KeyTemp:              s.Temp,
		device.KeyTempMax:           s.TempMax,
		device.KeyTempMin:           s.TempMin,
		device.KeyPrecipProbability: s.PrecipProbability,
		device.KeyMinutePrecip:      precip,
		device.KeyHumidity:          s.Humidity,
		device.KeyWindSpeed:         s.WindSpeed,
	}
}
