package device

import (
	"context"
	"sort"
	"time"
)

// Key is a positional message key understood by the watchface.
type Key uint32

const (
	KeyCondition         Key = 0x0
	KeyApparentTemp      Key = 0x1
	KeyApparentTempMax   Key = 0x2
	KeyApparentTempMin   Key = 0x3
	KeyTemp              Key = 0x4
	KeyTempMax           Key = 0x5
	KeyTempMin           Key = 0x6
	KeyPrecipProbability Key = 0x7
	KeyMinutePrecip      Key = 0x8
	KeyHumidity          Key = 0x9
	KeyWindSpeed         Key = 0xA
	KeyReport            Key = 0xB
)

const (
	KindWeather = "weather"
	KindReport  = "report"
)

// Message maps keys to int, []byte or string values.
type Message map[Key]any

// Keys returns the message keys in ascending order.
func (m Message) Keys() []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Kind classifies the message by the keys it carries.
func (m Message) Kind() string {
	if _, ok := m[KeyReport]; ok {
		return KindReport
	}
	return KindWeather
}

// Sender delivers a message to the paired watch.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Delivery is a message that was accepted by the outbound channel.
type Delivery struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	SentAt  time.Time `json:"sentAt"` // always UTC
	Size    int       `json:"sizeBytes"`
	Message Message   `json:"-"`
}

// DeliveryRecorder keeps delivered messages for inspection.
type DeliveryRecorder interface {
	SaveDelivery(d Delivery)
}
