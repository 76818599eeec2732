package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLayout(t *testing.T) {
	msg := Message{
		KeyTemp:   -3,
		KeyReport: "hi",
	}

	got, err := Encode(msg)
	require.NoError(t, err)

	want := []byte{
		2,
		0x04, 0, 0, 0, TypeInt, 4, 0, 0xFD, 0xFF, 0xFF, 0xFF,
		0x0B, 0, 0, 0, TypeCString, 3, 0, 'h', 'i', 0,
	}
	assert.Equal(t, want, got)
}

func TestEncodeDecodeWeatherMessage(t *testing.T) {
	msg := Message{
		KeyCondition:         3,
		KeyApparentTemp:      5,
		KeyApparentTempMax:   8,
		KeyApparentTempMin:   3,
		KeyTemp:              5,
		KeyTempMax:           7,
		KeyTempMin:           2,
		KeyPrecipProbability: 42,
		KeyMinutePrecip:      []byte{0, 128, 255},
		KeyHumidity:          73,
		KeyWindSpeed:         32,
	}

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestEncodeEmptyByteArray(t *testing.T) {
	data, err := Encode(Message{KeyMinutePrecip: []byte{}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0x08, 0, 0, 0, TypeByteArray, 0, 0}, data)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, decoded[KeyMinutePrecip])
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(Message{KeyTemp: 1.5})
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = Encode(Message{KeyTemp: 1 << 40})
	assert.ErrorIs(t, err, ErrValueTooLarge)

	_, err = Encode(Message{KeyReport: strings.Repeat("x", 70000)})
	assert.ErrorIs(t, err, ErrValueTooLarge)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(Message{KeyTemp: 10})
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeUintWidths(t *testing.T) {
	data := []byte{
		2,
		0x09, 0, 0, 0, TypeUint, 1, 0, 200,
		0x0A, 0, 0, 0, TypeUint, 2, 0, 0x10, 0x27,
	}
	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 200, msg[KeyHumidity])
	assert.Equal(t, 10000, msg[KeyWindSpeed])
}

func TestMessageKind(t *testing.T) {
	assert.Equal(t, KindWeather, Message{KeyTemp: 1}.Kind())
	assert.Equal(t, KindReport, Message{KeyReport: "x"}.Kind())
}
