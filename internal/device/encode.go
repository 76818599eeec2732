package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Tuple types of the app message dictionary.
const (
	TypeByteArray byte = 0
	TypeCString   byte = 1
	TypeUint      byte = 2
	TypeInt       byte = 3
)

// Dictionary layout (little-endian): count uint8, then per tuple key uint32,
// type uint8, length uint16 and the value bytes.
const (
	headerLen = 1
	tupleLen  = 7
)

var (
	ErrTooManyTuples    = errors.New("too many tuples")
	ErrUnsupportedValue = errors.New("unsupported value type")
	ErrValueTooLarge    = errors.New("value too large")
	ErrShortBuffer      = errors.New("dictionary truncated")
)

// Encode serializes msg in ascending key order. Integers are sent as int32.
func Encode(msg Message) ([]byte, error) {
	if len(msg) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyTuples, len(msg))
	}

	out := make([]byte, headerLen, 64)
	out[0] = byte(len(msg))

	for _, k := range msg.Keys() {
		typ, value, err := encodeValue(msg[k])
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", k, err)
		}
		if len(value) > math.MaxUint16 {
			return nil, fmt.Errorf("key %d: %w: %d bytes", k, ErrValueTooLarge, len(value))
		}

		var hdr [tupleLen]byte
		binary.LittleEndian.PutUint32(hdr[0:4], uint32(k))
		hdr[4] = typ
		binary.LittleEndian.PutUint16(hdr[5:7], uint16(len(value)))
		out = append(out, hdr[:]...)
		out = append(out, value...)
	}

	return out, nil
}

func encodeValue(v any) (byte, []byte, error) {
	switch val := v.(type) {
	case int:
		if val < math.MinInt32 || val > math.MaxInt32 {
			return 0, nil, fmt.Errorf("%w: %d does not fit int32", ErrValueTooLarge, val)
		}
		return encodeInt32(int32(val))
	case int32:
		return encodeInt32(val)
	case []byte:
		b := make([]byte, len(val))
		copy(b, val)
		return TypeByteArray, b, nil
	case string:
		b := make([]byte, 0, len(val)+1)
		b = append(b, val...)
		return TypeCString, append(b, 0), nil
	default:
		return 0, nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func encodeInt32(v int32) (byte, []byte, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return TypeInt, b, nil
}

// Decode parses a dictionary produced by Encode. Integer tuples of width 1, 2
// or 4 become int; cstrings lose their terminator.
func Decode(data []byte) (Message, error) {
	if len(data) < headerLen {
		return nil, ErrShortBuffer
	}

	count := int(data[0])
	msg := make(Message, count)
	pos := headerLen

	for i := 0; i < count; i++ {
		if len(data)-pos < tupleLen {
			return nil, fmt.Errorf("%w: tuple %d header", ErrShortBuffer, i)
		}
		key := Key(binary.LittleEndian.Uint32(data[pos : pos+4]))
		typ := data[pos+4]
		n := int(binary.LittleEndian.Uint16(data[pos+5 : pos+7]))
		pos += tupleLen

		if len(data)-pos < n {
			return nil, fmt.Errorf("%w: tuple %d value", ErrShortBuffer, i)
		}
		raw := data[pos : pos+n]
		pos += n

		v, err := decodeValue(typ, raw)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", key, err)
		}
		msg[key] = v
	}

	return msg, nil
}

func decodeValue(typ byte, raw []byte) (any, error) {
	switch typ {
	case TypeByteArray:
		b := make([]byte, len(raw))
		copy(b, raw)
		return b, nil
	case TypeCString:
		if l := len(raw); l > 0 && raw[l-1] == 0 {
			raw = raw[:l-1]
		}
		return string(raw), nil
	case TypeInt:
		switch len(raw) {
		case 1:
			return int(int8(raw[0])), nil
		case 2:
			return int(int16(binary.LittleEndian.Uint16(raw))), nil
		case 4:
			return int(int32(binary.LittleEndian.Uint32(raw))), nil
		}
	case TypeUint:
		switch len(raw) {
		case 1:
			return int(raw[0]), nil
		case 2:
			return int(binary.LittleEndian.Uint16(raw)), nil
		case 4:
			return int(binary.LittleEndian.Uint32(raw)), nil
		}
	default:
		return nil, fmt.Errorf("%w: tuple type %d", ErrUnsupportedValue, typ)
	}
	return nil, fmt.Errorf("%w: integer width %d", ErrUnsupportedValue, len(raw))
}
