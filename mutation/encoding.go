package mutation

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Column values use fixed-width big-endian encodings for numbers, a single
// 0xFF or 0x00 byte for booleans and UTF-8 for strings. Bytes pass through.

// Numeric is any value EncodeNumber accepts.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// EncodeNumber encodes v with the width of its Go type. Types up to 4 bytes
// wide encode as 4 bytes, wider ones as 8. Floats keep their IEEE 754 bits and
// integers are sign or zero extended.
func EncodeNumber[T Numeric](v T) []byte {
	var half T = 1
	half /= 2
	wide := unsafe.Sizeof(v) > 4
	switch {
	case half != 0 && wide:
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(float64(v)))
	case half != 0:
		return binary.BigEndian.AppendUint32(nil, math.Float32bits(float32(v)))
	case wide:
		return binary.BigEndian.AppendUint64(nil, uint64(v))
	}
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

func EncodeInt(v int32) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

func EncodeLong(v int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

func EncodeFloat(v float32) []byte {
	return binary.BigEndian.AppendUint32(nil, math.Float32bits(v))
}

func EncodeDouble(v float64) []byte {
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(v))
}

func EncodeBoolean(v bool) []byte {
	if v {
		return []byte{0xFF}
	}
	return []byte{0x00}
}

func EncodeString(v string) []byte { return []byte(v) }

func DecodeInt(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, errors.Errorf("int needs 4 bytes, got %d", len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func DecodeLong(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, errors.Errorf("long needs 8 bytes, got %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func DecodeFloat(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, errors.Errorf("float needs 4 bytes, got %d", len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func DecodeDouble(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, errors.Errorf("double needs 8 bytes, got %d", len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// DecodeBoolean treats any non-zero byte as true.
func DecodeBoolean(b []byte) (bool, error) {
	if len(b) != 1 {
		return false, errors.Errorf("boolean needs 1 byte, got %d", len(b))
	}
	return b[0] != 0, nil
}

func DecodeString(b []byte) string { return string(b) }
