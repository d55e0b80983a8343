package codec

// Little-endian wire helpers shared by the CIP and ENIP encoders.

import (
	"encoding/binary"
	"fmt"
)

// AppendUint16 appends a little-endian uint16 to dst.
func AppendUint16(dst []byte, value uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, value)
}

// AppendUint32 appends a little-endian uint32 to dst.
func AppendUint32(dst []byte, value uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, value)
}

// AppendUint64 appends a little-endian uint64 to dst.
func AppendUint64(dst []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, value)
}

// Uint16 reads a little-endian uint16 at offset.
func Uint16(data []byte, offset int) (uint16, error) {
	if offset < 0 || len(data) < offset+2 {
		return 0, fmt.Errorf("uint16 at offset %d: have %d bytes", offset, len(data))
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

// Uint32 reads a little-endian uint32 at offset.
func Uint32(data []byte, offset int) (uint32, error) {
	if offset < 0 || len(data) < offset+4 {
		return 0, fmt.Errorf("uint32 at offset %d: have %d bytes", offset, len(data))
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}

// PadEven appends a single zero byte when data has odd length.
func PadEven(data []byte) []byte {
	if len(data)%2 != 0 {
		return append(data, 0x00)
	}
	return data
}

// Join concatenates byte slices into a freshly allocated slice.
func Join(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
