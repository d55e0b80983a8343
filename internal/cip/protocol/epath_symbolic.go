package protocol

import (
	"fmt"
	"strings"
)

// SegmentSymbolic is the ANSI extended symbol segment type.
const SegmentSymbolic byte = 0x91

// BuildSymbolicEPATH encodes a dotted tag name as one symbol segment per
// member, each padded to an even length.
func BuildSymbolicEPATH(tag string) []byte {
	var epath []byte
	for _, member := range strings.Split(tag, ".") {
		if member == "" {
			continue
		}
		epath = append(epath, SegmentSymbolic, byte(len(member)))
		epath = append(epath, member...)
		if len(member)%2 != 0 {
			epath = append(epath, 0x00)
		}
	}
	return epath
}

// DecodeSymbolicEPATH reverses BuildSymbolicEPATH.
func DecodeSymbolicEPATH(data []byte) (string, error) {
	if len(data) < 2 || data[0] != SegmentSymbolic {
		return "", fmt.Errorf("not a symbolic EPATH")
	}
	var members []string
	for offset := 0; offset < len(data); {
		if data[offset] != SegmentSymbolic {
			return "", fmt.Errorf("invalid symbolic segment 0x%02X at offset %d", data[offset], offset)
		}
		if len(data) < offset+2 {
			return "", fmt.Errorf("incomplete symbolic segment length")
		}
		length := int(data[offset+1])
		offset += 2
		if len(data) < offset+length {
			return "", fmt.Errorf("incomplete symbolic segment data")
		}
		members = append(members, string(data[offset:offset+length]))
		offset += length + length%2
	}
	return strings.Join(members, "."), nil
}
