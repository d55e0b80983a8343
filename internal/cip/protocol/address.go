package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/tturner/cipmsg/internal/cip/codec"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Logical segment types (segment type 001, logical type in bits 2-4).
const (
	SegmentClass     byte = 0x20
	SegmentInstance  byte = 0x24
	SegmentMember    byte = 0x28
	SegmentConnPoint byte = 0x2C
	SegmentAttribute byte = 0x30

	logicalFormatMask byte = 0x03
	logicalFormat16   byte = 0x01
)

// Identifier limits enforced by the address codec.
const (
	MaxServiceCode = 0xFF
	MaxLogicalID   = 0xFFFF
)

// PathMode selects how 16-bit logical segments are laid out.
type PathMode uint8

const (
	// PathPadded writes a pad byte between a 16-bit segment type and its value.
	PathPadded PathMode = iota
	// PathPacked writes the 16-bit value directly after the segment type.
	PathPacked
)

func (m PathMode) String() string {
	if m == PathPacked {
		return "packed"
	}
	return "padded"
}

// ParsePathMode maps "padded"/"packed" (or empty) to a PathMode.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "padded":
		return PathPadded, nil
	case "packed":
		return PathPacked, nil
	default:
		return PathPadded, fmt.Errorf("unknown path mode %q", s)
	}
}

type addressKind uint8

const (
	addressAbsent addressKind = iota
	addressNumeric
	addressRaw
)

// Address is a service or logical identifier that is either a number to be
// encoded or bytes already in wire form. The zero value is absent.
type Address struct {
	kind addressKind
	num  int
	raw  []byte
}

// Numeric returns an address encoded by the codec.
func Numeric(n int) Address {
	return Address{kind: addressNumeric, num: n}
}

// Raw returns an address whose bytes are sent unchanged.
func Raw(b []byte) Address {
	return Address{kind: addressRaw, raw: append([]byte{}, b...)}
}

// Symbolic returns a raw address holding ANSI extended symbol segments for tag.
func Symbolic(tag string) Address {
	return Raw(BuildSymbolicEPATH(tag))
}

func (a Address) IsAbsent() bool { return a.kind == addressAbsent }

// IsEmpty reports an absent address or a raw address with no bytes.
func (a Address) IsEmpty() bool {
	return a.kind == addressAbsent || (a.kind == addressRaw && len(a.raw) == 0)
}

func (a Address) IsNumeric() bool { return a.kind == addressNumeric }

// Value returns the numeric value, if any.
func (a Address) Value() (int, bool) {
	return a.num, a.kind == addressNumeric
}

// Bytes returns a copy of the raw bytes, if any.
func (a Address) Bytes() ([]byte, bool) {
	if a.kind != addressRaw {
		return nil, false
	}
	return append([]byte{}, a.raw...), true
}

// Equal compares kind and content.
func (a Address) Equal(b Address) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case addressNumeric:
		return a.num == b.num
	case addressRaw:
		return bytes.Equal(a.raw, b.raw)
	}
	return true
}

func (a Address) String() string {
	switch a.kind {
	case addressNumeric:
		return fmt.Sprintf("0x%02X", a.num)
	case addressRaw:
		return "raw[" + strings.ToUpper(hex.EncodeToString(a.raw)) + "]"
	}
	return "absent"
}

// ParseAddress reads CLI/config notation: a decimal or 0x number, "hex:<bytes>"
// for raw wire bytes, or "sym:<tag>" for symbolic segments. Empty input is absent.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Address{}, nil
	case strings.HasPrefix(s, "hex:"):
		raw, err := ParseHex(strings.TrimPrefix(s, "hex:"))
		if err != nil {
			return Address{}, err
		}
		return Raw(raw), nil
	case strings.HasPrefix(s, "sym:"):
		return Symbolic(strings.TrimPrefix(s, "sym:")), nil
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q", s)
	}
	return Numeric(int(n)), nil
}

// ParseHex decodes hex text, ignoring spaces, colons and dashes.
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "").Replace(s)
	clean = strings.TrimPrefix(strings.ToLower(clean), "0x")
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex %q has an odd number of digits", s)
	}
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return out, nil
}

// EncodeService returns the service byte(s).
func EncodeService(a Address) ([]byte, error) {
	switch a.kind {
	case addressNumeric:
		if a.num < 0 || a.num > MaxServiceCode {
			return nil, cipErrors.InvalidAddress("service %d out of range 0..0x%02X", a.num, MaxServiceCode)
		}
		return []byte{byte(a.num)}, nil
	case addressRaw:
		if len(a.raw) == 0 {
			return nil, cipErrors.InvalidAddress("service: empty raw bytes")
		}
		return append([]byte{}, a.raw...), nil
	}
	return nil, cipErrors.InvalidAddress("service is required")
}

// EncodeLogical encodes a into a logical segment of the given type. Numeric
// values up to 0xFF use the 8-bit form, larger values the 16-bit form laid
// out according to mode. An absent address encodes to nothing.
func EncodeLogical(segType byte, a Address, mode PathMode) ([]byte, error) {
	switch a.kind {
	case addressAbsent:
		return nil, nil
	case addressRaw:
		return append([]byte{}, a.raw...), nil
	}

	n := a.num
	if n < 0 || n > MaxLogicalID {
		return nil, cipErrors.InvalidAddress("%s %d out of range 0..0x%04X", segmentName(segType), n, MaxLogicalID)
	}
	if n <= 0xFF {
		return []byte{segType, byte(n)}, nil
	}
	out := []byte{segType | logicalFormat16}
	if mode == PathPadded {
		out = append(out, 0x00)
	}
	return codec.AppendUint16(out, uint16(n)), nil
}

// DecodeLogical reads one 8- or 16-bit logical segment from the front of data
// and returns its type, value and encoded length.
func DecodeLogical(data []byte, mode PathMode) (segType byte, value int, n int, err error) {
	if len(data) < 2 {
		return 0, 0, 0, fmt.Errorf("logical segment too short: %d bytes", len(data))
	}
	head := data[0]
	if head&0xE0 != 0x20 {
		return 0, 0, 0, fmt.Errorf("not a logical segment: 0x%02X", head)
	}
	segType = head &^ logicalFormatMask
	switch head & logicalFormatMask {
	case 0x00:
		return segType, int(data[1]), 2, nil
	case logicalFormat16:
		offset := 1
		if mode == PathPadded {
			offset = 2
		}
		v, err := codec.Uint16(data, offset)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("16-bit %s segment: %w", segmentName(segType), err)
		}
		return segType, int(v), offset + 2, nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported logical format in 0x%02X", head)
}

// BuildRequestPath encodes class, instance and optional attribute segments.
func BuildRequestPath(class, instance, attribute Address, mode PathMode) ([]byte, error) {
	if class.IsEmpty() {
		return nil, cipErrors.InvalidAddress("class is required")
	}
	if instance.IsEmpty() {
		return nil, cipErrors.InvalidAddress("instance is required")
	}
	var path []byte
	for _, part := range []struct {
		seg byte
		a   Address
	}{{SegmentClass, class}, {SegmentInstance, instance}, {SegmentAttribute, attribute}} {
		enc, err := EncodeLogical(part.seg, part.a, mode)
		if err != nil {
			return nil, err
		}
		path = append(path, enc...)
	}
	return path, nil
}

func segmentName(segType byte) string {
	switch segType {
	case SegmentClass:
		return "class"
	case SegmentInstance:
		return "instance"
	case SegmentMember:
		return "member"
	case SegmentConnPoint:
		return "connection point"
	case SegmentAttribute:
		return "attribute"
	}
	return fmt.Sprintf("segment 0x%02X", segType)
}
