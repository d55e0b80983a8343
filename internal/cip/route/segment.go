package route

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/tturner/cipmsg/internal/cip/codec"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// SegmentType tags a hop descriptor.
type SegmentType uint8

const (
	PortType SegmentType = iota + 1
	LinkType
)

func (t SegmentType) String() string {
	switch t {
	case PortType:
		return "port"
	case LinkType:
		return "link"
	}
	return fmt.Sprintf("segment(%d)", uint8(t))
}

const (
	extendedPortMarker byte = 0x0F
	extendedLinkFlag   byte = 0x10
	maxShortPort            = 0x0E
	maxLinkValue            = 0xFF
)

// Segment is one hop descriptor: a port, or the link address reached through
// the preceding port. Address holds a textual link such as an IPv4 address.
type Segment struct {
	Type    SegmentType
	Value   uint16
	Address string
}

// Port returns a port segment.
func Port(n uint16) Segment {
	return Segment{Type: PortType, Value: n}
}

// Link returns a numeric link address segment (slot, node).
func Link(n uint16) Segment {
	return Segment{Type: LinkType, Value: n}
}

// LinkAddress returns a textual link address segment, e.g. an IPv4 address.
func LinkAddress(addr string) Segment {
	return Segment{Type: LinkType, Address: addr}
}

// PortName returns the port segment for a named port.
func PortName(name string) (Segment, error) {
	n, ok := portNames[normalize(name)]
	if !ok {
		return Segment{}, cipErrors.InvalidRoute("unknown port name %q", name)
	}
	return Port(n), nil
}

func (s Segment) String() string {
	if s.Type == LinkType && s.Address != "" {
		return s.Address
	}
	return strconv.Itoa(int(s.Value))
}

var portNames = map[string]uint16{
	"backplane": 1,
	"bp":        1,
	"enet":      2,
	"dnet":      2,
	"cnet":      2,
	"dhrioa":    2,
	"dh485a":    2,
	"dhriob":    3,
	"dh485b":    3,
}

// appendSegments encodes segs in order. A port followed by a textual link
// address is written as an extended link port segment.
func appendSegments(dst []byte, segs []Segment) ([]byte, error) {
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		switch seg.Type {
		case PortType:
			if seg.Value == 0 {
				return nil, cipErrors.InvalidRoute("segment %d: port 0 is reserved", i)
			}
			var flag byte
			if i+1 < len(segs) && segs[i+1].Type == LinkType && segs[i+1].Address != "" {
				flag = extendedLinkFlag
			}
			if seg.Value <= maxShortPort {
				dst = append(dst, byte(seg.Value)|flag)
			} else {
				dst = codec.AppendUint16(append(dst, extendedPortMarker|flag), seg.Value)
			}
			if flag != 0 {
				link := segs[i+1]
				if err := validateLinkAddress(link.Address); err != nil {
					return nil, cipErrors.InvalidRoute("segment %d: %v", i+1, err)
				}
				dst = append(dst, byte(len(link.Address)))
				dst = append(dst, link.Address...)
				if len(link.Address)%2 != 0 {
					dst = append(dst, 0x00)
				}
				i++
			}
		case LinkType:
			if seg.Address != "" {
				return nil, cipErrors.InvalidRoute("segment %d: link address %q must follow a port", i, seg.Address)
			}
			if seg.Value > maxLinkValue {
				return nil, cipErrors.InvalidRoute("segment %d: link %d out of range 0..%d", i, seg.Value, maxLinkValue)
			}
			dst = append(dst, byte(seg.Value))
		default:
			return nil, cipErrors.InvalidRoute("segment %d: unknown segment type %d", i, seg.Type)
		}
	}
	return dst, nil
}

func validateLinkAddress(addr string) error {
	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() {
		return fmt.Errorf("link address %q is not an IPv4 address", addr)
	}
	if len(addr) > 0xFF {
		return fmt.Errorf("link address %q too long", addr)
	}
	return nil
}
