// Package route builds the encoded route path carried by unconnected requests.
package route

import (
	"fmt"
	"strings"

	"github.com/tturner/cipmsg/internal/cip/codec"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Mode selects the route path layout.
type Mode uint8

const (
	// Padded appends a zero byte when the encoded path has odd length.
	Padded Mode = iota
	// Packed never pads.
	Packed
)

func (m Mode) String() string {
	if m == Packed {
		return "packed"
	}
	return "padded"
}

// ParseMode maps "padded"/"packed" (or empty) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch normalize(s) {
	case "", "padded":
		return Padded, nil
	case "packed":
		return Packed, nil
	}
	return Padded, fmt.Errorf("unknown route mode %q", s)
}

type specKind uint8

const (
	kindDefault specKind = iota
	kindNone
	kindSegments
	kindRaw
	kindText
)

// Spec says where the route path of an unconnected request comes from.
// The zero value uses the connection's default route.
type Spec struct {
	kind     specKind
	segments []Segment
	raw      []byte
	text     string
}

// Default uses the connection's configured route.
func Default() Spec { return Spec{} }

// None attaches no route path.
func None() Spec { return Spec{kind: kindNone} }

// FromBool maps true to Default and false to None.
func FromBool(use bool) Spec {
	if use {
		return Default()
	}
	return None()
}

// FromSegments encodes segs in the given order.
func FromSegments(segs ...Segment) Spec {
	return Spec{kind: kindSegments, segments: append([]Segment{}, segs...)}
}

// FromRaw sends b verbatim. The caller owns its correctness, padding included.
func FromRaw(b []byte) Spec {
	return Spec{kind: kindRaw, raw: append([]byte{}, b...)}
}

// FromText parses text with Parse when resolved.
func FromText(text string) Spec {
	return Spec{kind: kindText, text: text}
}

// IsNone reports a spec that attaches no route.
func (s Spec) IsNone() bool { return s.kind == kindNone }

func (s Spec) String() string {
	switch s.kind {
	case kindNone:
		return "none"
	case kindSegments:
		return Format(s.segments)
	case kindRaw:
		return fmt.Sprintf("raw[% X]", s.raw)
	case kindText:
		return s.text
	}
	return "default"
}

// Resolve produces the encoded route path. None yields nil.
func (s Spec) Resolve(defaultRoute []Segment, mode Mode) ([]byte, error) {
	switch s.kind {
	case kindNone:
		return nil, nil
	case kindRaw:
		return append([]byte{}, s.raw...), nil
	case kindSegments:
		return Encode(s.segments, mode)
	case kindText:
		segs, err := Parse(s.text)
		if err != nil {
			return nil, err
		}
		return Encode(segs, mode)
	}
	return Encode(defaultRoute, mode)
}

// Encode writes the segment count, the segment bytes and, for Padded, one
// zero byte if the total length is odd.
func Encode(segs []Segment, mode Mode) ([]byte, error) {
	if len(segs) > 0xFF {
		return nil, cipErrors.InvalidRoute("too many segments: %d", len(segs))
	}
	out, err := appendSegments([]byte{byte(len(segs))}, segs)
	if err != nil {
		return nil, err
	}
	if mode == Padded {
		out = codec.PadEven(out)
	}
	return out, nil
}

// ConnectionPath encodes segs as standard port segments without a count
// prefix, padded to a word boundary. Used in Forward Open.
func ConnectionPath(segs []Segment) ([]byte, error) {
	out, err := appendSegments(nil, segs)
	if err != nil {
		return nil, err
	}
	return codec.PadEven(out), nil
}

// Describe renders encoded route bytes for display.
func Describe(encoded []byte) string {
	if len(encoded) == 0 {
		return "(none)"
	}
	return strings.TrimSpace(fmt.Sprintf("% X", encoded))
}
