package route

import (
	"net/netip"
	"strconv"
	"strings"

	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Parse reads a textual route such as "1/0", "backplane,2" or
// "1/0/2/192.168.1.20". Hops alternate port then link; separators are '/'
// or ','. Ports are numbers or names (backplane, bp, enet, dnet, cnet,
// dhrioa, dhriob, dh485a, dh485b); links are 0..255 or an IPv4 address.
func Parse(text string) ([]Segment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, cipErrors.InvalidRoute("empty route")
	}
	tokens := strings.FieldsFunc(text, func(r rune) bool { return r == '/' || r == ',' })
	if len(tokens) != strings.Count(text, "/")+strings.Count(text, ",")+1 {
		return nil, cipErrors.InvalidRoute("route %q has an empty hop", text)
	}
	if len(tokens)%2 != 0 {
		return nil, cipErrors.InvalidRoute("route %q: expected port/link pairs, got %d tokens", text, len(tokens))
	}

	segs := make([]Segment, 0, len(tokens))
	for i, raw := range tokens {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			return nil, cipErrors.InvalidRoute("route %q has an empty hop", text)
		}
		if i%2 == 0 {
			seg, err := parsePort(tok)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			continue
		}
		seg, err := parseLink(tok)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// Format renders segments in the textual route grammar.
func Format(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

func parsePort(tok string) (Segment, error) {
	if n, err := strconv.ParseUint(tok, 10, 16); err == nil {
		if n == 0 {
			return Segment{}, cipErrors.InvalidRoute("port 0 is reserved")
		}
		return Port(uint16(n)), nil
	}
	return PortName(tok)
}

func parseLink(tok string) (Segment, error) {
	if n, err := strconv.ParseUint(tok, 10, 16); err == nil {
		if n > maxLinkValue {
			return Segment{}, cipErrors.InvalidRoute("link %d out of range 0..%d", n, maxLinkValue)
		}
		return Link(uint16(n)), nil
	}
	if ip, err := netip.ParseAddr(tok); err == nil && ip.Is4() {
		return LinkAddress(tok), nil
	}
	return Segment{}, cipErrors.InvalidRoute("invalid link %q", tok)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
