package app

import (
	"fmt"
	"io"

	"github.com/tturner/cipmsg/internal/cip/route"
)

// RunRoute prints how a textual route is encoded in the given mode.
func RunRoute(out io.Writer, text, mode string) error {
	m, err := route.ParseMode(mode)
	if err != nil {
		return err
	}
	segs, err := route.Parse(text)
	if err != nil {
		return err
	}
	encoded, err := route.Encode(segs, m)
	if err != nil {
		return err
	}
	connPath, err := route.ConnectionPath(segs)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Route: %s (%d segments, %s)\n", text, len(segs), m)
	for i, s := range segs {
		fmt.Fprintf(out, "  [%d] %s\n", i, s)
	}
	fmt.Fprintf(out, "Unconnected Send route: %s\n", route.Describe(encoded))
	fmt.Fprintf(out, "Connection path:        %s\n", route.Describe(connPath))
	return nil
}
