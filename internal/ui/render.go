package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tturner/cipmsg/internal/cip/generic"
	"github.com/tturner/cipmsg/internal/cip/spec"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// RenderResult formats one request outcome as a bordered block.
func RenderResult(res generic.Result) string {
	return renderResult(DefaultStyles, res)
}

func renderResult(s Styles, res generic.Result) string {
	var badge string
	switch kind := cipErrors.KindOf(res.Error); {
	case res.Error == nil:
		badge = s.Success.Render("OK")
	case kind == cipErrors.KindDecodeFailure:
		badge = s.Warning.Render(strings.ToUpper(kind.String()))
	case kind != 0:
		badge = s.Error.Render(strings.ToUpper(kind.String()))
	default:
		badge = s.Error.Render("ERROR")
	}

	title := res.Label
	if title == "" {
		title = generic.DefaultLabel
	}
	lines := []string{
		s.Title.Render(title) + "  " + badge,
		row(s, "id", res.ID.String()),
	}
	if value := FormatValue(res.Value); value != "" {
		lines = append(lines, row(s, "value", value))
	}
	if res.Error != nil {
		lines = append(lines, row(s, "error", res.Error.Error()))
		var cipErr *cipErrors.CIPError
		if cipErrors.As(res.Error, &cipErr) && cipErr.Kind == cipErrors.KindDeviceError {
			lines = append(lines, row(s, "status", fmt.Sprintf("0x%02X %s", cipErr.Status, cipErrors.StatusText(cipErr.Status))))
		}
	}
	return s.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderEnvelope formats a request that was built but not sent.
func RenderEnvelope(label string, env generic.Envelope, frame []byte) string {
	s := DefaultStyles
	req := env.Request()
	lines := []string{s.Title.Render(label) + "  " + s.Dim.Render("dry run")}
	switch e := env.(type) {
	case generic.ConnectedEnvelope:
		lines = append(lines, row(s, "mode", "connected"), row(s, "sequence", fmt.Sprint(e.Sequence)))
	case generic.UnconnectedEnvelope:
		mode := "unconnected"
		if e.UnconnectedSend {
			mode = "unconnected send"
		}
		lines = append(lines, row(s, "mode", mode))
		if e.RoutePath != nil {
			lines = append(lines, row(s, "route", fmt.Sprintf("% X", e.RoutePath)))
		}
	}
	if len(req.Service) == 1 {
		lines = append(lines, row(s, "service", fmt.Sprintf("% X (%s)", req.Service, spec.ServiceName(spec.ServiceCode(req.Service[0])))))
	} else {
		lines = append(lines, row(s, "service", fmt.Sprintf("% X", req.Service)))
	}
	lines = append(lines, row(s, "path", fmt.Sprintf("% X", req.Path)))
	if len(req.Data) > 0 {
		lines = append(lines, row(s, "payload", fmt.Sprintf("% X", req.Data)))
	}
	if len(frame) > 0 {
		lines = append(lines, row(s, "encoded", fmt.Sprintf("% X", frame)))
	}
	return s.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func row(s Styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.Key.Render(key), s.Value.Render(value))
}

// FormatValue renders a Result value: byte slices as hex, full responses
// with their status, everything else with %v.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		if len(val) == 0 {
			return "(empty)"
		}
		return fmt.Sprintf("% X", val)
	case *generic.DeviceResponse:
		if val == nil {
			return ""
		}
		out := fmt.Sprintf("service=0x%02X status=0x%02X", val.Service, val.Status.General)
		if len(val.Status.Extended) > 0 {
			out += fmt.Sprintf(" ext=% X", val.Status.Extended)
		}
		if len(val.Raw) > 0 {
			out += fmt.Sprintf(" data=% X", val.Raw)
		}
		return out
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
