package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/tturner/cipmsg/internal/cip/generic"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

func TestRenderResultSuccess(t *testing.T) {
	id := uuid.New()
	out := RenderResult(generic.Result{ID: id, Label: "vendor", Value: []byte{0x01, 0x00}})
	for _, want := range []string{"vendor", "OK", id.String(), "01 00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderResultDeviceError(t *testing.T) {
	out := RenderResult(generic.Result{Error: cipErrors.DeviceError(0x05, nil)})
	for _, want := range []string{generic.DefaultLabel, "DEVICE ERROR", "0x05"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderResultPlainError(t *testing.T) {
	out := RenderResult(generic.Result{Label: "x", Error: errors.New("boom")})
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "boom") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty bytes", []byte{}, "(empty)"},
		{"bytes", []byte{0xAB, 0x01}, "AB 01"},
		{"string", "1756-L85E", `"1756-L85E"`},
		{"number", uint16(7), "7"},
		{"response", &generic.DeviceResponse{
			Service: 0x8E,
			Status:  generic.Status{General: 0x1F, Extended: []byte{0x01, 0x02}},
			Raw:     []byte{0xFF},
		}, "service=0x8E status=0x1F ext=01 02 data=FF"},
		{"nil response", (*generic.DeviceResponse)(nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderEnvelope(t *testing.T) {
	out := RenderEnvelope("vendor_id", generic.UnconnectedEnvelope{
		Service:         []byte{0x0E},
		Path:            []byte{0x20, 0x01, 0x24, 0x01},
		RoutePath:       []byte{0x01, 0x00},
		UnconnectedSend: true,
	}, []byte{0x52, 0x02})
	for _, want := range []string{"vendor_id", "dry run", "unconnected send", "01 00", "20 01 24 01", "52 02", "Get_Attribute_Single"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = RenderEnvelope("conn", generic.ConnectedEnvelope{Sequence: 9, Service: []byte{0x01}, Path: []byte{0x20, 0x01}}, nil)
	if !strings.Contains(out, "connected") || !strings.Contains(out, "9") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) error
		in   string
		ok   bool
	}{
		{"service alias", validateService, "get_attribute_single", true},
		{"service number", validateService, "0x0E", true},
		{"service empty", validateService, "", false},
		{"service unknown", validateService, "frobnicate", false},
		{"class alias", validateClass, "identity", true},
		{"class empty", validateClass, " ", false},
		{"instance", validateRequired, "1", true},
		{"instance empty", validateRequired, "", false},
		{"attribute empty", validateOptional, "", true},
		{"attribute bad", validateOptional, "x y", false},
		{"payload empty", validatePayload, "", true},
		{"payload", validatePayload, "01 02", true},
		{"payload odd", validatePayload, "012", false},
		{"route empty", validateRoute, "", true},
		{"route", validateRoute, "1/0", true},
		{"route bad", validateRoute, "1/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.in); (err == nil) != tt.ok {
				t.Errorf("validator(%q) err = %v", tt.in, err)
			}
		})
	}
}

func TestNewRequestFormKeepsDefaults(t *testing.T) {
	v := &RequestValues{Service: "0x0E", Class: "identity", Instance: "1", Connected: true}
	form := NewRequestForm(v)
	if form.State != huh.StateNormal {
		t.Fatalf("state = %v", form.State)
	}
	if v.Service != "0x0E" || !v.Connected {
		t.Errorf("defaults changed: %+v", v)
	}
}

func TestFormModelQuitsWhenDone(t *testing.T) {
	form := NewRequestForm(&RequestValues{})
	form.State = huh.StateAborted
	m := formModel{form: form}
	_, cmd := m.Update(nil)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.View() != "" {
		t.Error("finished form should render nothing")
	}
}

func TestCopyHex(t *testing.T) {
	var got string
	orig := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	defer func() { writeClipboard = orig }()

	err := CopyHex([]byte{0x6F, 0x00, 0x10})
	if err != nil && !strings.Contains(err.Error(), "not available") {
		t.Fatalf("CopyHex: %v", err)
	}
	if err == nil && got != "6F 00 10" {
		t.Errorf("clipboard = %q", got)
	}

	writeClipboard = func(string) error { return errors.New("no display") }
	if err := CopyHex([]byte{1}); err == nil {
		t.Error("expected error")
	}
}
