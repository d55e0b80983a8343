package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserFriendlyError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UserFriendlyError
		contains []string
	}{
		{
			name:     "message only",
			err:      UserFriendlyError{Message: "send failed"},
			contains: []string{"send failed"},
		},
		{
			name: "all fields",
			err: UserFriendlyError{
				Message: "connection failed",
				Reason:  "timeout",
				Hint:    "check network",
				Try:     "cipmsg send --dry-run",
				Err:     fmt.Errorf("dial tcp: timeout"),
			},
			contains: []string{"connection failed", "Reason: timeout", "Hint: check network", "Try: cipmsg send --dry-run", "Details: dial tcp: timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want to contain %q", msg, s)
				}
			}
		})
	}
}

func TestUserFriendlyError_ErrorOmitsEmptyFields(t *testing.T) {
	msg := UserFriendlyError{Message: "msg"}.Error()
	for _, field := range []string{"Reason:", "Hint:", "Try:", "Details:"} {
		if strings.Contains(msg, field) {
			t.Errorf("Error() = %q, should not contain %s", msg, field)
		}
	}
}

func TestUserFriendlyError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("root cause")
	err := UserFriendlyError{Message: "wrapper", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Unwrap should return the inner error")
	}

	var empty UserFriendlyError
	if empty.Unwrap() != nil {
		t.Error("Unwrap on nil Err should return nil")
	}
}

func TestWrapNetworkError(t *testing.T) {
	if WrapNetworkError(nil, "10.0.0.1", 44818) != nil {
		t.Fatal("nil error should stay nil")
	}

	tests := []struct {
		in     string
		reason string
	}{
		{"dial tcp: i/o timeout", "timeout"},
		{"context deadline exceeded", "timeout"},
		{"connection refused", "refused"},
		{"no route to host", "route"},
		{"connection reset by peer", "closed"},
		{"read: EOF", "closed"},
		{"forward open rejected: device error", "--unconnected"},
		{"something else", "Network communication failed"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ufe := WrapNetworkError(fmt.Errorf("%s", tt.in), "10.0.0.1", 44818).(UserFriendlyError)
			if !strings.Contains(ufe.Message, "10.0.0.1:44818") {
				t.Errorf("message should contain address, got %q", ufe.Message)
			}
			if !strings.Contains(ufe.Reason, tt.reason) {
				t.Errorf("reason = %q, want to contain %q", ufe.Reason, tt.reason)
			}
		})
	}
}

func TestWrapCIPError(t *testing.T) {
	if WrapCIPError(nil, "read") != nil {
		t.Fatal("nil error should stay nil")
	}

	t.Run("device error", func(t *testing.T) {
		ufe := WrapCIPError(DeviceError(0x08, nil), "Get_Attribute_Single").(UserFriendlyError)
		if !strings.Contains(ufe.Message, "Get_Attribute_Single") {
			t.Errorf("message should contain operation, got %q", ufe.Message)
		}
		if !strings.Contains(ufe.Reason, "0x08") || !strings.Contains(ufe.Reason, "Service not supported") {
			t.Errorf("reason should describe status, got %q", ufe.Reason)
		}
	})

	t.Run("wrapped invalid route", func(t *testing.T) {
		err := fmt.Errorf("send: %w", InvalidRoute("bad token %q", "x"))
		ufe := WrapCIPError(err, "send").(UserFriendlyError)
		if !strings.Contains(ufe.Reason, "Route") {
			t.Errorf("reason should mention route, got %q", ufe.Reason)
		}
	})

	t.Run("by kind", func(t *testing.T) {
		cases := []struct {
			err  error
			want string
		}{
			{DeviceError(0x1F, []byte{0x05, 0x01}), "extended status 05 01"},
			{DecodeFailure("decode", fmt.Errorf("short")), "data type"},
			{TransportFailure("send", fmt.Errorf("i/o timeout")), "timeout"},
			{InvalidAddress("class out of range"), "out of range"},
			{fmt.Errorf("something"), "CIP protocol error occurred"},
		}
		for _, c := range cases {
			ufe := WrapCIPError(c.err, "read").(UserFriendlyError)
			if !strings.Contains(ufe.Reason, c.want) {
				t.Errorf("%v: reason = %q, want to contain %q", c.err, ufe.Reason, c.want)
			}
		}
	})
}

func TestWrapConfigError(t *testing.T) {
	if WrapConfigError(nil, "cipmsg.yaml") != nil {
		t.Fatal("nil error should stay nil")
	}

	ufe := WrapConfigError(fmt.Errorf("invalid yaml"), "cipmsg.yaml").(UserFriendlyError)
	if !strings.Contains(ufe.Message, "cipmsg.yaml") {
		t.Errorf("message should contain config path, got %q", ufe.Message)
	}
	if ufe.Reason != "invalid yaml" {
		t.Errorf("reason should be inner error message, got %q", ufe.Reason)
	}
	if !strings.Contains(ufe.Hint, "config init") {
		t.Errorf("hint should point at config init, got %q", ufe.Hint)
	}
}
