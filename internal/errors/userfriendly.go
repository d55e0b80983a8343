package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapNetworkError wraps network errors with user-friendly context
func WrapNetworkError(err error, ip string, port int) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to communicate with device at %s:%d", ip, port),
		Reason:  extractNetworkReason(err),
		Hint:    "Device may not speak EtherNet/IP, or there may be a network connectivity issue",
		Try:     fmt.Sprintf("cipmsg send --ip %s --port %d --service 0x01 --class 0x01 --instance 1 --unconnected", ip, port),
		Err:     err,
	}
}

// WrapCIPError wraps CIP protocol errors with user-friendly context
func WrapCIPError(err error, operation string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("CIP operation failed: %s", operation),
		Reason:  extractCIPReason(err),
		Hint:    "The device may not support this service, or the class/instance/attribute or route may be incorrect",
		Try:     "Re-run with --dry-run to inspect the encoded request",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Generate an annotated example with: cipmsg config init",
		Try:     fmt.Sprintf("cipmsg send --config %s --dry-run", configPath),
		Err:     err,
	}
}

var networkReasons = []struct {
	patterns []string
	reason   string
}{
	{[]string{"i/o timeout", "deadline exceeded", "timeout"}, "Connection timeout - device may be offline or unreachable"},
	{[]string{"connection refused"}, "Connection refused - device may not be listening on this port"},
	{[]string{"no route to host", "network is unreachable"}, "No route to host - network routing issue or device unreachable"},
	{[]string{"connection reset", "broken pipe", "EOF"}, "Connection closed - device dropped the session unexpectedly"},
	{[]string{"forward open rejected"}, "Device refused to open a connection - try --unconnected"},
	{[]string{"encapsulation status"}, "Device rejected the EtherNet/IP encapsulation command"},
}

func extractNetworkReason(err error) string {
	msg := err.Error()
	for _, r := range networkReasons {
		for _, p := range r.patterns {
			if strings.Contains(msg, p) {
				return r.reason
			}
		}
	}
	if KindOf(err) == KindConnectionUnavailable {
		return "Connected session could not be established"
	}
	return "Network communication failed"
}

func extractCIPReason(err error) string {
	var cipErr *CIPError
	if !As(err, &cipErr) {
		return "CIP protocol error occurred"
	}
	switch cipErr.Kind {
	case KindDeviceError:
		reason := fmt.Sprintf("Device returned general status 0x%02X (%s)", cipErr.Status, StatusText(cipErr.Status))
		if len(cipErr.ExtStatus) > 0 {
			reason += fmt.Sprintf(", extended status % X", cipErr.ExtStatus)
		}
		return reason
	case KindDecodeFailure:
		return "Reply data does not match the requested data type"
	case KindInvalidRoute:
		return "Route path could not be parsed"
	case KindInvalidAddress:
		return "Service, class, instance or attribute is out of range"
	case KindConnectionUnavailable:
		return "Connected session could not be established"
	case KindTransportFailure:
		return extractNetworkReason(err)
	}
	return "CIP protocol error occurred"
}
