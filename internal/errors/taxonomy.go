package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures of a generic CIP request.
type Kind uint8

const (
	KindInvalidAddress Kind = iota + 1
	KindInvalidRoute
	KindConnectionUnavailable
	KindTransportFailure
	KindDeviceError
	KindDecodeFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAddress:
		return "invalid address"
	case KindInvalidRoute:
		return "invalid route"
	case KindConnectionUnavailable:
		return "connection unavailable"
	case KindTransportFailure:
		return "transport failure"
	case KindDeviceError:
		return "device error"
	case KindDecodeFailure:
		return "decode failure"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// CIPError is a classified request failure. Status and ExtStatus are only
// meaningful for KindDeviceError.
type CIPError struct {
	Kind      Kind
	Op        string
	Status    uint8
	ExtStatus []byte
	Err       error
}

// Sentinels for errors.Is matching. Any *CIPError of the same Kind matches.
var (
	ErrInvalidAddress        = &CIPError{Kind: KindInvalidAddress}
	ErrInvalidRoute          = &CIPError{Kind: KindInvalidRoute}
	ErrConnectionUnavailable = &CIPError{Kind: KindConnectionUnavailable}
	ErrTransportFailure      = &CIPError{Kind: KindTransportFailure}
	ErrDeviceError           = &CIPError{Kind: KindDeviceError}
	ErrDecodeFailure         = &CIPError{Kind: KindDecodeFailure}
)

func (e *CIPError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Kind == KindDeviceError {
		msg += fmt.Sprintf(" (status 0x%02X %s", e.Status, StatusText(e.Status))
		if len(e.ExtStatus) > 0 {
			msg += fmt.Sprintf(", extended % X", e.ExtStatus)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CIPError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a CIPError of the same kind.
func (e *CIPError) Is(target error) bool {
	t, ok := target.(*CIPError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidAddress reports a malformed service/class/instance/attribute.
func InvalidAddress(format string, args ...any) error {
	return &CIPError{Kind: KindInvalidAddress, Err: fmt.Errorf(format, args...)}
}

// InvalidRoute reports an unparsable or unencodable route path.
func InvalidRoute(format string, args ...any) error {
	return &CIPError{Kind: KindInvalidRoute, Err: fmt.Errorf(format, args...)}
}

// ConnectionUnavailable wraps a failure to open the connected session.
func ConnectionUnavailable(op string, err error) error {
	return &CIPError{Kind: KindConnectionUnavailable, Op: op, Err: err}
}

// TransportFailure wraps a send that did not complete.
func TransportFailure(op string, err error) error {
	return &CIPError{Kind: KindTransportFailure, Op: op, Err: err}
}

// DecodeFailure wraps a value decoder error.
func DecodeFailure(op string, err error) error {
	return &CIPError{Kind: KindDecodeFailure, Op: op, Err: err}
}

// DeviceError reports a non-success general status returned by the device.
func DeviceError(status uint8, ext []byte) *CIPError {
	var extCopy []byte
	if len(ext) > 0 {
		extCopy = append([]byte(nil), ext...)
	}
	return &CIPError{Kind: KindDeviceError, Status: status, ExtStatus: extCopy}
}

// KindOf returns the Kind of the first CIPError in err's chain, or 0.
func KindOf(err error) Kind {
	var cipErr *CIPError
	if stderrors.As(err, &cipErr) {
		return cipErr.Kind
	}
	return 0
}

// Is, As and New mirror the standard library so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }
