package protocol

import (
	"fmt"

	"github.com/tturner/cipmsg/internal/cip/codec"
	"github.com/tturner/cipmsg/internal/cip/spec"
)

// Unconnected Send timing defaults.
const (
	DefaultPriorityTick byte = 0x0A
	DefaultTimeoutTicks byte = 0x05
)

// ConnectionManagerPath returns the path to Connection Manager instance 1.
func ConnectionManagerPath() []byte {
	return []byte{SegmentClass, byte(spec.ClassConnectionManager), SegmentInstance, 0x01}
}

// MessageRouterPath returns the path to Message Router instance 1.
func MessageRouterPath() []byte {
	return []byte{SegmentClass, byte(spec.ClassMessageRouter), SegmentInstance, 0x01}
}

// WrapUnconnectedSend embeds an encoded request in an Unconnected Send to the
// Connection Manager. routePath is appended verbatim after the padded message.
func WrapUnconnectedSend(message, routePath []byte) ([]byte, error) {
	if len(message) > 0xFFFF {
		return nil, fmt.Errorf("embedded message too long: %d bytes", len(message))
	}
	data := []byte{DefaultPriorityTick, DefaultTimeoutTicks}
	data = codec.AppendUint16(data, uint16(len(message)))
	data = append(data, message...)
	data = codec.PadEven(data)
	data = append(data, routePath...)

	return Request{
		Service: []byte{byte(spec.ServiceUnconnectedSend)},
		Path:    ConnectionManagerPath(),
		Data:    data,
	}.Encode()
}

// ParseUnconnectedSend extracts the embedded message and the route path bytes
// from the data of an Unconnected Send request.
func ParseUnconnectedSend(data []byte) (message, routePath []byte, err error) {
	msgLen, err := codec.Uint16(data, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("unconnected send header: %w", err)
	}
	offset := 4
	end := offset + int(msgLen)
	if end > len(data) {
		return nil, nil, fmt.Errorf("embedded message truncated: want %d bytes, have %d", msgLen, len(data)-offset)
	}
	message = append([]byte{}, data[offset:end]...)
	end += int(msgLen) % 2
	if end > len(data) {
		return message, nil, nil
	}
	return message, append([]byte{}, data[end:]...), nil
}
