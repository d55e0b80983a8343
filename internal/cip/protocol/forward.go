package protocol

// Forward Open / Forward Close requests to the Connection Manager.

import (
	"fmt"
	"time"

	"github.com/tturner/cipmsg/internal/cip/codec"
	"github.com/tturner/cipmsg/internal/cip/spec"
)

const (
	netParamsBase          uint16 = 0x4200 // point-to-point, low priority, variable size
	maxStandardConnSize           = 0x01FF
	transportServerClass3  byte   = 0xA3
	defaultTimeoutMultiple byte   = 0x03
)

// ForwardOpen describes a class 3 explicit messaging connection request.
type ForwardOpen struct {
	Large             bool
	ConnectionSize    uint16
	RPI               time.Duration
	OTConnectionID    uint32
	TOConnectionID    uint32
	ConnectionSerial  uint16
	VendorID          uint16
	OriginatorSerial  uint32
	TimeoutMultiplier byte
	ConnectionPath    []byte
}

// Encode returns the complete Message Router request.
func (f ForwardOpen) Encode() ([]byte, error) {
	if !f.Large && f.ConnectionSize > maxStandardConnSize {
		return nil, fmt.Errorf("connection size %d needs a large forward open", f.ConnectionSize)
	}
	path := codec.PadEven(append([]byte{}, f.ConnectionPath...))
	if len(path)/2 > 0xFF {
		return nil, fmt.Errorf("connection path too long: %d bytes", len(path))
	}
	multiplier := f.TimeoutMultiplier
	if multiplier == 0 {
		multiplier = defaultTimeoutMultiple
	}
	rpi := uint32(f.RPI / time.Microsecond)

	data := []byte{DefaultPriorityTick, DefaultTimeoutTicks}
	data = codec.AppendUint32(data, f.OTConnectionID)
	data = codec.AppendUint32(data, f.TOConnectionID)
	data = codec.AppendUint16(data, f.ConnectionSerial)
	data = codec.AppendUint16(data, f.VendorID)
	data = codec.AppendUint32(data, f.OriginatorSerial)
	data = append(data, multiplier, 0x00, 0x00, 0x00)
	for i := 0; i < 2; i++ {
		data = codec.AppendUint32(data, rpi)
		if f.Large {
			data = codec.AppendUint32(data, uint32(netParamsBase)<<16|uint32(f.ConnectionSize))
		} else {
			data = codec.AppendUint16(data, netParamsBase|f.ConnectionSize)
		}
	}
	data = append(data, transportServerClass3, byte(len(path)/2))
	data = append(data, path...)

	service := spec.ServiceForwardOpen
	if f.Large {
		service = spec.ServiceLargeForwardOpen
	}
	return Request{
		Service: []byte{byte(service)},
		Path:    ConnectionManagerPath(),
		Data:    data,
	}.Encode()
}

// ForwardOpenReply holds the fields of a successful Forward Open reply.
type ForwardOpenReply struct {
	OTConnectionID   uint32
	TOConnectionID   uint32
	ConnectionSerial uint16
	VendorID         uint16
	OriginatorSerial uint32
	OTAPI            time.Duration
	TOAPI            time.Duration
}

// ParseForwardOpenReply parses the reply data of a successful Forward Open.
func ParseForwardOpenReply(data []byte) (ForwardOpenReply, error) {
	if len(data) < 24 {
		return ForwardOpenReply{}, fmt.Errorf("forward open reply too short: %d bytes", len(data))
	}
	ot, _ := codec.Uint32(data, 0)
	to, _ := codec.Uint32(data, 4)
	serial, _ := codec.Uint16(data, 8)
	vendor, _ := codec.Uint16(data, 10)
	origSerial, _ := codec.Uint32(data, 12)
	otAPI, _ := codec.Uint32(data, 16)
	toAPI, _ := codec.Uint32(data, 20)
	return ForwardOpenReply{
		OTConnectionID:   ot,
		TOConnectionID:   to,
		ConnectionSerial: serial,
		VendorID:         vendor,
		OriginatorSerial: origSerial,
		OTAPI:            time.Duration(otAPI) * time.Microsecond,
		TOAPI:            time.Duration(toAPI) * time.Microsecond,
	}, nil
}

// ForwardClose identifies the connection to tear down by its triad.
type ForwardClose struct {
	ConnectionSerial uint16
	VendorID         uint16
	OriginatorSerial uint32
	ConnectionPath   []byte
}

// Encode returns the complete Message Router request.
func (f ForwardClose) Encode() ([]byte, error) {
	path := codec.PadEven(append([]byte{}, f.ConnectionPath...))
	if len(path)/2 > 0xFF {
		return nil, fmt.Errorf("connection path too long: %d bytes", len(path))
	}
	data := []byte{DefaultPriorityTick, DefaultTimeoutTicks}
	data = codec.AppendUint16(data, f.ConnectionSerial)
	data = codec.AppendUint16(data, f.VendorID)
	data = codec.AppendUint32(data, f.OriginatorSerial)
	data = append(data, byte(len(path)/2), 0x00)
	data = append(data, path...)

	return Request{
		Service: []byte{byte(spec.ServiceForwardClose)},
		Path:    ConnectionManagerPath(),
		Data:    data,
	}.Encode()
}
