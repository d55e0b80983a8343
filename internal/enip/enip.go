// Package enip implements EtherNet/IP encapsulation framing.
package enip

import (
	"fmt"
	"io"

	"github.com/tturner/cipmsg/internal/cip/codec"
)

// Encapsulation commands.
const (
	ENIPCommandNOP               uint16 = 0x0000
	ENIPCommandListIdentity      uint16 = 0x0063
	ENIPCommandRegisterSession   uint16 = 0x0065
	ENIPCommandUnregisterSession uint16 = 0x0066
	ENIPCommandSendRRData        uint16 = 0x006F
	ENIPCommandSendUnitData      uint16 = 0x0070
)

// Encapsulation status codes.
const (
	ENIPStatusSuccess             uint32 = 0x0000
	ENIPStatusInvalidCommand      uint32 = 0x0001
	ENIPStatusInsufficientMemory  uint32 = 0x0002
	ENIPStatusIncorrectData       uint32 = 0x0003
	ENIPStatusInvalidSession      uint32 = 0x0064
	ENIPStatusInvalidLength       uint32 = 0x0065
	ENIPStatusUnsupportedProtocol uint32 = 0x0069
)

// HeaderSize is the fixed encapsulation header length.
const HeaderSize = 24

// DefaultPort is the registered EtherNet/IP explicit messaging TCP port.
const DefaultPort = 44818

// ENIPEncapsulation is one encapsulation frame.
type ENIPEncapsulation struct {
	Command       uint16
	Length        uint16
	SessionID     uint32
	Status        uint32
	SenderContext [8]byte
	Options       uint32
	Data          []byte
}

// EncodeENIP serializes a frame. Length is taken from Data.
func EncodeENIP(encap ENIPEncapsulation) []byte {
	out := make([]byte, 0, HeaderSize+len(encap.Data))
	out = codec.AppendUint16(out, encap.Command)
	out = codec.AppendUint16(out, uint16(len(encap.Data)))
	out = codec.AppendUint32(out, encap.SessionID)
	out = codec.AppendUint32(out, encap.Status)
	out = append(out, encap.SenderContext[:]...)
	out = codec.AppendUint32(out, encap.Options)
	return append(out, encap.Data...)
}

// DecodeENIP parses a complete frame.
func DecodeENIP(data []byte) (ENIPEncapsulation, error) {
	if len(data) < HeaderSize {
		return ENIPEncapsulation{}, fmt.Errorf("encapsulation too short: %d bytes (minimum %d)", len(data), HeaderSize)
	}
	var encap ENIPEncapsulation
	encap.Command, _ = codec.Uint16(data, 0)
	encap.Length, _ = codec.Uint16(data, 2)
	encap.SessionID, _ = codec.Uint32(data, 4)
	encap.Status, _ = codec.Uint32(data, 8)
	copy(encap.SenderContext[:], data[12:20])
	encap.Options, _ = codec.Uint32(data, 20)
	if len(data) < HeaderSize+int(encap.Length) {
		return encap, fmt.Errorf("encapsulation data truncated: want %d bytes, have %d", encap.Length, len(data)-HeaderSize)
	}
	encap.Data = append([]byte{}, data[HeaderSize:HeaderSize+int(encap.Length)]...)
	return encap, nil
}

// ReadFrame reads exactly one encapsulation frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read encapsulation header: %w", err)
	}
	length, _ := codec.Uint16(header, 2)
	frame := make([]byte, HeaderSize+int(length))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read encapsulation data: %w", err)
	}
	return frame, nil
}

// StatusError reports a non-zero encapsulation status.
type StatusError struct {
	Command uint16
	Status  uint32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("encapsulation command 0x%04X failed with status 0x%08X (%s)", e.Command, e.Status, statusText(e.Status))
}

func statusText(status uint32) string {
	switch status {
	case ENIPStatusSuccess:
		return "success"
	case ENIPStatusInvalidCommand:
		return "invalid or unsupported command"
	case ENIPStatusInsufficientMemory:
		return "insufficient memory"
	case ENIPStatusIncorrectData:
		return "incorrect data"
	case ENIPStatusInvalidSession:
		return "invalid session handle"
	case ENIPStatusInvalidLength:
		return "invalid length"
	case ENIPStatusUnsupportedProtocol:
		return "unsupported protocol revision"
	}
	return "unknown"
}

// CheckReply verifies a reply frame echoes the command with success status.
func CheckReply(encap ENIPEncapsulation, command uint16) error {
	if encap.Command != command {
		return fmt.Errorf("unexpected reply command 0x%04X, want 0x%04X", encap.Command, command)
	}
	if encap.Status != ENIPStatusSuccess {
		return &StatusError{Command: command, Status: encap.Status}
	}
	return nil
}
