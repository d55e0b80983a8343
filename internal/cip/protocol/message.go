package protocol

// Message Router request and response framing.

import (
	"fmt"

	"github.com/tturner/cipmsg/internal/cip/codec"
	"github.com/tturner/cipmsg/internal/cip/spec"
)

// Request is an encoded Message Router request. Service and Path are wire
// bytes; Path is padded to a word boundary when encoded.
type Request struct {
	Service []byte
	Path    []byte
	Data    []byte
}

// Encode returns service, path size in words, padded path and data.
func (r Request) Encode() ([]byte, error) {
	if len(r.Service) == 0 {
		return nil, fmt.Errorf("request has no service")
	}
	path := codec.PadEven(append([]byte{}, r.Path...))
	words := len(path) / 2
	if words > 0xFF {
		return nil, fmt.Errorf("request path too long: %d words", words)
	}
	out := make([]byte, 0, len(r.Service)+1+len(path)+len(r.Data))
	out = append(out, r.Service...)
	out = append(out, byte(words))
	out = append(out, path...)
	return append(out, r.Data...), nil
}

// DecodeRequest splits an encoded request whose service is a single byte.
func DecodeRequest(data []byte) (Request, error) {
	if len(data) < 2 {
		return Request{}, fmt.Errorf("request too short: %d bytes", len(data))
	}
	pathLen := int(data[1]) * 2
	if len(data) < 2+pathLen {
		return Request{}, fmt.Errorf("incomplete request path: want %d bytes, have %d", pathLen, len(data)-2)
	}
	return Request{
		Service: []byte{data[0]},
		Path:    append([]byte{}, data[2:2+pathLen]...),
		Data:    append([]byte{}, data[2+pathLen:]...),
	}, nil
}

// Response is a decoded Message Router reply.
type Response struct {
	Service   uint8
	Status    uint8
	ExtStatus []byte
	Data      []byte
}

// OK reports a general status of success.
func (r Response) OK() bool { return r.Status == 0x00 }

// DecodeResponse parses reply service, reserved byte, general status,
// additional status size in words, additional status and reply data.
func DecodeResponse(data []byte) (Response, error) {
	if len(data) < 4 {
		return Response{}, fmt.Errorf("response too short: %d bytes (minimum 4: service + reserved + status + ext size)", len(data))
	}
	resp := Response{
		Service: data[0],
		Status:  data[2],
	}
	if resp.Service&spec.ReplyFlag == 0 {
		return resp, fmt.Errorf("service 0x%02X is not a reply", resp.Service)
	}
	offset := 4
	extLen := int(data[3]) * 2
	if extLen > 0 {
		if len(data) < offset+extLen {
			return resp, fmt.Errorf("extended status too short: want %d bytes, have %d", extLen, len(data)-offset)
		}
		resp.ExtStatus = append([]byte{}, data[offset:offset+extLen]...)
		offset += extLen
	}
	if len(data) > offset {
		resp.Data = append([]byte{}, data[offset:]...)
	}
	return resp, nil
}

// EncodeResponse builds a reply frame. Used by test devices.
func EncodeResponse(resp Response) []byte {
	ext := codec.PadEven(append([]byte{}, resp.ExtStatus...))
	out := []byte{resp.Service | spec.ReplyFlag, 0x00, resp.Status, byte(len(ext) / 2)}
	out = append(out, ext...)
	return append(out, resp.Data...)
}
