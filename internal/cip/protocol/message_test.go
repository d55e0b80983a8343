package protocol

import (
	"bytes"
	"testing"
)

func TestRequestEncode(t *testing.T) {
	req := Request{
		Service: []byte{0x0E},
		Path:    []byte{0x20, 0x01, 0x24, 0x01, 0x30, 0x07},
	}
	got, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x0E, 0x03, 0x20, 0x01, 0x24, 0x01, 0x30, 0x07}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
}

func TestRequestEncodePadsOddPath(t *testing.T) {
	req := Request{
		Service: []byte{0x10},
		Path:    []byte{0x21, 0x00, 0x01},
		Data:    []byte{0xAA},
	}
	got, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x10, 0x02, 0x21, 0x00, 0x01, 0x00, 0xAA}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
	if len(req.Path) != 3 {
		t.Errorf("Encode must not modify the caller's path")
	}
}

func TestRequestEncodeNoService(t *testing.T) {
	if _, err := (Request{Path: []byte{0x20, 0x01}}).Encode(); err == nil {
		t.Fatal("expected error for missing service")
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte{0x0E, 0x02, 0x20, 0x01, 0x24, 0x01, 0xBE, 0xEF})
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Service[0] != 0x0E || !bytes.Equal(req.Path, []byte{0x20, 0x01, 0x24, 0x01}) || !bytes.Equal(req.Data, []byte{0xBE, 0xEF}) {
		t.Errorf("DecodeRequest = %+v", req)
	}
	if _, err := DecodeRequest([]byte{0x0E, 0x04, 0x20}); err == nil {
		t.Error("expected truncated path error")
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		status  uint8
		ext     []byte
		payload []byte
		wantErr bool
	}{
		{
			name:    "success with data",
			data:    []byte{0x8E, 0x00, 0x00, 0x00, 0x2A, 0x00},
			payload: []byte{0x2A, 0x00},
		},
		{
			name:   "error with extended status",
			data:   []byte{0xD2, 0x00, 0x01, 0x01, 0x04, 0x02},
			status: 0x01,
			ext:    []byte{0x04, 0x02},
		},
		{
			name:    "too short",
			data:    []byte{0x8E, 0x00},
			wantErr: true,
		},
		{
			name:    "extended status truncated",
			data:    []byte{0x8E, 0x00, 0x01, 0x02, 0x00},
			wantErr: true,
		},
		{
			name:    "not a reply",
			data:    []byte{0x0E, 0x00, 0x00, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeResponse: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("status = 0x%02X, want 0x%02X", resp.Status, tt.status)
			}
			if !bytes.Equal(resp.ExtStatus, tt.ext) {
				t.Errorf("ext = % X, want % X", resp.ExtStatus, tt.ext)
			}
			if !bytes.Equal(resp.Data, tt.payload) {
				t.Errorf("data = % X, want % X", resp.Data, tt.payload)
			}
		})
	}
}

func TestEncodeResponseRoundTrip(t *testing.T) {
	in := Response{Service: 0x0E, Status: 0x1F, ExtStatus: []byte{0x01}, Data: []byte{0x05}}
	out, err := DecodeResponse(EncodeResponse(in))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if out.Service != 0x8E || out.Status != 0x1F || !bytes.Equal(out.ExtStatus, []byte{0x01, 0x00}) || !bytes.Equal(out.Data, []byte{0x05}) {
		t.Errorf("round trip = %+v", out)
	}
}
