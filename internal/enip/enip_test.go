package enip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeENIP(t *testing.T) {
	encap := ENIPEncapsulation{
		Command:       ENIPCommandRegisterSession,
		SessionID:     0x12345678,
		SenderContext: [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		Data:          []byte{0x01, 0x00, 0x00, 0x00},
	}

	packet := EncodeENIP(encap)

	// 24 bytes header + 4 bytes data.
	if len(packet) != 28 {
		t.Errorf("packet length: got %d, want 28", len(packet))
	}
	if cmd := binary.LittleEndian.Uint16(packet[0:2]); cmd != 0x0065 {
		t.Errorf("command: got 0x%04X, want 0x0065", cmd)
	}
	if length := binary.LittleEndian.Uint16(packet[2:4]); length != 0x0004 {
		t.Errorf("length: got 0x%04X, want 0x0004", length)
	}
}

func TestDecodeENIP(t *testing.T) {
	encap := ENIPEncapsulation{
		Command:       ENIPCommandSendRRData,
		SessionID:     0x12345678,
		Status:        ENIPStatusInvalidSession,
		SenderContext: SenderContext,
		Options:       0,
		Data:          []byte{0x01, 0x00, 0x00, 0x00},
	}

	decoded, err := DecodeENIP(EncodeENIP(encap))
	if err != nil {
		t.Fatalf("DecodeENIP failed: %v", err)
	}
	if decoded.Command != encap.Command {
		t.Errorf("command: got 0x%04X, want 0x%04X", decoded.Command, encap.Command)
	}
	if decoded.Length != 4 {
		t.Errorf("length: got %d, want 4", decoded.Length)
	}
	if decoded.SessionID != encap.SessionID {
		t.Errorf("session ID: got 0x%08X, want 0x%08X", decoded.SessionID, encap.SessionID)
	}
	if decoded.Status != ENIPStatusInvalidSession {
		t.Errorf("status: got 0x%08X", decoded.Status)
	}
	if decoded.SenderContext != SenderContext {
		t.Errorf("sender context: got %q", decoded.SenderContext[:])
	}
	if !bytes.Equal(decoded.Data, encap.Data) {
		t.Errorf("data: got % X, want % X", decoded.Data, encap.Data)
	}
}

func TestDecodeENIPTooShort(t *testing.T) {
	if _, err := DecodeENIP([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatalf("expected error for short ENIP packet")
	}
	packet := EncodeENIP(ENIPEncapsulation{Command: ENIPCommandNOP, Data: []byte{1, 2, 3, 4}})
	if _, err := DecodeENIP(packet[:26]); err == nil {
		t.Fatalf("expected error for truncated data")
	}
}

func TestReadFrame(t *testing.T) {
	first := EncodeENIP(ENIPEncapsulation{Command: ENIPCommandSendRRData, Data: []byte{0xAA, 0xBB}})
	second := EncodeENIP(ENIPEncapsulation{Command: ENIPCommandNOP})
	r := bytes.NewReader(append(append([]byte{}, first...), second...))

	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Errorf("first frame = % X, want % X", got, first)
	}
	got, err = ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Errorf("second frame = % X, want % X", got, second)
	}
	if _, err := ReadFrame(r); err == nil {
		t.Error("expected EOF error")
	}
}

func TestBuildRegisterSession(t *testing.T) {
	packet := BuildRegisterSession(SenderContext)
	if len(packet) != 28 {
		t.Errorf("packet length: got %d, want 28", len(packet))
	}

	encap, err := DecodeENIP(packet)
	if err != nil {
		t.Fatalf("DecodeENIP failed: %v", err)
	}
	if encap.Command != ENIPCommandRegisterSession {
		t.Errorf("command: got 0x%04X, want 0x%04X", encap.Command, ENIPCommandRegisterSession)
	}
	if !bytes.Equal(encap.Data, []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Errorf("data: got % X", encap.Data)
	}
	if encap.SenderContext != SenderContext {
		t.Errorf("sender context: got %v, want %v", encap.SenderContext, SenderContext)
	}
}

func TestParseRegisterSessionReply(t *testing.T) {
	reply := EncodeENIP(ENIPEncapsulation{Command: ENIPCommandRegisterSession, SessionID: 0x0102, Data: []byte{1, 0, 0, 0}})
	id, err := ParseRegisterSessionReply(reply)
	if err != nil {
		t.Fatalf("ParseRegisterSessionReply: %v", err)
	}
	if id != 0x0102 {
		t.Errorf("session = 0x%X", id)
	}

	rejected := EncodeENIP(ENIPEncapsulation{Command: ENIPCommandRegisterSession, Status: ENIPStatusUnsupportedProtocol})
	_, err = ParseRegisterSessionReply(rejected)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != ENIPStatusUnsupportedProtocol {
		t.Errorf("expected StatusError, got %v", err)
	}
}

func TestBuildSendRRData(t *testing.T) {
	sessionID := uint32(0x12345678)
	cipData := []byte{0x0E, 0x03, 0x20, 0x01, 0x24, 0x01, 0x30, 0x07}

	packet := BuildSendRRData(sessionID, SenderContext, cipData)

	encap, err := DecodeENIP(packet)
	if err != nil {
		t.Fatalf("DecodeENIP failed: %v", err)
	}
	if encap.Command != ENIPCommandSendRRData {
		t.Errorf("command: got 0x%04X, want 0x%04X", encap.Command, ENIPCommandSendRRData)
	}
	if encap.SessionID != sessionID {
		t.Errorf("session ID: got 0x%08X, want 0x%08X", encap.SessionID, sessionID)
	}

	wantData := []byte{
		0, 0, 0, 0, 0, 0, // interface handle, timeout
		0x02, 0x00, // item count
		0x00, 0x00, 0x00, 0x00, // null address
		0xB2, 0x00, 0x08, 0x00, // unconnected data, length 8
	}
	wantData = append(wantData, cipData...)
	if !bytes.Equal(encap.Data, wantData) {
		t.Errorf("data = % X\nwant % X", encap.Data, wantData)
	}

	got, err := ParseSendRRDataResponse(encap.Data)
	if err != nil {
		t.Fatalf("ParseSendRRDataResponse failed: %v", err)
	}
	if !bytes.Equal(got, cipData) {
		t.Errorf("CIP data: got % X, want % X", got, cipData)
	}
}

func TestBuildSendUnitData(t *testing.T) {
	cipData := []byte{0x10, 0x02, 0x20, 0x6B, 0x24, 0x01}
	packet := BuildSendUnitData(0x1111, 0xCAFEBABE, 42, cipData)

	encap, err := DecodeENIP(packet)
	if err != nil {
		t.Fatalf("DecodeENIP failed: %v", err)
	}
	if encap.Command != ENIPCommandSendUnitData {
		t.Errorf("command: got 0x%04X", encap.Command)
	}
	connID, seq, got, err := ParseSendUnitDataResponse(encap.Data)
	if err != nil {
		t.Fatalf("ParseSendUnitDataResponse: %v", err)
	}
	if connID != 0xCAFEBABE || seq != 42 || !bytes.Equal(got, cipData) {
		t.Errorf("got conn 0x%08X seq %d data % X", connID, seq, got)
	}
}

func TestParseResponsesMissingItems(t *testing.T) {
	data := append(make([]byte, 6), EncodeCPF([]CPFItem{{TypeID: CPFNullAddress}})...)
	if _, err := ParseSendRRDataResponse(data); err == nil {
		t.Error("expected missing unconnected data item error")
	}
	if _, _, _, err := ParseSendUnitDataResponse(data); err == nil {
		t.Error("expected missing connected address item error")
	}
	if _, err := DecodeCPF([]byte{0x01, 0x00, 0xB2, 0x00, 0x05, 0x00, 0x01}); err == nil {
		t.Error("expected truncated item error")
	}
}

func TestNewSenderContext(t *testing.T) {
	a, b := NewSenderContext(1), NewSenderContext(2)
	if a == b {
		t.Fatalf("contexts for distinct requests collide: % X", a)
	}
	want := [8]byte{0x01, 0x02, 0, 0, 0, 0, 0, 0}
	if got := NewSenderContext(0x0201); got != want {
		t.Errorf("got % X, want % X", got, want)
	}
	decoded, err := DecodeENIP(BuildSendRRData(1, a, nil))
	if err != nil {
		t.Fatalf("DecodeENIP failed: %v", err)
	}
	if decoded.SenderContext != a {
		t.Errorf("sender context not carried: % X", decoded.SenderContext)
	}
}
