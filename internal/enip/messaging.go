package enip

import (
	"fmt"

	"github.com/tturner/cipmsg/internal/cip/codec"
)

// SenderContext is echoed back by the target in every reply.
var SenderContext = [8]byte{'_', 'c', 'i', 'p', 'm', 's', 'g', '_'}

const protocolVersion uint16 = 1

// NewSenderContext returns a sender context carrying the request counter n.
func NewSenderContext(n uint64) [8]byte {
	var sc [8]byte
	copy(sc[:], codec.AppendUint64(nil, n))
	return sc
}

// BuildRegisterSession builds a RegisterSession request.
func BuildRegisterSession(senderContext [8]byte) []byte {
	data := codec.AppendUint16(nil, protocolVersion)
	data = codec.AppendUint16(data, 0)
	return EncodeENIP(ENIPEncapsulation{
		Command:       ENIPCommandRegisterSession,
		SenderContext: senderContext,
		Data:          data,
	})
}

// ParseRegisterSessionReply returns the session handle assigned by the target.
func ParseRegisterSessionReply(frame []byte) (uint32, error) {
	encap, err := DecodeENIP(frame)
	if err != nil {
		return 0, err
	}
	if err := CheckReply(encap, ENIPCommandRegisterSession); err != nil {
		return 0, err
	}
	if encap.SessionID == 0 {
		return 0, fmt.Errorf("target returned session handle 0")
	}
	return encap.SessionID, nil
}

// BuildUnregisterSession builds an UnregisterSession request. No reply is sent.
func BuildUnregisterSession(sessionID uint32, senderContext [8]byte) []byte {
	return EncodeENIP(ENIPEncapsulation{
		Command:       ENIPCommandUnregisterSession,
		SessionID:     sessionID,
		SenderContext: senderContext,
	})
}

// BuildSendRRData wraps an unconnected Message Router request.
func BuildSendRRData(sessionID uint32, senderContext [8]byte, cipData []byte) []byte {
	data := make([]byte, 6, 6+16+len(cipData)) // interface handle + timeout
	data = append(data, EncodeCPF([]CPFItem{
		{TypeID: CPFNullAddress},
		{TypeID: CPFUnconnectedData, Data: cipData},
	})...)
	return EncodeENIP(ENIPEncapsulation{
		Command:       ENIPCommandSendRRData,
		SessionID:     sessionID,
		SenderContext: senderContext,
		Data:          data,
	})
}

// ParseSendRRDataResponse extracts the unconnected data item from the
// encapsulation data of a SendRRData reply.
func ParseSendRRDataResponse(data []byte) ([]byte, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("SendRRData reply too short: %d bytes", len(data))
	}
	items, err := DecodeCPF(data[6:])
	if err != nil {
		return nil, err
	}
	item, ok := findItem(items, CPFUnconnectedData)
	if !ok {
		return nil, fmt.Errorf("SendRRData reply has no unconnected data item")
	}
	return item.Data, nil
}

// BuildSendUnitData wraps a connected Message Router request with its
// sequence count for the connection identified by connID.
func BuildSendUnitData(sessionID uint32, connID uint32, sequence uint16, cipData []byte) []byte {
	payload := codec.AppendUint16(nil, sequence)
	payload = append(payload, cipData...)
	data := make([]byte, 6, 6+22+len(cipData))
	data = append(data, EncodeCPF([]CPFItem{
		{TypeID: CPFConnectedAddress, Data: codec.AppendUint32(nil, connID)},
		{TypeID: CPFConnectedData, Data: payload},
	})...)
	return EncodeENIP(ENIPEncapsulation{
		Command:   ENIPCommandSendUnitData,
		SessionID: sessionID,
		Data:      data,
	})
}

// ParseSendUnitDataResponse returns the connection ID, sequence count and
// Message Router reply of a SendUnitData reply.
func ParseSendUnitDataResponse(data []byte) (connID uint32, sequence uint16, cipData []byte, err error) {
	if len(data) < 6 {
		return 0, 0, nil, fmt.Errorf("SendUnitData reply too short: %d bytes", len(data))
	}
	items, err := DecodeCPF(data[6:])
	if err != nil {
		return 0, 0, nil, err
	}
	addr, ok := findItem(items, CPFConnectedAddress)
	if !ok {
		return 0, 0, nil, fmt.Errorf("SendUnitData reply has no connected address item")
	}
	if connID, err = codec.Uint32(addr.Data, 0); err != nil {
		return 0, 0, nil, fmt.Errorf("connected address item: %w", err)
	}
	item, ok := findItem(items, CPFConnectedData)
	if !ok {
		return 0, 0, nil, fmt.Errorf("SendUnitData reply has no connected data item")
	}
	if sequence, err = codec.Uint16(item.Data, 0); err != nil {
		return 0, 0, nil, fmt.Errorf("connected data item: %w", err)
	}
	return connID, sequence, item.Data[2:], nil
}
