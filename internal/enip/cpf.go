package enip

// Common Packet Format items carried by SendRRData and SendUnitData.

import (
	"fmt"

	"github.com/tturner/cipmsg/internal/cip/codec"
)

// CPF item type IDs.
const (
	CPFNullAddress      uint16 = 0x0000
	CPFConnectedAddress uint16 = 0x00A1
	CPFConnectedData    uint16 = 0x00B1
	CPFUnconnectedData  uint16 = 0x00B2
)

// CPFItem is one typed item.
type CPFItem struct {
	TypeID uint16
	Data   []byte
}

// EncodeCPF writes the item count followed by each item.
func EncodeCPF(items []CPFItem) []byte {
	out := codec.AppendUint16(nil, uint16(len(items)))
	for _, item := range items {
		out = codec.AppendUint16(out, item.TypeID)
		out = codec.AppendUint16(out, uint16(len(item.Data)))
		out = append(out, item.Data...)
	}
	return out
}

// DecodeCPF parses an item list.
func DecodeCPF(data []byte) ([]CPFItem, error) {
	count, err := codec.Uint16(data, 0)
	if err != nil {
		return nil, fmt.Errorf("CPF item count: %w", err)
	}
	items := make([]CPFItem, 0, count)
	offset := 2
	for i := 0; i < int(count); i++ {
		typeID, err := codec.Uint16(data, offset)
		if err != nil {
			return nil, fmt.Errorf("CPF item %d header: %w", i, err)
		}
		length, err := codec.Uint16(data, offset+2)
		if err != nil {
			return nil, fmt.Errorf("CPF item %d header: %w", i, err)
		}
		offset += 4
		if len(data) < offset+int(length) {
			return nil, fmt.Errorf("CPF item %d truncated: want %d bytes, have %d", i, length, len(data)-offset)
		}
		items = append(items, CPFItem{TypeID: typeID, Data: append([]byte{}, data[offset:offset+int(length)]...)})
		offset += int(length)
	}
	return items, nil
}

func findItem(items []CPFItem, typeID uint16) (CPFItem, bool) {
	for _, item := range items {
		if item.TypeID == typeID {
			return item, true
		}
	}
	return CPFItem{}, false
}
