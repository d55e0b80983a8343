package protocol

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tturner/cipmsg/internal/cip/codec"
)

// Decoder turns reply data into a typed value.
type Decoder interface {
	Name() string
	Decode(data []byte) (any, error)
}

// DataType is an elementary CIP data type with its decoder.
type DataType struct {
	Code   uint16
	name   string
	size   int
	decode func([]byte) any
	varLen func([]byte) (any, error)
}

func (t DataType) Name() string { return t.name }

// Size is the fixed encoded width, or 0 for variable-length types.
func (t DataType) Size() int { return t.size }

// Decode reads one value from the front of data.
func (t DataType) Decode(data []byte) (any, error) {
	if t.varLen != nil {
		return t.varLen(data)
	}
	if len(data) < t.size {
		return nil, fmt.Errorf("%s needs %d bytes, have %d", t.name, t.size, len(data))
	}
	return t.decode(data[:t.size]), nil
}

// Elementary data type codes.
const (
	CodeBOOL        uint16 = 0xC1
	CodeSINT        uint16 = 0xC2
	CodeINT         uint16 = 0xC3
	CodeDINT        uint16 = 0xC4
	CodeLINT        uint16 = 0xC5
	CodeUSINT       uint16 = 0xC6
	CodeUINT        uint16 = 0xC7
	CodeUDINT       uint16 = 0xC8
	CodeULINT       uint16 = 0xC9
	CodeREAL        uint16 = 0xCA
	CodeLREAL       uint16 = 0xCB
	CodeSTRING      uint16 = 0xD0
	CodeSHORTSTRING uint16 = 0xDA
)

func u16(b []byte) uint16 {
	v, _ := codec.Uint16(b, 0)
	return v
}

func u32(b []byte) uint32 {
	v, _ := codec.Uint32(b, 0)
	return v
}

func u64(b []byte) uint64 { return uint64(u32(b)) | uint64(u32(b[4:]))<<32 }

var (
	BOOL  = DataType{Code: CodeBOOL, name: "BOOL", size: 1, decode: func(b []byte) any { return b[0] != 0 }}
	SINT  = DataType{Code: CodeSINT, name: "SINT", size: 1, decode: func(b []byte) any { return int8(b[0]) }}
	INT   = DataType{Code: CodeINT, name: "INT", size: 2, decode: func(b []byte) any { return int16(u16(b)) }}
	DINT  = DataType{Code: CodeDINT, name: "DINT", size: 4, decode: func(b []byte) any { return int32(u32(b)) }}
	LINT  = DataType{Code: CodeLINT, name: "LINT", size: 8, decode: func(b []byte) any { return int64(u64(b)) }}
	USINT = DataType{Code: CodeUSINT, name: "USINT", size: 1, decode: func(b []byte) any { return b[0] }}
	UINT  = DataType{Code: CodeUINT, name: "UINT", size: 2, decode: func(b []byte) any { return u16(b) }}
	UDINT = DataType{Code: CodeUDINT, name: "UDINT", size: 4, decode: func(b []byte) any { return u32(b) }}
	ULINT = DataType{Code: CodeULINT, name: "ULINT", size: 8, decode: func(b []byte) any { return u64(b) }}
	REAL  = DataType{Code: CodeREAL, name: "REAL", size: 4, decode: func(b []byte) any { return math.Float32frombits(u32(b)) }}
	LREAL = DataType{Code: CodeLREAL, name: "LREAL", size: 8, decode: func(b []byte) any { return math.Float64frombits(u64(b)) }}

	STRING      = DataType{Code: CodeSTRING, name: "STRING", varLen: decodeString}
	SHORTSTRING = DataType{Code: CodeSHORTSTRING, name: "SHORT_STRING", varLen: decodeShortString}

	// Bytes returns a copy of the reply data unchanged.
	Bytes = DataType{name: "BYTES", varLen: func(b []byte) (any, error) { return append([]byte{}, b...), nil }}
)

func decodeString(b []byte) (any, error) {
	n, err := codec.Uint16(b, 0)
	if err != nil {
		return nil, fmt.Errorf("STRING length: %w", err)
	}
	if len(b) < 2+int(n) {
		return nil, fmt.Errorf("STRING needs %d characters, have %d", n, len(b)-2)
	}
	return string(b[2 : 2+int(n)]), nil
}

func decodeShortString(b []byte) (any, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("SHORT_STRING length missing")
	}
	n := int(b[0])
	if len(b) < 1+n {
		return nil, fmt.Errorf("SHORT_STRING needs %d characters, have %d", n, len(b)-1)
	}
	return string(b[1 : 1+n]), nil
}

var dataTypesByName = map[string]DataType{}

func init() {
	for _, t := range []DataType{BOOL, SINT, INT, DINT, LINT, USINT, UINT, UDINT, ULINT, REAL, LREAL, STRING, SHORTSTRING, Bytes} {
		dataTypesByName[t.name] = t
	}
	dataTypesByName["SHORTSTRING"] = SHORTSTRING
	dataTypesByName["RAW"] = Bytes
}

// ParseDataType looks up a data type by name, case-insensitively.
func ParseDataType(name string) (DataType, error) {
	t, ok := dataTypesByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return DataType{}, fmt.Errorf("unknown data type %q", name)
	}
	return t, nil
}

// DataTypeNames lists the canonical type names in sorted order.
func DataTypeNames() []string {
	var names []string
	for key, t := range dataTypesByName {
		if key == t.name {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}
