package spec

// ServiceCode is a CIP service code.
type ServiceCode uint8

// CIP service codes.
const (
	ServiceGetAttributeAll      ServiceCode = 0x01
	ServiceSetAttributeAll      ServiceCode = 0x02
	ServiceGetAttributeList     ServiceCode = 0x03
	ServiceSetAttributeList     ServiceCode = 0x04
	ServiceReset                ServiceCode = 0x05
	ServiceStart                ServiceCode = 0x06
	ServiceStop                 ServiceCode = 0x07
	ServiceCreate               ServiceCode = 0x08
	ServiceDelete               ServiceCode = 0x09
	ServiceMultipleService      ServiceCode = 0x0A
	ServiceApplyAttributes      ServiceCode = 0x0D
	ServiceGetAttributeSingle   ServiceCode = 0x0E
	ServiceSetAttributeSingle   ServiceCode = 0x10
	ServiceFindNextObjectInst   ServiceCode = 0x11
	ServiceRestore              ServiceCode = 0x15
	ServiceSave                 ServiceCode = 0x16
	ServiceNoOp                 ServiceCode = 0x17
	ServiceGetMember            ServiceCode = 0x18
	ServiceSetMember            ServiceCode = 0x19
	ServiceReadTag              ServiceCode = 0x4C
	ServiceWriteTag             ServiceCode = 0x4D
	ServiceForwardClose         ServiceCode = 0x4E
	ServiceUnconnectedSend      ServiceCode = 0x52
	ServiceForwardOpen          ServiceCode = 0x54
	ServiceGetConnectionData    ServiceCode = 0x56
	ServiceSearchConnectionData ServiceCode = 0x57
	ServiceGetConnectionOwner   ServiceCode = 0x5A
	ServiceLargeForwardOpen     ServiceCode = 0x5B
)

// ReplyFlag is set on the service byte of every Message Router reply.
const ReplyFlag = 0x80

// CIP object class codes used by the messaging core.
const (
	ClassIdentity          uint16 = 0x01
	ClassMessageRouter     uint16 = 0x02
	ClassAssembly          uint16 = 0x04
	ClassConnection        uint16 = 0x05
	ClassConnectionManager uint16 = 0x06
	ClassFileObject        uint16 = 0x37
	ClassProgramName       uint16 = 0x64
	ClassPCCCObject        uint16 = 0x67
	ClassSymbolObject      uint16 = 0x6B
	ClassTemplateObject    uint16 = 0x6C
	ClassTCPIPInterface    uint16 = 0xF5
	ClassEthernetLink      uint16 = 0xF6
)
