package spec

import "fmt"

var serviceNames = map[ServiceCode]string{
	ServiceGetAttributeAll:      "Get_Attribute_All",
	ServiceSetAttributeAll:      "Set_Attribute_All",
	ServiceGetAttributeList:     "Get_Attribute_List",
	ServiceSetAttributeList:     "Set_Attribute_List",
	ServiceReset:                "Reset",
	ServiceStart:                "Start",
	ServiceStop:                 "Stop",
	ServiceCreate:               "Create",
	ServiceDelete:               "Delete",
	ServiceMultipleService:      "Multiple_Service_Packet",
	ServiceApplyAttributes:      "Apply_Attributes",
	ServiceGetAttributeSingle:   "Get_Attribute_Single",
	ServiceSetAttributeSingle:   "Set_Attribute_Single",
	ServiceFindNextObjectInst:   "Find_Next_Object_Instance",
	ServiceRestore:              "Restore",
	ServiceSave:                 "Save",
	ServiceNoOp:                 "No_Op",
	ServiceGetMember:            "Get_Member",
	ServiceSetMember:            "Set_Member",
	ServiceReadTag:              "Read_Tag",
	ServiceWriteTag:             "Write_Tag",
	ServiceForwardClose:         "Forward_Close",
	ServiceUnconnectedSend:      "Unconnected_Send",
	ServiceForwardOpen:          "Forward_Open",
	ServiceGetConnectionData:    "Get_Connection_Data",
	ServiceSearchConnectionData: "Search_Connection_Data",
	ServiceGetConnectionOwner:   "Get_Connection_Owner",
	ServiceLargeForwardOpen:     "Large_Forward_Open",
}

// ServiceName returns a display name for a CIP service code. The reply flag
// is ignored so request and reply codes share a name.
func ServiceName(code ServiceCode) string {
	if name, ok := serviceNames[code&^ReplyFlag]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(code))
}

// IsKnownService returns true when a service code is recognized.
func IsKnownService(code ServiceCode) bool {
	_, ok := serviceNames[code]
	return ok
}
