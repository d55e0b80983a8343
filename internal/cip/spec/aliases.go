package spec

import (
	"fmt"
	"strconv"
	"strings"
)

var serviceAliases = map[string]ServiceCode{
	"get_attributes_all":     ServiceGetAttributeAll,
	"get_attribute_all":      ServiceGetAttributeAll,
	"set_attributes_all":     ServiceSetAttributeAll,
	"set_attribute_all":      ServiceSetAttributeAll,
	"get_attribute_list":     ServiceGetAttributeList,
	"set_attribute_list":     ServiceSetAttributeList,
	"reset":                  ServiceReset,
	"start":                  ServiceStart,
	"stop":                   ServiceStop,
	"create":                 ServiceCreate,
	"delete":                 ServiceDelete,
	"multiple_service":       ServiceMultipleService,
	"apply_attributes":       ServiceApplyAttributes,
	"get_attribute_single":   ServiceGetAttributeSingle,
	"set_attribute_single":   ServiceSetAttributeSingle,
	"find_next_object":       ServiceFindNextObjectInst,
	"restore":                ServiceRestore,
	"save":                   ServiceSave,
	"nop":                    ServiceNoOp,
	"get_member":             ServiceGetMember,
	"set_member":             ServiceSetMember,
	"read_tag":               ServiceReadTag,
	"write_tag":              ServiceWriteTag,
	"get_connection_data":    ServiceGetConnectionData,
	"search_connection_data": ServiceSearchConnectionData,
	"get_connection_owner":   ServiceGetConnectionOwner,
}

var classAliases = map[string]uint16{
	"identity":           ClassIdentity,
	"identity_object":    ClassIdentity,
	"message_router":     ClassMessageRouter,
	"assembly":           ClassAssembly,
	"connection":         ClassConnection,
	"connection_manager": ClassConnectionManager,
	"file_object":        ClassFileObject,
	"program_name":       ClassProgramName,
	"pccc_object":        ClassPCCCObject,
	"symbol_object":      ClassSymbolObject,
	"template_object":    ClassTemplateObject,
	"tcp_ip_interface":   ClassTCPIPInterface,
	"ethernet_link":      ClassEthernetLink,
}

// NormalizeAlias lower-cases input and folds dashes and spaces to underscores.
func NormalizeAlias(input string) string {
	clean := strings.ToLower(strings.TrimSpace(input))
	clean = strings.ReplaceAll(clean, "-", "_")
	clean = strings.ReplaceAll(clean, " ", "_")
	for strings.Contains(clean, "__") {
		clean = strings.ReplaceAll(clean, "__", "_")
	}
	return clean
}

func ParseServiceAlias(input string) (ServiceCode, bool) {
	code, ok := serviceAliases[NormalizeAlias(input)]
	return code, ok
}

func ParseClassAlias(input string) (uint16, bool) {
	code, ok := classAliases[NormalizeAlias(input)]
	return code, ok
}

// ParseService accepts a service alias or a decimal/0x-prefixed number.
// Range checking is left to the address codec.
func ParseService(input string) (int, error) {
	if code, ok := ParseServiceAlias(input); ok {
		return int(code), nil
	}
	return parseNumber("service", input)
}

// ParseClass accepts a class alias or a decimal/0x-prefixed number.
func ParseClass(input string) (int, error) {
	if code, ok := ParseClassAlias(input); ok {
		return int(code), nil
	}
	return parseNumber("class", input)
}

// ParseNumber parses a decimal or 0x-prefixed identifier.
func ParseNumber(field, input string) (int, error) {
	return parseNumber(field, input)
}

func parseNumber(field, input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%s: empty value", field)
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", field, input)
	}
	return int(v), nil
}
