package protocol

import "github.com/tturner/cipmsg/internal/cip/spec"

// ParseServiceAddress accepts a service alias such as get_attribute_single
// as well as every form ParseAddress accepts.
func ParseServiceAddress(s string) (Address, error) {
	if code, ok := spec.ParseServiceAlias(s); ok {
		return Numeric(int(code)), nil
	}
	return ParseAddress(s)
}

// ParseClassAddress accepts a class alias such as identity as well as every
// form ParseAddress accepts.
func ParseClassAddress(s string) (Address, error) {
	if class, ok := spec.ParseClassAlias(s); ok {
		return Numeric(int(class)), nil
	}
	return ParseAddress(s)
}
