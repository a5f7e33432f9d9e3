package proto

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/mocker/api/common"
)

// --------------------------------------------------------------------------
// Methods
// --------------------------------------------------------------------------

// Method is a request method
type Method uint8

const (
	MethodPost Method = iota
	MethodGet
	MethodPut
	MethodPatch
	MethodDelete
	MethodHead
	MethodOptions
)

var methodNames = [...]string{
	MethodPost:    "POST",
	MethodGet:     "GET",
	MethodPut:     "PUT",
	MethodPatch:   "PATCH",
	MethodDelete:  "DELETE",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
}

// AllMethods returns every method in declaration order
func AllMethods() []Method {
	return []Method{MethodPost, MethodGet, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions}
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", m)
}

// ParseMethod parses a method name case-insensitively
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(name, s) {
			return Method(i), nil
		}
	}
	return 0, common.NewParseError(fmt.Sprintf("Unknown http method '%s'", s), nil)
}

// ParseMethods parses a list of method names
func ParseMethods(names []string) ([]Method, error) {
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		m, err := ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// --------------------------------------------------------------------------
// Versions
// --------------------------------------------------------------------------

// Version is a protocol version
type Version uint8

const (
	Version10 Version = iota
	Version11
	Version2

	// DefaultVersion is used for messages created without explicit version
	DefaultVersion = Version11
)

var versionNames = [...]string{
	Version10: "HTTP/1.0",
	Version11: "HTTP/1.1",
	Version2:  "HTTP/2",
}

func (v Version) String() string {
	if int(v) < len(versionNames) {
		return versionNames[v]
	}
	return fmt.Sprintf("Version(%d)", v)
}

// ParseVersion parses the textual form of a version case-insensitively
func ParseVersion(s string) (Version, error) {
	for i, name := range versionNames {
		if strings.EqualFold(name, s) {
			return Version(i), nil
		}
	}
	return 0, common.NewParseError(fmt.Sprintf("Unknown http version '%s'", s), nil)
}
