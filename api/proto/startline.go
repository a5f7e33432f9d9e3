package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mocker/api/common"
)

// StartLine is the first line of a message, either a RequestLine or a
// StatusLine
type StartLine interface {
	fmt.Stringer
	isStartLine()
}

// RequestLine is the start line of a request, e.g. "GET /users?id=1 HTTP/1.1"
type RequestLine struct {
	Method  Method
	Target  string
	Version Version
}

// StatusLine is the start line of a response, e.g. "HTTP/1.1 404 Not Found".
// Reason may be empty.
type StatusLine struct {
	Version Version
	Status  int
	Reason  string
}

func (RequestLine) isStartLine() {}
func (StatusLine) isStartLine()  {}

func (l RequestLine) String() string {
	return l.Method.String() + " " + l.Target + " " + l.Version.String()
}

func (l StatusLine) String() string {
	s := l.Version.String() + " " + strconv.Itoa(l.Status)
	if l.Reason != "" {
		s += " " + l.Reason
	}
	return s
}

// ParseStartLine parses a request or status line. Lines whose first token
// starts with "HTTP" are status lines.
func ParseStartLine(line string) (StartLine, error) {
	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return nil, common.NewParseError(fmt.Sprintf("invalid start line '%s'", line), nil)
	}

	if strings.HasPrefix(parts[0], "HTTP") {
		version, err := ParseVersion(parts[0])
		if err != nil {
			return nil, err
		}
		status, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, common.NewParseError(fmt.Sprintf("invalid status code '%s'", parts[1]), err)
		}
		return StatusLine{
			Version: version,
			Status:  status,
			Reason:  strings.Join(parts[2:], " "),
		}, nil
	}

	method, err := ParseMethod(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) < 3 {
		return nil, common.NewParseError(fmt.Sprintf("missing http version in '%s'", line), nil)
	}
	version, err := ParseVersion(parts[2])
	if err != nil {
		return nil, err
	}
	return RequestLine{Method: method, Target: parts[1], Version: version}, nil
}
