package proto

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/value"
)

// Request is a Buffer with a request line
type Request struct {
	*Buffer
}

// QueryParam is one key of the query string. HasValue is false for keys
// without '=' (e.g. "?debug").
type QueryParam struct {
	Key      string
	Value    string
	HasValue bool
}

// NewRequest creates a request without headers and body
func NewRequest(method Method, target string, version Version) *Request {
	return &Request{Buffer: NewBuffer(RequestLine{Method: method, Target: target, Version: version})}
}

// ParseRequest parses the textual form of a request
func ParseRequest(data []byte) (*Request, error) {
	b, err := ParseBuffer(data)
	if err != nil {
		return nil, err
	}
	if _, ok := b.StartLine().(RequestLine); !ok {
		return nil, common.NewParseError(fmt.Sprintf("expected a request line, got '%s'", b.StartLine()), nil)
	}
	return &Request{Buffer: b}, nil
}

// ReadRequest reads and parses one request from r
func ReadRequest(r io.Reader, framing string, maxBytes int) (*Request, error) {
	data, err := ReadMessage(r, framing, maxBytes)
	if err != nil {
		return nil, err
	}
	return ParseRequest(data)
}

func (r *Request) line() RequestLine {
	return r.StartLine().(RequestLine)
}

func (r *Request) Method() Method {
	return r.line().Method
}

func (r *Request) Target() string {
	return r.line().Target
}

func (r *Request) Version() Version {
	return r.line().Version
}

// Path returns the target up to the first '?'
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.Target(), "?")
	return path
}

// Query returns the target after the first '?', ok is false if there is none
func (r *Request) Query() (query string, ok bool) {
	_, query, ok = strings.Cut(r.Target(), "?")
	return query, ok
}

// QueryParams splits the query on '&' and every segment on its first '='
func (r *Request) QueryParams() []QueryParam {
	query, ok := r.Query()
	if !ok || query == "" {
		return nil
	}
	var params []QueryParam
	for _, segment := range strings.Split(query, "&") {
		key, val, hasValue := strings.Cut(segment, "=")
		params = append(params, QueryParam{Key: key, Value: val, HasValue: hasValue})
	}
	return params
}

// QueryParam returns the first query parameter whose key matches name
// case-insensitively
func (r *Request) QueryParam(name string) (QueryParam, bool) {
	for _, p := range r.QueryParams() {
		if strings.EqualFold(p.Key, name) {
			return p, true
		}
	}
	return QueryParam{}, false
}

// DecodeBody decodes the body with the format among formats that matches the
// Content-Type header
func (r *Request) DecodeBody(formats []format.IFormat) (value.Value, format.IFormat, error) {
	ct, ok := r.Header(HeaderContentType)
	if !ok {
		return nil, nil, common.NewAPIError(StatusBadRequest, "Missing `Content-Type` header")
	}
	f, ok := format.ByContentType(formats, ct)
	if !ok {
		return nil, nil, common.NewAPIErrorf(StatusUnsupportedMediaType, "Unsupported content type '%s'", format.MediaType(ct))
	}

	body := bytes.TrimSpace(r.Body())
	v, err := f.DecodeValue(body)
	if err != nil {
		msg := "failed to deserialize request body, " + err.Error()
		var de *format.DecodeError
		if errors.As(err, &de) && de.Line > 0 {
			msg += "\n--------------------\n" + de.Annotate(body)
		}
		return nil, f, common.NewParseError(msg, nil)
	}
	return v, f, nil
}

// ResponseFormat picks the format of the response body: the first format
// named by the Accept header, else the format of the Content-Type header,
// else fallback
func (r *Request) ResponseFormat(formats []format.IFormat, fallback format.IFormat) format.IFormat {
	if accept, ok := r.Header(HeaderAccept); ok {
		for _, media := range strings.Split(accept, ",") {
			if f, ok := format.ByContentType(formats, media); ok {
				return f
			}
		}
	}
	if ct, ok := r.Header(HeaderContentType); ok {
		if f, ok := format.ByContentType(formats, ct); ok {
			return f
		}
	}
	return fallback
}
