package proto

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/value"
)

// Response is a Buffer with a status line
type Response struct {
	*Buffer
}

// NewResponse creates a "200 OK" response with the default version
func NewResponse() *Response {
	res := &Response{Buffer: NewBuffer(StatusLine{Version: DefaultVersion})}
	res.SetStatus(StatusOK)
	return res
}

// NewValueResponse creates a response with v encoded in f as body
func NewValueResponse(status int, v value.Value, f format.IFormat) (*Response, error) {
	res := NewResponse()
	res.SetStatus(status)
	if err := res.SetValue(v, f); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseResponse parses the textual form of a response
func ParseResponse(data []byte) (*Response, error) {
	b, err := ParseBuffer(data)
	if err != nil {
		return nil, err
	}
	if _, ok := b.StartLine().(StatusLine); !ok {
		return nil, common.NewParseError(fmt.Sprintf("expected a status line, got '%s'", b.StartLine()), nil)
	}
	return &Response{Buffer: b}, nil
}

// ReadResponse reads and parses one response from r
func ReadResponse(r io.Reader, framing string, maxBytes int) (*Response, error) {
	data, err := ReadMessage(r, framing, maxBytes)
	if err != nil {
		return nil, err
	}
	return ParseResponse(data)
}

func (r *Response) line() StatusLine {
	return r.StartLine().(StatusLine)
}

func (r *Response) Status() int {
	return r.line().Status
}

// Reason returns the reason phrase, empty if there is none
func (r *Response) Reason() string {
	return r.line().Reason
}

func (r *Response) Version() Version {
	return r.line().Version
}

// SetStatus sets the status code together with its canonical reason phrase.
// Unknown codes get no reason phrase.
func (r *Response) SetStatus(status int) {
	line := r.line()
	line.Status = status
	line.Reason, _ = StatusText(status)
	r.SetStartLine(line)
}

func (r *Response) SetVersion(v Version) {
	line := r.line()
	line.Version = v
	r.SetStartLine(line)
}

// SetValue encodes v in f and uses it as body
func (r *Response) SetValue(v value.Value, f format.IFormat) error {
	data, err := f.EncodeValue(v)
	if err != nil {
		return common.Classify(err)
	}
	r.SetHeader(HeaderContentType, f.ContentTypes()[0])
	r.SetBody(data)
	return nil
}

// SetText uses msg as plain text body
func (r *Response) SetText(msg string) {
	r.SetHeader(HeaderContentType, "text/plain")
	r.SetBody([]byte(msg))
}

// ApplyError turns the response into the answer for err. API errors set
// their status and, if present, their message as body. Every other error
// becomes a 500 with the error message as body.
func (r *Response) ApplyError(err error) {
	e := common.Classify(err)
	if e == nil {
		return
	}

	r.DelHeader(HeaderContentType)
	r.ClearBody()

	if e.Kind == common.KindAPI {
		r.SetStatus(e.Status)
		if e.Msg != "" {
			r.SetText(e.Msg)
		}
		return
	}

	r.SetStatus(StatusInternalServerError)
	r.SetText(e.Error())
}
