package proto

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ValentinKolb/mocker/api/common"
)

const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderAccept        = "Accept"
)

// Header is a single header line
type Header struct {
	Name  string
	Value string
}

// Buffer is the textual form of a message: a start line, an ordered list of
// headers and the raw body. Header names are matched case-insensitively.
type Buffer struct {
	start   StartLine
	headers []Header
	body    []byte
}

// NewBuffer creates a buffer without headers and body
func NewBuffer(start StartLine) *Buffer {
	return &Buffer{start: start}
}

// StartLine returns the start line of the message
func (b *Buffer) StartLine() StartLine {
	return b.start
}

// SetStartLine replaces the start line of the message
func (b *Buffer) SetStartLine(start StartLine) {
	b.start = start
}

func (b *Buffer) headerIndex(name string) int {
	for i, h := range b.headers {
		if strings.EqualFold(h.Name, name) {
			return i
		}
	}
	return -1
}

// Header returns the value of the first header matching name
func (b *Buffer) Header(name string) (string, bool) {
	if i := b.headerIndex(name); i >= 0 {
		return b.headers[i].Value, true
	}
	return "", false
}

// Headers returns a copy of all headers in order
func (b *Buffer) Headers() []Header {
	return append([]Header(nil), b.headers...)
}

// SetHeader overwrites the first header matching name (keeping its position,
// taking the new spelling) or appends a new one. Leading whitespace of value
// is dropped, as it is when parsing.
func (b *Buffer) SetHeader(name, value string) {
	value = trimValue(value)
	if i := b.headerIndex(name); i >= 0 {
		b.headers[i] = Header{Name: name, Value: value}
		return
	}
	b.headers = append(b.headers, Header{Name: name, Value: value})
}

// AddHeader appends a header even if one with the same name exists
func (b *Buffer) AddHeader(name, value string) {
	b.headers = append(b.headers, Header{Name: name, Value: trimValue(value)})
}

func trimValue(value string) string {
	return strings.TrimLeft(value, " \t")
}

// DelHeader removes all headers matching name
func (b *Buffer) DelHeader(name string) {
	kept := b.headers[:0]
	for _, h := range b.headers {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
		}
	}
	b.headers = kept
}

// Body returns the raw body
func (b *Buffer) Body() []byte {
	return b.body
}

// SetBody replaces the body and updates Content-Length
func (b *Buffer) SetBody(body []byte) {
	b.body = append(b.body[:0:0], body...)
	b.SetHeader(HeaderContentLength, strconv.Itoa(len(b.body)))
}

// AppendBody appends to the body and updates Content-Length
func (b *Buffer) AppendBody(data []byte) {
	b.body = append(b.body, data...)
	b.SetHeader(HeaderContentLength, strconv.Itoa(len(b.body)))
}

// ClearBody removes the body together with its Content-Length header
func (b *Buffer) ClearBody() {
	b.body = nil
	b.DelHeader(HeaderContentLength)
}

// WriteTo writes the textual form of the message to w
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(b.start.String())
	buf.WriteByte('\n')
	for _, h := range b.headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteByte('\n')
	}
	if len(b.body) > 0 {
		buf.WriteByte('\n')
		buf.Write(b.body)
	}
	return buf.WriteTo(w)
}

// Bytes returns the textual form of the message
func (b *Buffer) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = b.WriteTo(&buf)
	return buf.Bytes()
}

func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Equal reports whether both buffers have the same start line, headers and body
func (b *Buffer) Equal(other *Buffer) bool {
	if b.start != other.start || len(b.headers) != len(other.headers) {
		return false
	}
	for i := range b.headers {
		if b.headers[i] != other.headers[i] {
			return false
		}
	}
	return bytes.Equal(b.body, other.body)
}

// ParseBuffer parses the textual form of a message
func ParseBuffer(data []byte) (*Buffer, error) {
	if !utf8.Valid(data) {
		return nil, common.NewParseError("message is not valid utf-8", nil)
	}

	lines := strings.Split(string(data), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	start, err := ParseStartLine(lines[0])
	if err != nil {
		return nil, err
	}
	b := NewBuffer(start)

	i := 1
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			i++
			break
		}
		name, val, ok := strings.Cut(line, ":")
		if !ok {
			return nil, common.NewParseError(fmt.Sprintf("invalid header line '%s'", line), nil)
		}
		b.AddHeader(name, val)
	}

	if i < len(lines) {
		if body := strings.Join(lines[i:], "\n"); body != "" {
			b.SetBody([]byte(body))
		}
	}
	return b, nil
}
