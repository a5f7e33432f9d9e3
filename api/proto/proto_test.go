package proto

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/value"
)

// testBuffers creates a set of messages with different parts filled
func testBuffers() map[string]*Buffer {
	bare := NewRequest(MethodGet, "/", Version11).Buffer

	withHeaders := NewRequest(MethodDelete, "/users?id=1", Version10).Buffer
	withHeaders.SetHeader("Accept", "application/json")
	withHeaders.SetHeader("X-Trace", "a:b:c")

	withBody := NewRequest(MethodPost, "/users", Version2).Buffer
	withBody.SetHeader(HeaderContentType, "application/json")
	withBody.SetBody([]byte("{\n\n  \"id\": 1\n}\n"))

	notFound := NewResponse()
	notFound.SetStatus(StatusNotFound)

	unknown := NewResponse()
	unknown.SetStatus(299)
	unknown.SetText("hello")

	return map[string]*Buffer{
		"bare request":   bare,
		"headers":        withHeaders,
		"body":           withBody,
		"multi word":     notFound.Buffer,
		"unknown status": unknown.Buffer,
	}
}

// TestBufferRoundTrip tests that serialized buffers parse to the same buffer
func TestBufferRoundTrip(t *testing.T) {
	for name, b := range testBuffers() {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseBuffer(b.Bytes())
			if err != nil {
				t.Fatalf("ParseBuffer failed: %v\n%s", err, b)
			}
			if !parsed.Equal(b) {
				t.Errorf("Buffer doesn't match after round trip:\nOriginal: %q\nResult: %q", b.String(), parsed.String())
			}
		})
	}
}

// TestScenarioSerialize tests the exact textual form of a response
func TestScenarioSerialize(t *testing.T) {
	res := NewResponse()
	res.SetVersion(Version10)
	res.SetStatus(StatusOK)
	res.SetHeader(HeaderContentType, "application/json")
	res.SetBody([]byte("test"))

	want := "HTTP/1.0 200 OK\nContent-Type: application/json\nContent-Length: 4\n\ntest"
	if got := res.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// TestHeaders tests case-insensitive header handling
func TestHeaders(t *testing.T) {
	b := NewBuffer(RequestLine{Method: MethodGet, Target: "/", Version: Version11})
	b.SetHeader("content-type", "text/plain")
	b.SetHeader("X-Other", "1")
	b.SetHeader("Content-Type", "application/json")

	if len(b.Headers()) != 2 {
		t.Fatalf("Expected 2 headers, got %v", b.Headers())
	}
	if h := b.Headers()[0]; h.Name != "Content-Type" || h.Value != "application/json" {
		t.Errorf("Expected overwritten header in first position, got %+v", h)
	}
	if v, ok := b.Header("CONTENT-TYPE"); !ok || v != "application/json" {
		t.Errorf("Header() = %q, %v", v, ok)
	}

	b.SetHeader("X-Pad", " \tpadded")
	b.AddHeader("X-Pad", "  again")
	parsed, err := ParseBuffer(b.Bytes())
	if err != nil || !parsed.Equal(b) {
		t.Errorf("Padded header values changed on reparse: %v -> %v (%v)", b.Headers(), parsed.Headers(), err)
	}
	if v, _ := b.Header("x-pad"); v != "padded" {
		t.Errorf("Expected leading whitespace to be dropped, got %q", v)
	}
	b.DelHeader("X-Pad")

	b.AppendBody([]byte("ab"))
	b.AppendBody([]byte("cd"))
	if v, _ := b.Header(HeaderContentLength); v != "4" {
		t.Errorf("Expected Content-Length 4, got %s", v)
	}
	b.ClearBody()
	if _, ok := b.Header(HeaderContentLength); ok {
		t.Error("Expected Content-Length to be removed with the body")
	}
}

// TestParse tests parsing of messages
func TestParse(t *testing.T) {
	req, err := ParseRequest([]byte("get /users?id=1 http/1.1\r\nHost:   localhost\r\n\r\n"))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Method() != MethodGet || req.Version() != Version11 || req.Target() != "/users?id=1" {
		t.Errorf("Unexpected request line %s", req.StartLine())
	}
	if v, _ := req.Header("host"); v != "localhost" {
		t.Errorf("Expected trimmed header value, got %q", v)
	}
	if len(req.Body()) != 0 {
		t.Errorf("Expected empty body, got %q", req.Body())
	}

	res, err := ParseResponse([]byte("HTTP/1.1 505 HTTP Version not supported\n"))
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if res.Status() != 505 || res.Reason() != "HTTP Version not supported" {
		t.Errorf("Unexpected status line %s", res.StartLine())
	}

	if _, err := ParseRequest([]byte("HTTP/1.1 200 OK\n")); err == nil {
		t.Error("ParseRequest should reject status lines")
	}
	if _, err := ParseResponse([]byte("GET / HTTP/1.1\n")); err == nil {
		t.Error("ParseResponse should reject request lines")
	}
}

// TestParseFailures tests that malformed messages are parse errors
func TestParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single token", "GET"},
		{"unknown method", "FETCH / HTTP/1.1"},
		{"missing version", "GET /users"},
		{"unknown version", "GET / HTTP/3"},
		{"status not numeric", "HTTP/1.1 abc OK"},
		{"header without colon", "GET / HTTP/1.1\nbroken header"},
		{"invalid utf-8", "GET / HTTP/1.1\n\n\xff\xfe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBuffer([]byte(tt.input))
			var e *common.Error
			if !errors.As(err, &e) || e.Kind != common.KindParse {
				t.Errorf("Expected parse error, got %v", err)
			}
		})
	}
}

// TestMethodsAndVersions tests the closed sets of methods and versions
func TestMethodsAndVersions(t *testing.T) {
	for _, m := range AllMethods() {
		parsed, err := ParseMethod(strings.ToLower(m.String()))
		if err != nil || parsed != m {
			t.Errorf("ParseMethod(%s) = %v, %v", m, parsed, err)
		}
	}
	if _, err := ParseMethod("TRACE"); err == nil || !strings.Contains(err.Error(), "Unknown http method 'TRACE'") {
		t.Errorf("Unexpected error for TRACE: %v", err)
	}
	if _, err := ParseMethods([]string{"get", "nope"}); err == nil {
		t.Error("ParseMethods should fail on unknown methods")
	}

	for _, v := range []Version{Version10, Version11, Version2} {
		if parsed, err := ParseVersion(v.String()); err != nil || parsed != v {
			t.Errorf("ParseVersion(%s) = %v, %v", v, parsed, err)
		}
	}
	if NewResponse().Version() != Version11 {
		t.Error("Expected HTTP/1.1 as default version")
	}
}

// TestQuery tests the splitting of targets into path and query
func TestQuery(t *testing.T) {
	req := NewRequest(MethodGet, "/users?id=42&debug&Name=joe=x", Version11)

	if req.Path() != "/users" {
		t.Errorf("Path() = %s", req.Path())
	}
	want := []QueryParam{
		{Key: "id", Value: "42", HasValue: true},
		{Key: "debug"},
		{Key: "Name", Value: "joe=x", HasValue: true},
	}
	got := req.QueryParams()
	if len(got) != len(want) {
		t.Fatalf("QueryParams() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("QueryParams()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if p, ok := req.QueryParam("name"); !ok || p.Value != "joe=x" {
		t.Errorf("QueryParam(name) = %+v, %v", p, ok)
	}

	plain := NewRequest(MethodGet, "/users", Version11)
	if _, ok := plain.Query(); ok {
		t.Error("Expected no query")
	}
	if plain.Path() != "/users" {
		t.Errorf("Path() = %s", plain.Path())
	}
}

// TestFraming tests reading messages from a stream
func TestFraming(t *testing.T) {
	t.Run("content-length", func(t *testing.T) {
		r := strings.NewReader("POST /u HTTP/1.1\nContent-Length: 5\n\nhelloEXTRA")
		req, err := ReadRequest(r, common.FramingContentLength, 0)
		if err != nil {
			t.Fatalf("ReadRequest failed: %v", err)
		}
		if string(req.Body()) != "hello" {
			t.Errorf("Body() = %q", req.Body())
		}
	})

	t.Run("head closed by eof", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("GET /u HTTP/1.1\nAccept: text/yaml"), common.FramingContentLength, 0)
		if err != nil {
			t.Fatalf("ReadRequest failed: %v", err)
		}
		if v, _ := req.Header(HeaderAccept); v != "text/yaml" {
			t.Errorf("Accept = %q", v)
		}
	})

	t.Run("write and read", func(t *testing.T) {
		for name, b := range testBuffers() {
			var buf bytes.Buffer
			if err := WriteMessage(&buf, b, common.FramingContentLength); err != nil {
				t.Fatalf("%s: WriteMessage failed: %v", name, err)
			}
			buf.WriteString("garbage after the message")
			data, err := ReadMessage(&buf, common.FramingContentLength, 0)
			if err != nil {
				t.Fatalf("%s: ReadMessage failed: %v", name, err)
			}
			parsed, err := ParseBuffer(data)
			if err != nil || !parsed.Equal(b) {
				t.Errorf("%s: message changed on the wire: %q (%v)", name, data, err)
			}
		}
	})

	t.Run("block", func(t *testing.T) {
		body := strings.Repeat("x", 300)
		msg := "POST /u HTTP/1.1\n\n" + body
		data, err := ReadMessage(strings.NewReader(msg), common.FramingBlock, 0)
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		if string(data) != msg {
			t.Errorf("Expected %d bytes, got %d", len(msg), len(data))
		}
	})

	t.Run("block exact multiple", func(t *testing.T) {
		msg := "GET / HTTP/1.1\n" + strings.Repeat("h", BlockSize-15)
		data, err := ReadMessage(strings.NewReader(msg), common.FramingBlock, 0)
		if err != nil || len(data) != BlockSize {
			t.Errorf("ReadMessage = %d bytes, %v", len(data), err)
		}
	})

	errTests := []struct {
		name    string
		input   string
		framing string
		max     int
		status  int
	}{
		{"too large head", "GET /" + strings.Repeat("a", 100) + " HTTP/1.1\n\n", common.FramingContentLength, 50, StatusRequestEntityTooLarge},
		{"too large body", "POST / HTTP/1.1\nContent-Length: 100\n\n", common.FramingContentLength, 50, StatusRequestEntityTooLarge},
		{"too large block", strings.Repeat("a", 600), common.FramingBlock, 300, StatusRequestEntityTooLarge},
		{"bad content length", "POST / HTTP/1.1\nContent-Length: abc\n\n", common.FramingContentLength, 0, StatusBadRequest},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMessage(strings.NewReader(tt.input), tt.framing, tt.max)
			var e *common.Error
			if !errors.As(err, &e) || e.Kind != common.KindAPI || e.Status != tt.status {
				t.Errorf("Expected api error %d, got %v", tt.status, err)
			}
		})
	}

	t.Run("endless head line", func(t *testing.T) {
		r := &endlessReader{}
		_, err := ReadMessage(r, common.FramingContentLength, 1024)
		var e *common.Error
		if !errors.As(err, &e) || e.Status != StatusRequestEntityTooLarge {
			t.Errorf("Expected api error 413, got %v", err)
		}
		if r.consumed > 1025 {
			t.Errorf("Read %d bytes for a limit of 1024", r.consumed)
		}
	})

	t.Run("short body", func(t *testing.T) {
		_, err := ReadMessage(strings.NewReader("POST / HTTP/1.1\nContent-Length: 10\n\nabc"), common.FramingContentLength, 0)
		var e *common.Error
		if !errors.As(err, &e) || e.Kind != common.KindIO {
			t.Errorf("Expected i/o error, got %v", err)
		}
	})
}

// endlessReader yields 'a' forever and counts what was taken
type endlessReader struct {
	consumed int
}

func (r *endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}
	r.consumed += len(p)
	return len(p), nil
}

// TestDecodeBody tests decoding request bodies
func TestDecodeBody(t *testing.T) {
	formats := format.Payload()

	newReq := func(ct, body string) *Request {
		req := NewRequest(MethodPost, "/users", Version11)
		if ct != "" {
			req.SetHeader(HeaderContentType, ct)
		}
		req.SetBody([]byte(body))
		return req
	}

	v, f, err := newReq("Application/JSON; charset=utf-8", "  {\"id\": 42}\n").DecodeBody(formats)
	if err != nil {
		t.Fatalf("DecodeBody failed: %v", err)
	}
	if f.Name() != "json" || !value.Equal(v, value.Map{"id": value.NewUnsigned(42)}) {
		t.Errorf("DecodeBody = %s (%s)", value.Render(v), f.Name())
	}

	v, _, err = newReq("text/yaml", "id: 7\nname: Joe\n").DecodeBody(formats)
	if err != nil || value.Render(v.(value.Map)["name"]) != "Joe" {
		t.Errorf("yaml DecodeBody = %v, %v", v, err)
	}

	var e *common.Error
	_, _, err = newReq("", "{}").DecodeBody(formats)
	if !errors.As(err, &e) || e.Status != StatusBadRequest || e.Msg != "Missing `Content-Type` header" {
		t.Errorf("Expected 400 for missing Content-Type, got %v", err)
	}
	_, _, err = newReq("application/xml", "<a/>").DecodeBody(formats)
	if !errors.As(err, &e) || e.Status != StatusUnsupportedMediaType {
		t.Errorf("Expected 415 for xml, got %v", err)
	}

	_, _, err = newReq("application/json", "{\n  \"id\": ,\n}").DecodeBody(formats)
	if !errors.As(err, &e) || e.Kind != common.KindParse {
		t.Fatalf("Expected parse error, got %v", err)
	}
	for _, want := range []string{"failed to deserialize request body", "--------------------", "^ here"} {
		if !strings.Contains(e.Msg, want) {
			t.Errorf("Parse error does not contain %q:\n%s", want, e.Msg)
		}
	}
}

// TestResponseFormat tests content negotiation
func TestResponseFormat(t *testing.T) {
	formats := format.Payload()
	fallback, _ := format.ByName("json")

	tests := []struct {
		name        string
		accept      string
		contentType string
		want        string
	}{
		{"none", "", "", "json"},
		{"accept", "text/yaml", "application/json", "yaml"},
		{"accept list", "*/*, application/toml;q=0.9", "", "toml"},
		{"content type", "", "application/x-yaml", "yaml"},
		{"unknown accept", "text/html", "application/toml", "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest(MethodGet, "/", Version11)
			if tt.accept != "" {
				req.SetHeader(HeaderAccept, tt.accept)
			}
			if tt.contentType != "" {
				req.SetHeader(HeaderContentType, tt.contentType)
			}
			if got := req.ResponseFormat(formats, fallback).Name(); got != tt.want {
				t.Errorf("ResponseFormat() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestApplyError tests converting errors into responses
func TestApplyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
		body   string
	}{
		{"api without message", common.NewAPIError(StatusNotFound, ""), 404, "Not Found", ""},
		{"api with message", common.NewAPIError(StatusConflict, "exists"), 409, "Conflict", "exists"},
		{"unknown status", common.NewAPIError(299, ""), 299, "", ""},
		{"other error", errors.New("boom"), 500, "Internal Server Error", "unknown. Caused by: boom"},
		{"parse error", common.NewParseError("bad body", nil), 500, "Internal Server Error", "parse: bad body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResponse()
			res.SetText("previous body")
			res.ApplyError(tt.err)

			if res.Status() != tt.status || res.Reason() != tt.reason {
				t.Errorf("Status line = %s", res.StartLine())
			}
			if string(res.Body()) != tt.body {
				t.Errorf("Body() = %q, want %q", res.Body(), tt.body)
			}
			if _, ok := res.Header(HeaderContentLength); ok != (tt.body != "") {
				t.Errorf("Unexpected Content-Length presence in %q", res.String())
			}
		})
	}
}

// TestValueResponse tests responses with encoded bodies
func TestValueResponse(t *testing.T) {
	f, _ := format.ByName("json")
	res, err := NewValueResponse(StatusCreated, value.NewUnsigned(42), f)
	if err != nil {
		t.Fatalf("NewValueResponse failed: %v", err)
	}
	want := "HTTP/1.1 201 Created\nContent-Type: application/json\nContent-Length: 2\n\n42"
	if res.String() != want {
		t.Errorf("String() = %q, want %q", res.String(), want)
	}

	toml, _ := format.ByName("toml")
	if _, err := NewValueResponse(StatusOK, value.Null{}, toml); err == nil {
		t.Error("Expected error encoding null as toml")
	}
}
