package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/mocker/lib/value"
)

// IFormat is the interface for all payload and persistence formats
type IFormat interface {
	// Name returns the short name of the format (e.g. "json")
	Name() string
	// Extensions returns the file extensions (without dot) the format is detected by
	Extensions() []string
	// ContentTypes returns the media types of the format, the first one is canonical
	ContentTypes() []string
	// Textual reports whether the format can travel as a text message body
	Textual() bool

	// EncodeValue serializes a single value
	EncodeValue(v value.Value) ([]byte, error)
	// DecodeValue deserializes a single value
	// Malformed input is reported as *DecodeError
	DecodeValue(b []byte) (value.Value, error)

	// EncodeRecords serializes a list of records (the content of a store file)
	EncodeRecords(records []value.Map) ([]byte, error)
	// DecodeRecords deserializes a list of records (the content of a store file)
	// Empty input yields no records
	DecodeRecords(b []byte) ([]value.Map, error)

	// Marshal serializes an arbitrary go value (e.g. a configuration struct)
	Marshal(v any) ([]byte, error)
}

// --------------------------------------------------------------------------
// Format Lookup
// --------------------------------------------------------------------------

// All returns every known format, JSON first
func All() []IFormat {
	return []IFormat{
		NewJSONFormat(),
		NewTOMLFormat(),
		NewYAMLFormat(),
		NewMsgpackFormat(),
	}
}

// Payload returns the formats that can be used as request and response bodies
func Payload() []IFormat {
	var out []IFormat
	for _, f := range All() {
		if f.Textual() {
			out = append(out, f)
		}
	}
	return out
}

// ByName returns the format with the given name (case-insensitive)
func ByName(name string) (IFormat, error) {
	for _, f := range All() {
		if strings.EqualFold(f.Name(), name) {
			return f, nil
		}
		for _, ext := range f.Extensions() {
			if strings.EqualFold(ext, name) {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown format '%s'", name)
}

// ByPath returns the format matching the extension of path
func ByPath(path string) (IFormat, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("%s: missing file extension, cannot detect format", path)
	}
	for _, f := range All() {
		for _, e := range f.Extensions() {
			if strings.EqualFold(e, ext) {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("%s: unknown format '%s'", path, ext)
}

// ByContentType returns the format among formats matching the media type of a
// Content-Type or Accept value. Parameters (";charset=...") are ignored.
func ByContentType(formats []IFormat, contentType string) (IFormat, bool) {
	media := MediaType(contentType)
	if media == "" {
		return nil, false
	}
	for _, f := range formats {
		for _, ct := range f.ContentTypes() {
			if strings.EqualFold(ct, media) {
				return f, true
			}
		}
	}
	return nil, false
}

// MediaType strips parameters and surrounding whitespace from a media type
func MediaType(contentType string) string {
	media, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(media)
}

// --------------------------------------------------------------------------
// Decode Errors
// --------------------------------------------------------------------------

// DecodeError reports malformed input. Line and Column are 1-based, zero if
// the format engine did not report a position.
type DecodeError struct {
	Format string
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Format, e.Msg, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Msg)
}

// Annotate returns src with a pointer line inserted below the offending line.
// If no position is known src is returned unchanged.
func (e *DecodeError) Annotate(src []byte) string {
	lines := strings.Split(strings.TrimRight(string(src), "\n"), "\n")
	if e.Line <= 0 {
		return strings.Join(lines, "\n")
	}
	at := e.Line
	if at > len(lines) {
		at = len(lines)
	}
	col := e.Column
	if col < 1 {
		col = 1
	}
	pointer := strings.Repeat(" ", col-1) + "^ here"
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, pointer)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n")
}

// UnsupportedError reports a value that exists in the data model but cannot be
// represented in a format (e.g. null in TOML) or vice versa
type UnsupportedError struct {
	Format string
	Msg    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Format, e.Msg)
}

func unsupported(format string, msg string, args ...any) error {
	return &UnsupportedError{Format: format, Msg: fmt.Sprintf(msg, args...)}
}

// position converts a byte offset into a 1-based line and column
func position(src []byte, offset int64) (line, column int) {
	if offset > int64(len(src)) {
		offset = int64(len(src))
	}
	line, column = 1, 1
	for _, c := range src[:offset] {
		if c == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
