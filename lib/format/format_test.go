package format

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ValentinKolb/mocker/lib/value"
)

// testFormats is a map of format name to factory function
var testFormats = map[string]func() IFormat{
	"JSON":    NewJSONFormat,
	"TOML":    NewTOMLFormat,
	"YAML":    NewYAMLFormat,
	"Msgpack": NewMsgpackFormat,
}

// testRecords returns records every format can represent
func testRecords() []value.Map {
	return []value.Map{
		{"id": value.NewInteger(-1), "name": value.String("Joe"), "admin": value.Bool(true)},
		{"id": value.NewInteger(-2), "score": value.Float(1.5), "tags": value.Array{value.String("a"), value.String("b")}},
		{"id": value.NewInteger(-3), "nested": value.Map{"x": value.Float(0.25)}},
	}
}

// TestRecordsRoundTrip tests that store records survive encoding and decoding
func TestRecordsRoundTrip(t *testing.T) {
	for name, factory := range testFormats {
		t.Run(name, func(t *testing.T) {
			f := factory()
			records := testRecords()

			data, err := f.EncodeRecords(records)
			if err != nil {
				t.Fatalf("EncodeRecords() failed: %v", err)
			}
			got, err := f.DecodeRecords(data)
			if err != nil {
				t.Fatalf("DecodeRecords() failed: %v\n%s", err, data)
			}
			if len(got) != len(records) {
				t.Fatalf("DecodeRecords() returned %d records, want %d", len(got), len(records))
			}
			for i := range records {
				if !value.Equal(got[i], records[i]) {
					t.Errorf("record %d = %v, want %v", i, got[i], records[i])
				}
			}
		})
	}
}

// TestEmptyRecords tests that empty input and empty lists decode to no records
func TestEmptyRecords(t *testing.T) {
	for name, factory := range testFormats {
		t.Run(name, func(t *testing.T) {
			f := factory()
			if got, err := f.DecodeRecords(nil); err != nil || len(got) != 0 {
				t.Errorf("DecodeRecords(nil) = %v, %v; want no records", got, err)
			}
			data, err := f.EncodeRecords(nil)
			if err != nil {
				t.Fatalf("EncodeRecords(nil) failed: %v", err)
			}
			if got, err := f.DecodeRecords(data); err != nil || len(got) != 0 {
				t.Errorf("DecodeRecords(%q) = %v, %v; want no records", data, got, err)
			}
		})
	}
}

// TestJSONNumberClassification tests the mapping of json numbers to kinds
func TestJSONNumberClassification(t *testing.T) {
	f := NewJSONFormat()
	tests := []struct {
		input string
		kind  value.Kind
		text  string
	}{
		{"42", value.KindUnsigned, "42"},
		{"0", value.KindUnsigned, "0"},
		{"-7", value.KindInteger, "-7"},
		{"1.5", value.KindFloat, "1.5"},
		{"1e3", value.KindFloat, "1000"},
		{"340282366920938463463374607431768211455", value.KindUnsigned, "340282366920938463463374607431768211455"},
		{"340282366920938463463374607431768211456", value.KindFloat, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := f.DecodeValue([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeValue() failed: %v", err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("DecodeValue(%s) kind = %s, want %s", tt.input, v.Kind(), tt.kind)
			}
			if tt.text != "" && value.Render(v) != tt.text {
				t.Errorf("DecodeValue(%s) = %s, want %s", tt.input, value.Render(v), tt.text)
			}
		})
	}
}

// TestJSONKeepsPrecision tests that 128-bit integers are emitted unchanged
func TestJSONKeepsPrecision(t *testing.T) {
	huge, _ := new(big.Int).SetString("-170141183460469231731687303715884105728", 10)
	v, err := value.IntegerFromBig(huge)
	if err != nil {
		t.Fatalf("IntegerFromBig() failed: %v", err)
	}
	data, err := NewJSONFormat().EncodeValue(value.Map{"n": v})
	if err != nil {
		t.Fatalf("EncodeValue() failed: %v", err)
	}
	if string(data) != `{"n":-170141183460469231731687303715884105728}` {
		t.Errorf("EncodeValue() = %s", data)
	}
}

// TestJSONNoHTMLEscaping tests that markup characters are written verbatim
func TestJSONNoHTMLEscaping(t *testing.T) {
	data, err := NewJSONFormat().EncodeValue(value.String("<a&b>"))
	if err != nil {
		t.Fatalf("EncodeValue() failed: %v", err)
	}
	if string(data) != `"<a&b>"` {
		t.Errorf("EncodeValue() = %s, want %s", data, `"<a&b>"`)
	}
}

// TestDecodeErrors tests that malformed input yields a positioned DecodeError
func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		format IFormat
		input  string
		line   int
	}{
		{"json missing value", NewJSONFormat(), "{\n  \"name\": \n}", 3},
		{"json trailing data", NewJSONFormat(), "{} {}", 1},
		{"toml bad assignment", NewTOMLFormat(), "a = 1\nb = = 2\n", 2},
		{"yaml bad indentation", NewYAMLFormat(), "a: 1\n b: 2\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.format.DecodeValue([]byte(tt.input))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("DecodeValue() error = %v, want *DecodeError", err)
			}
			if de.Line != tt.line {
				t.Errorf("DecodeError.Line = %d, want %d (%v)", de.Line, tt.line, de)
			}
		})
	}
}

// TestAnnotate tests the pointer line inserted below the failing line
func TestAnnotate(t *testing.T) {
	de := &DecodeError{Format: "json", Line: 2, Column: 3, Msg: "boom"}
	got := de.Annotate([]byte("{\n  x\n}\n"))
	want := "{\n  x\n  ^ here\n}"
	if got != want {
		t.Errorf("Annotate() = %q, want %q", got, want)
	}

	unknown := &DecodeError{Format: "json", Msg: "boom"}
	if got := unknown.Annotate([]byte("abc\n")); got != "abc" {
		t.Errorf("Annotate() without position = %q, want %q", got, "abc")
	}
}

// TestTOMLLimits tests the values TOML cannot represent
func TestTOMLLimits(t *testing.T) {
	f := NewTOMLFormat()
	var ue *UnsupportedError

	if _, err := f.EncodeValue(value.Map{"a": value.Null{}}); !errors.As(err, &ue) {
		t.Errorf("encoding null: error = %v, want *UnsupportedError", err)
	}
	u := value.NewUnsigned(18446744073709551615)
	if _, err := f.EncodeValue(value.Map{"a": u}); !errors.As(err, &ue) {
		t.Errorf("encoding max uint64: error = %v, want *UnsupportedError", err)
	}

	// non-table values are wrapped
	data, err := f.EncodeValue(value.NewUnsigned(42))
	if err != nil {
		t.Fatalf("EncodeValue() failed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "value = 42" {
		t.Errorf("EncodeValue(42) = %q", data)
	}
}

// TestTOMLDatesAreStrings tests that toml date values decode to strings
func TestTOMLDatesAreStrings(t *testing.T) {
	v, err := NewTOMLFormat().DecodeValue([]byte("born = 1979-05-27\n"))
	if err != nil {
		t.Fatalf("DecodeValue() failed: %v", err)
	}
	if !value.Equal(v, value.Map{"born": value.String("1979-05-27")}) {
		t.Errorf("DecodeValue() = %v", v)
	}
}

// TestYAMLRejectedConstructs tests tags and keys that have no place in the value model
func TestYAMLRejectedConstructs(t *testing.T) {
	tests := map[string]string{
		"binary":     "data: !!binary aGVsbG8=\n",
		"custom tag": "data: !point 1\n",
		"merge key":  "base: &b {x: 1}\nother:\n  <<: *b\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewYAMLFormat().DecodeValue([]byte(input)); err == nil {
				t.Errorf("DecodeValue(%q) should fail", input)
			}
		})
	}
}

// TestYAMLScalars tests the classification of yaml scalars
func TestYAMLScalars(t *testing.T) {
	v, err := NewYAMLFormat().DecodeValue([]byte("a: 42\nb: -1\nc: 2.0\nd: ~\ne: 2001-12-14\nf: &x yes\ng: *x\n"))
	if err != nil {
		t.Fatalf("DecodeValue() failed: %v", err)
	}
	want := value.Map{
		"a": value.NewUnsigned(42),
		"b": value.NewInteger(-1),
		"c": value.Float(2),
		"d": value.Null{},
		"e": value.String("2001-12-14"),
		"f": value.String("yes"),
		"g": value.String("yes"),
	}
	if !value.Equal(v, want) {
		t.Errorf("DecodeValue() = %v, want %v", v, want)
	}
}

// TestYAMLFloatsStayFloats tests that integral floats keep their kind
func TestYAMLFloatsStayFloats(t *testing.T) {
	f := NewYAMLFormat()
	data, err := f.EncodeValue(value.Map{"f": value.Float(3)})
	if err != nil {
		t.Fatalf("EncodeValue() failed: %v", err)
	}
	v, err := f.DecodeValue(data)
	if err != nil {
		t.Fatalf("DecodeValue() failed: %v", err)
	}
	if got := v.(value.Map)["f"]; got.Kind() != value.KindFloat {
		t.Errorf("decoded kind = %s, want float (%s)", got.Kind(), data)
	}
}

// TestLookup tests the format lookup helpers
func TestLookup(t *testing.T) {
	if f, err := ByPath("data/users.YML"); err != nil || f.Name() != "yaml" {
		t.Errorf("ByPath(users.YML) = %v, %v", f, err)
	}
	if _, err := ByPath("data/users"); err == nil {
		t.Error("ByPath() without extension should fail")
	}
	if f, err := ByName("TOML"); err != nil || f.Name() != "toml" {
		t.Errorf("ByName(TOML) = %v, %v", f, err)
	}
	if f, ok := ByContentType(Payload(), "application/json; charset=utf-8"); !ok || f.Name() != "json" {
		t.Errorf("ByContentType(application/json) = %v, %v", f, ok)
	}
	if _, ok := ByContentType(Payload(), "application/msgpack"); ok {
		t.Error("msgpack must not be a payload format")
	}
}
