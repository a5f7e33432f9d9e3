package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mocker/lib/value"
)

// NewJSONFormat creates a new format using json encoding
func NewJSONFormat() IFormat {
	return &jsonFormatImpl{}
}

// jsonFormatImpl implements the IFormat interface using json encoding
type jsonFormatImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see format.IFormat)
// --------------------------------------------------------------------------

func (j *jsonFormatImpl) Name() string { return "json" }

func (j *jsonFormatImpl) Extensions() []string { return []string{"json"} }

func (j *jsonFormatImpl) ContentTypes() []string {
	return []string{"application/json", "text/json"}
}

func (j *jsonFormatImpl) Textual() bool { return true }

func (j *jsonFormatImpl) EncodeValue(v value.Value) ([]byte, error) {
	raw, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	return encodeJSON(raw, "")
}

func (j *jsonFormatImpl) DecodeValue(b []byte) (value.Value, error) {
	var raw any
	if err := decodeJSON(b, &raw); err != nil {
		return nil, err
	}
	return fromJSON(raw)
}

func (j *jsonFormatImpl) EncodeRecords(records []value.Map) ([]byte, error) {
	raw := make([]any, 0, len(records))
	for _, rec := range records {
		r, err := toJSON(rec)
		if err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	return encodeJSON(raw, "  ")
}

func (j *jsonFormatImpl) DecodeRecords(b []byte) ([]value.Map, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var raw []map[string]any
	if err := decodeJSON(b, &raw); err != nil {
		return nil, err
	}
	records := make([]value.Map, 0, len(raw))
	for _, r := range raw {
		v, err := fromJSON(map[string]any(r))
		if err != nil {
			return nil, err
		}
		records = append(records, v.(value.Map))
	}
	return records, nil
}

func (j *jsonFormatImpl) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// encodeJSON writes raw without html escaping and without trailing newline
func encodeJSON(raw any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeJSON decodes exactly one json document from b into target
func decodeJSON(b []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return jsonDecodeError(b, err, dec.InputOffset())
	}
	if _, err := dec.Token(); err != io.EOF {
		line, col := position(b, dec.InputOffset())
		return &DecodeError{Format: "json", Line: line, Column: col, Msg: "trailing data after json document"}
	}
	return nil
}

func jsonDecodeError(src []byte, err error, fallback int64) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	offset := fallback
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		offset = int64(len(src))
	}
	line, col := position(src, offset)
	return &DecodeError{Format: "json", Line: line, Column: col, Msg: err.Error()}
}

// fromJSON converts a value decoded with UseNumber into a Value
func fromJSON(raw any) (value.Value, error) {
	switch t := raw.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(t), nil
	case json.Number:
		return classifyNumber("json", string(t))
	case string:
		return value.String(t), nil
	case []any:
		out := make(value.Array, 0, len(t))
		for _, e := range t {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		out := make(value.Map, len(t))
		for k, e := range t {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, unsupported("json", "unexpected decoded type %T", raw)
	}
}

// classifyNumber turns a number literal into Unsigned, Integer or Float.
// Integral literals that do not fit 128 bits fall back to Float.
func classifyNumber(format string, lit string) (value.Value, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if i, ok := new(big.Int).SetString(lit, 10); ok {
			if v, err := value.FromBig(i); err == nil {
				return v, nil
			}
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, &DecodeError{Format: format, Msg: "invalid number " + lit}
	}
	return value.Float(f), nil
}

// toJSON converts a Value into a value encoding/json can encode.
// Integers keep their full precision through json.Number.
func toJSON(v value.Value) (any, error) {
	switch t := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.Bool:
		return bool(t), nil
	case value.Float:
		return float64(t), nil
	case value.Integer:
		return json.Number(t.String()), nil
	case value.Unsigned:
		return json.Number(t.String()), nil
	case value.String:
		return string(t), nil
	case value.Array:
		out := make([]any, 0, len(t))
		for _, e := range t {
			r, err := toJSON(e)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case value.Map:
		out := make(map[string]any, len(t))
		for k, e := range t {
			r, err := toJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return nil, unsupported("json", "unknown value kind %s", v.Kind())
	}
}
