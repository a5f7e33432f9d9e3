package format

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/mocker/lib/value"
	"github.com/pelletier/go-toml/v2"
)

const (
	// tomlRecordsKey is the key holding the records of a store file.
	// A toml document is always a table, it cannot be a bare array.
	tomlRecordsKey = "records"

	// tomlValueKey is the key a non-table value is emitted under
	tomlValueKey = "value"
)

// NewTOMLFormat creates a new format using toml encoding
func NewTOMLFormat() IFormat {
	return &tomlFormatImpl{}
}

// tomlFormatImpl implements the IFormat interface using toml encoding.
// TOML has no null and only 64-bit integers: encoding Null fails, and
// Integer/Unsigned values outside the int64 range fail instead of wrapping.
type tomlFormatImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see format.IFormat)
// --------------------------------------------------------------------------

func (t *tomlFormatImpl) Name() string { return "toml" }

func (t *tomlFormatImpl) Extensions() []string { return []string{"toml"} }

func (t *tomlFormatImpl) ContentTypes() []string {
	return []string{"application/toml", "text/toml"}
}

func (t *tomlFormatImpl) Textual() bool { return true }

func (t *tomlFormatImpl) EncodeValue(v value.Value) ([]byte, error) {
	raw, err := toTOML(v)
	if err != nil {
		return nil, err
	}
	if _, ok := raw.(map[string]any); !ok {
		raw = map[string]any{tomlValueKey: raw}
	}
	return encodeTOML(raw)
}

func (t *tomlFormatImpl) DecodeValue(b []byte) (value.Value, error) {
	var raw map[string]any
	if err := decodeTOML(b, &raw); err != nil {
		return nil, err
	}
	return fromTOML(raw)
}

func (t *tomlFormatImpl) EncodeRecords(records []value.Map) ([]byte, error) {
	raw := make([]any, 0, len(records))
	for _, rec := range records {
		r, err := toTOML(rec)
		if err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	return encodeTOML(map[string]any{tomlRecordsKey: raw})
}

func (t *tomlFormatImpl) DecodeRecords(b []byte) ([]value.Map, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var doc struct {
		Records []map[string]any `toml:"records"`
	}
	if err := decodeTOML(b, &doc); err != nil {
		return nil, err
	}
	records := make([]value.Map, 0, len(doc.Records))
	for _, r := range doc.Records {
		v, err := fromTOML(r)
		if err != nil {
			return nil, err
		}
		records = append(records, v.(value.Map))
	}
	return records, nil
}

func (t *tomlFormatImpl) Marshal(v any) ([]byte, error) {
	return toml.Marshal(v)
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func encodeTOML(raw any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTOML(b []byte, target any) error {
	err := toml.Unmarshal(b, target)
	if err == nil {
		return nil
	}
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		line, col := decodeErr.Position()
		return &DecodeError{Format: "toml", Line: line, Column: col, Msg: decodeErr.Error()}
	}
	return &DecodeError{Format: "toml", Msg: err.Error()}
}

// fromTOML converts a decoded toml value into a Value. TOML integers are
// always signed and become Integer, date and time values become String.
func fromTOML(raw any) (value.Value, error) {
	switch t := raw.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(t), nil
	case int64:
		return value.NewInteger(t), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case time.Time:
		return value.String(t.Format(time.RFC3339Nano)), nil
	case toml.LocalDate:
		return value.String(t.String()), nil
	case toml.LocalTime:
		return value.String(t.String()), nil
	case toml.LocalDateTime:
		return value.String(t.String()), nil
	case []any:
		out := make(value.Array, 0, len(t))
		for _, e := range t {
			v, err := fromTOML(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		out := make(value.Map, len(t))
		for k, e := range t {
			v, err := fromTOML(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, unsupported("toml", "unexpected decoded type %T", raw)
	}
}

// toTOML converts a Value into a value go-toml can encode
func toTOML(v value.Value) (any, error) {
	switch t := v.(type) {
	case nil, value.Null:
		return nil, unsupported("toml", "null values do not exist in toml")
	case value.Bool:
		return bool(t), nil
	case value.Float:
		return float64(t), nil
	case value.Integer:
		i, ok := t.Int64()
		if !ok {
			return nil, unsupported("toml", "integer %s does not fit into 64 bits", t)
		}
		return i, nil
	case value.Unsigned:
		i, ok := t.Int64()
		if !ok {
			return nil, unsupported("toml", "unsigned %s does not fit into a signed 64-bit integer", t)
		}
		return i, nil
	case value.String:
		return string(t), nil
	case value.Array:
		out := make([]any, 0, len(t))
		for _, e := range t {
			r, err := toTOML(e)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case value.Map:
		out := make(map[string]any, len(t))
		for k, e := range t {
			r, err := toTOML(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	default:
		return nil, unsupported("toml", "unknown value kind %s", v.Kind())
	}
}
