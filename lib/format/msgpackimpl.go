package format

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ValentinKolb/mocker/lib/value"
	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgpackFormat creates a new format using msgpack encoding.
// Msgpack is binary and only used for store files, never as message body.
func NewMsgpackFormat() IFormat {
	return &msgpackFormatImpl{}
}

// msgpackFormatImpl implements the IFormat interface using msgpack encoding
type msgpackFormatImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see format.IFormat)
// --------------------------------------------------------------------------

func (m *msgpackFormatImpl) Name() string { return "msgpack" }

func (m *msgpackFormatImpl) Extensions() []string { return []string{"msgpack", "mpk"} }

func (m *msgpackFormatImpl) ContentTypes() []string {
	return []string{"application/msgpack", "application/x-msgpack"}
}

func (m *msgpackFormatImpl) Textual() bool { return false }

func (m *msgpackFormatImpl) EncodeValue(v value.Value) ([]byte, error) {
	raw, err := toMsgpack(v)
	if err != nil {
		return nil, err
	}
	return encodeMsgpack(raw)
}

func (m *msgpackFormatImpl) DecodeValue(b []byte) (value.Value, error) {
	raw, err := decodeMsgpack(b)
	if err != nil {
		return nil, err
	}
	return fromMsgpack(raw)
}

func (m *msgpackFormatImpl) EncodeRecords(records []value.Map) ([]byte, error) {
	raw := make([]any, 0, len(records))
	for _, rec := range records {
		r, err := toMsgpack(rec)
		if err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	return encodeMsgpack(raw)
}

func (m *msgpackFormatImpl) DecodeRecords(b []byte) ([]value.Map, error) {
	if len(b) == 0 {
		return nil, nil
	}
	raw, err := decodeMsgpack(b)
	if err != nil {
		return nil, err
	}
	v, err := fromMsgpack(raw)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case value.Null:
		return nil, nil
	case value.Array:
		records := make([]value.Map, 0, len(t))
		for i, e := range t {
			rec, ok := e.(value.Map)
			if !ok {
				return nil, &DecodeError{Format: "msgpack", Msg: fmt.Sprintf("record %d is a %s, expected a map", i, e.Kind())}
			}
			records = append(records, rec)
		}
		return records, nil
	default:
		return nil, &DecodeError{Format: "msgpack", Msg: "expected an array of records"}
	}
}

func (m *msgpackFormatImpl) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func encodeMsgpack(raw any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeMsgpack(b []byte) (any, error) {
	r := bytes.NewReader(b)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(r)
	dec.UseLooseInterfaceDecoding(true)
	raw, err := dec.DecodeInterface()
	if err != nil {
		return nil, &DecodeError{Format: "msgpack", Msg: err.Error()}
	}
	if r.Len() > 0 {
		return nil, &DecodeError{Format: "msgpack", Msg: fmt.Sprintf("%d bytes of trailing data", r.Len())}
	}
	return raw, nil
}

// fromMsgpack converts a value decoded with loose interface decoding
func fromMsgpack(raw any) (value.Value, error) {
	switch t := raw.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(t), nil
	case int64:
		if t >= 0 {
			return value.NewUnsigned(uint64(t)), nil
		}
		return value.NewInteger(t), nil
	case uint64:
		return value.NewUnsigned(t), nil
	case float64:
		return value.Float(t), nil
	case float32:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case time.Time:
		return value.String(t.Format(time.RFC3339Nano)), nil
	case []byte:
		return nil, &DecodeError{Format: "msgpack", Msg: "binary data is not supported"}
	case []any:
		out := make(value.Array, 0, len(t))
		for _, e := range t {
			v, err := fromMsgpack(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		out := make(value.Map, len(t))
		for k, e := range t {
			v, err := fromMsgpack(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case map[any]any:
		out := make(value.Map, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, &DecodeError{Format: "msgpack", Msg: fmt.Sprintf("map key %v is not a string", k)}
			}
			v, err := fromMsgpack(e)
			if err != nil {
				return nil, err
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, unsupported("msgpack", "unexpected decoded type %T", raw)
	}
}

// toMsgpack converts a Value into a value msgpack can encode.
// Msgpack integers are limited to 64 bits.
func toMsgpack(v value.Value) (any, error) {
	switch t := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.Bool:
		return bool(t), nil
	case value.Float:
		return float64(t), nil
	case value.Integer:
		i, ok := t.Int64()
		if !ok {
			return nil, unsupported("msgpack", "integer %s does not fit into 64 bits", t)
		}
		return i, nil
	case value.Unsigned:
		u, ok := t.Uint64()
		if !ok {
			return nil, unsupported("msgpack", "unsigned %s does not fit into 64 bits", t)
		}
		return u, nil
	case value.String:
		return string(t), nil
	case value.Array:
		out := make([]any, 0, len(t))
		for _, e := range t {
			r, err := toMsgpack(e)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case value.Map:
		out := make(map[string]any, len(t))
		for k, e := range t {
			r, err := toMsgpack(e)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return nil, unsupported("msgpack", "unknown value kind %s", v.Kind())
	}
}
