package format

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mocker/lib/value"
	"gopkg.in/yaml.v3"
)

// NewYAMLFormat creates a new format using yaml encoding
func NewYAMLFormat() IFormat {
	return &yamlFormatImpl{}
}

// yamlFormatImpl implements the IFormat interface using yaml encoding.
// Documents are processed as yaml.Node trees so integers keep their full
// precision and emitted mappings have a stable key order.
type yamlFormatImpl struct{}

// yamlLineRe extracts the line number from yaml.v3 error messages
var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// --------------------------------------------------------------------------
// Interface Methods (docu see format.IFormat)
// --------------------------------------------------------------------------

func (y *yamlFormatImpl) Name() string { return "yaml" }

func (y *yamlFormatImpl) Extensions() []string { return []string{"yaml", "yml"} }

func (y *yamlFormatImpl) ContentTypes() []string {
	return []string{"application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml"}
}

func (y *yamlFormatImpl) Textual() bool { return true }

func (y *yamlFormatImpl) EncodeValue(v value.Value) ([]byte, error) {
	node, err := toYAML(v)
	if err != nil {
		return nil, err
	}
	return encodeYAML(node)
}

func (y *yamlFormatImpl) DecodeValue(b []byte) (value.Value, error) {
	root, err := decodeYAML(b)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return value.Null{}, nil
	}
	return fromYAML(root)
}

func (y *yamlFormatImpl) EncodeRecords(records []value.Map) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(records) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for _, rec := range records {
		n, err := toYAML(rec)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}
	return encodeYAML(seq)
}

func (y *yamlFormatImpl) DecodeRecords(b []byte) ([]value.Map, error) {
	root, err := decodeYAML(b)
	if err != nil || root == nil {
		return nil, err
	}
	v, err := fromYAML(root)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case value.Null:
		return nil, nil
	case value.Array:
		records := make([]value.Map, 0, len(t))
		for i, e := range t {
			m, ok := e.(value.Map)
			if !ok {
				return nil, &DecodeError{Format: "yaml", Msg: fmt.Sprintf("record %d is a %s, expected a mapping", i, e.Kind())}
			}
			records = append(records, m)
		}
		return records, nil
	default:
		return nil, &DecodeError{Format: "yaml", Line: root.Line, Column: root.Column, Msg: "expected a sequence of records"}
	}
}

func (y *yamlFormatImpl) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func encodeYAML(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeYAML parses b and returns the content node of the document,
// nil for an empty document
func decodeYAML(b []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		de := &DecodeError{Format: "yaml", Msg: strings.TrimPrefix(err.Error(), "yaml: ")}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			de.Line, _ = strconv.Atoi(m[1])
		}
		return nil, de
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func yamlError(n *yaml.Node, msg string, args ...any) error {
	return &DecodeError{Format: "yaml", Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(msg, args...)}
}

// fromYAML converts a node tree into a Value. Aliases are resolved, binary
// data, merge keys and application specific tags are rejected.
func fromYAML(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, yamlError(n, "unknown alias")
		}
		return fromYAML(n.Alias)

	case yaml.SequenceNode:
		out := make(value.Array, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		out := make(value.Map, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.AliasNode && k.Alias != nil {
				k = k.Alias
			}
			if k.ShortTag() == "!!merge" {
				return nil, yamlError(k, "merge keys are not supported")
			}
			if k.Kind != yaml.ScalarNode {
				return nil, yamlError(k, "mapping keys must be scalars")
			}
			val, err := fromYAML(v)
			if err != nil {
				return nil, err
			}
			out[k.Value] = val
		}
		return out, nil

	case yaml.ScalarNode:
		return yamlScalar(n)

	default:
		return nil, yamlError(n, "unexpected node kind %d", n.Kind)
	}
}

func yamlScalar(n *yaml.Node) (value.Value, error) {
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, yamlError(n, "%v", err)
		}
		return value.Bool(b), nil
	case "!!int":
		if i, ok := new(big.Int).SetString(n.Value, 0); ok {
			if v, err := value.FromBig(i); err == nil {
				return v, nil
			}
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, yamlError(n, "invalid integer %q", n.Value)
		}
		return value.Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, yamlError(n, "invalid float %q", n.Value)
		}
		return value.Float(f), nil
	case "!!str", "!!timestamp":
		return value.String(n.Value), nil
	case "!!binary":
		return nil, yamlError(n, "binary data is not supported")
	default:
		return nil, yamlError(n, "unsupported tag %s", tag)
	}
}

// toYAML converts a Value into a node tree. Mapping keys are sorted, floats
// always carry a fractional part or exponent so they read back as floats.
func toYAML(v value.Value) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil, value.Null:
		return scalarNode("!!null", "null"), nil
	case value.Bool:
		return scalarNode("!!bool", t.String()), nil
	case value.Float:
		return scalarNode("!!float", yamlFloat(float64(t))), nil
	case value.Integer:
		return scalarNode("!!int", t.String()), nil
	case value.Unsigned:
		return scalarNode("!!int", t.String()), nil
	case value.String:
		return scalarNode("!!str", string(t)), nil
	case value.Array:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(t) == 0 {
			seq.Style = yaml.FlowStyle
		}
		for _, e := range t {
			n, err := toYAML(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case value.Map:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if len(t) == 0 {
			m.Style = yaml.FlowStyle
		}
		for _, k := range t.Keys() {
			n, err := toYAML(t[k])
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalarNode("!!str", k), n)
		}
		return m, nil
	default:
		return nil, unsupported("yaml", "unknown value kind %s", v.Kind())
	}
}

func scalarNode(tag, val string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
