package flatten

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeJSON reads one JSON object from r, keeping key order and number
// literals as json.Number.
func DecodeJSON(r io.Reader) (Mapping, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode json: unexpected data after top-level value")
	}
	return asMapping(v)
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := Mapping{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, want string", kt)
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m = append(m, Entry{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := Sequence{}
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}

// DecodeYAML reads the first YAML document from r, keeping key order.
func DecodeYAML(r io.Reader) (Mapping, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	v, err := fromYAMLNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return asMapping(v)
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		m := make(Mapping, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m = append(m, Entry{Key: n.Content[i].Value, Value: v})
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make(Sequence, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		// Out of int64 range.
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

// FromAny converts already-decoded Go values into a Value. Keys of
// map[string]any are visited in lexical order since Go maps carry none.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t, nil
	case nil:
		return Null(), nil
	case map[string]any:
		m := make(Mapping, 0, len(t))
		for _, k := range sortedKeys(t) {
			ev, err := FromAny(t[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m = append(m, Entry{Key: k, Value: ev})
		}
		return m, nil
	case []any:
		seq := make(Sequence, 0, len(t))
		for i, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq = append(seq, ev)
		}
		return seq, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// RecordFromAny is FromAny restricted to mappings.
func RecordFromAny(v any) (Mapping, error) {
	val, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	return asMapping(val)
}

func asMapping(v Value) (Mapping, error) {
	if v.Kind() != KindMapping {
		return nil, fmt.Errorf("%w: top level is a %s", ErrNotMapping, v.Kind())
	}
	return v.(Mapping), nil
}
