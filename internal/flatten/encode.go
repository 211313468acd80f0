package flatten

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"gopkg.in/yaml.v3"
)

var errNonFinite = errors.New("non-finite number cannot be encoded as JSON")

func (s Scalar) MarshalJSON() ([]byte, error) {
	if f, ok := s.v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, errNonFinite
	}
	return json.Marshal(s.v)
}

func (s Sequence) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (m Mapping) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(m))
	vals := make([]Value, len(m))
	for i, e := range m {
		keys[i], vals[i] = e.Key, e.Value
	}
	return marshalObject(keys, vals)
}

// MarshalJSON writes the flat record as a JSON object in key order.
func (f *Flat) MarshalJSON() ([]byte, error) {
	vals := make([]Value, len(f.keys))
	for i, k := range f.keys {
		vals[i] = f.vals[k]
	}
	return marshalObject(f.keys, vals)
}

func marshalObject(keys []string, vals []Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m Mapping) MarshalYAML() (any, error) {
	return toYAMLNode(m)
}

// MarshalYAML writes the flat record as a YAML mapping in key order.
func (f *Flat) MarshalYAML() (any, error) {
	return toYAMLNode(f.Mapping())
}

func toYAMLNode(v Value) (*yaml.Node, error) {
	switch v.Kind() {
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v.(Mapping) {
			c, err := toYAMLNode(e.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}, c)
		}
		return n, nil
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.(Sequence) {
			c, err := toYAMLNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	}

	raw := v.(Scalar).v
	// yaml.v3 treats json.Number as a plain string and would quote it.
	if num, ok := raw.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			raw = i
		} else if f, err := num.Float64(); err == nil {
			raw = f
		}
	}
	n := &yaml.Node{}
	if err := n.Encode(raw); err != nil {
		return nil, err
	}
	return n, nil
}
