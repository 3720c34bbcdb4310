package model

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// NamedValue is one entry of an OrderedValues list.
type NamedValue struct {
	Name  string
	Value float64
}

// OrderedValues is a name→value mapping that keeps insertion order. It
// serializes as a JSON object whose keys appear in slice order.
type OrderedValues []NamedValue

// Get returns the value for name.
func (o OrderedValues) Get(name string) (float64, bool) {
	for _, nv := range o {
		if nv.Name == name {
			return nv.Value, true
		}
	}
	return 0, false
}

// Sum returns the total of all values.
func (o OrderedValues) Sum() float64 {
	var s float64
	for _, nv := range o {
		s += nv.Value
	}
	return s
}

// Map returns an unordered copy.
func (o OrderedValues) Map() map[string]float64 {
	m := make(map[string]float64, len(o))
	for _, nv := range o {
		m[nv.Name] = nv.Value
	}
	return m
}

// MarshalJSON writes the entries as an object in order.
func (o OrderedValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nv := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(nv.Value)
		if err != nil {
			return nil, eris.Wrapf(err, "model: marshal %s", nv.Name)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, preserving key order.
func (o *OrderedValues) UnmarshalJSON(data []byte) error {
	out := OrderedValues{}
	err := WalkObject(data, func(key string, raw json.RawMessage) error {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return eris.Wrapf(err, "model: value for %q", key)
		}
		out = append(out, NamedValue{Name: key, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

// WalkObject calls fn for each key of a JSON object in document order.
func WalkObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "model: read object")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return eris.Errorf("model: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "model: read key")
		}
		key, ok := tok.(string)
		if !ok {
			return eris.Errorf("model: expected string key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return eris.Wrapf(err, "model: read value for %q", key)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "model: close object")
	}
	return nil
}
