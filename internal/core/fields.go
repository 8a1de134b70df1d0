package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Fields is a string-keyed mapping that remembers key insertion order.
//
// Rows are keyed by column names that only exist as data (headers, rule
// field names), so they cannot be structs. Order matters because CSV export
// derives its header from the first record's keys.
//
// Values are dynamic: string for CSV input, json.Number/bool/nested values
// for JSON input, float64 for calculated fields.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty Fields.
func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// FieldsFromPairs builds Fields from alternating key, value arguments.
// Intended for tests and static fixtures.
func FieldsFromPairs(kv ...any) *Fields {
	f := NewFields()
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return f
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (any, bool) {
	if f == nil || f.values == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Set stores v under key. New keys are appended to the key order.
func (f *Fields) Set(key string, v any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Clone returns a shallow copy.
func (f *Fields) Clone() *Fields {
	c := &Fields{
		keys:   make([]string, 0, f.Len()),
		values: make(map[string]any, f.Len()),
	}
	if f == nil {
		return c
	}
	for _, k := range f.keys {
		c.keys = append(c.keys, k)
		c.values[k] = f.values[k]
	}
	return c
}

// MarshalJSON encodes the mapping as a JSON object in key order.
// Keys holding nil are left out and non-finite numbers encode as null.
func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, k := range f.keys {
		v := f.values[k]
		if v == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if n, ok := v.(float64); ok && (math.IsNaN(n) || math.IsInf(n, 0)) {
			v = nil
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
// Numbers are kept as json.Number; null values are dropped.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	decoded, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// decodeObject reads one JSON object from dec into Fields.
func decodeObject(dec *json.Decoder) (*Fields, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	f := NewFields()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		if v == nil {
			continue
		}
		f.Set(key, v)
	}

	// Consume closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return f, nil
}
