package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// entries is an insertion-ordered map. Re-setting an existing key keeps its
// position. It is not safe for concurrent use; the stores guard it.
type entries[V any] struct {
	keys   []string
	values map[string]V
}

func newEntries[V any]() *entries[V] {
	return &entries[V]{values: make(map[string]V)}
}

func (e *entries[V]) get(key string) (V, bool) {
	v, ok := e.values[key]
	return v, ok
}

func (e *entries[V]) set(key string, v V) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = v
}

func (e *entries[V]) delete(key string) bool {
	if _, ok := e.values[key]; !ok {
		return false
	}
	delete(e.values, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
	return true
}

func (e *entries[V]) clear() {
	e.keys = nil
	e.values = make(map[string]V)
}

func (e *entries[V]) len() int {
	return len(e.keys)
}

// list returns the values in key order.
func (e *entries[V]) list() []V {
	out := make([]V, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, e.values[k])
	}
	return out
}

// MarshalJSON encodes the entries as a JSON object whose members appear in
// insertion order.
func (e *entries[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(e.values[k])
		if err != nil {
			return nil, fmt.Errorf("encode entry %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, recording member order. A repeated
// member keeps its first position and its last value.
func (e *entries[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	out := newEntries[V]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode entry %q: %w", key, err)
		}
		out.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = *out
	return nil
}
