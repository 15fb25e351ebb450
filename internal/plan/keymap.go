package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyMap maps plan node ids to tracker issue keys, remembering the order in
// which entries were added.
type KeyMap struct {
	ids  []string
	keys map[string]string
}

// NewKeyMap returns an empty KeyMap.
func NewKeyMap() *KeyMap {
	return &KeyMap{keys: make(map[string]string)}
}

// Set records the key for id. Re-setting an id keeps its original position.
func (m *KeyMap) Set(id, key string) {
	if m.keys == nil {
		m.keys = make(map[string]string)
	}
	if _, exists := m.keys[id]; !exists {
		m.ids = append(m.ids, id)
	}
	m.keys[id] = key
}

// Get returns the key recorded for id.
func (m *KeyMap) Get(id string) (string, bool) {
	if m == nil {
		return "", false
	}
	key, ok := m.keys[id]
	return key, ok
}

// IDs returns the recorded ids in insertion order.
func (m *KeyMap) IDs() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}

// Len returns the number of entries.
func (m *KeyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// MarshalJSON writes the map as a JSON object in insertion order.
func (m *KeyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.keys[id])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, keeping document order.
func (m *KeyMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("key map: expected object, got %v", tok)
	}
	m.ids = nil
	m.keys = make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("key map: expected string key, got %v", tok)
		}
		var key string
		if err := dec.Decode(&key); err != nil {
			return fmt.Errorf("key map: value for %s: %w", id, err)
		}
		m.Set(id, key)
	}
	_, err = dec.Token()
	return err
}
