// Package models contains domain types for the FPP modeler.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved attribute keys. These are carried as first-class fields on the
// entities and never stored in a Props bag.
const (
	KeyName      = "name"
	KeyType      = "type"
	KeyNamespace = "namespace"
	KeyBaseID    = "base_id"
	KeyKind      = "kind"
)

// IsReservedKey reports whether key is written through dedicated syntax
// rather than as a plain attribute line.
func IsReservedKey(key string) bool {
	switch key {
	case KeyName, KeyType, KeyNamespace:
		return true
	}
	return false
}

// Prop is a single residual attribute.
type Prop struct {
	Key   string
	Value string
}

// Props is an ordered attribute bag. Order is the order attributes were
// first set, which is also the order they are written back out.
type Props []Prop

// Get returns the value stored under key.
func (p Props) Get(key string) (string, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under key or "".
func (p Props) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Set replaces the value for key in place, or appends it.
func (p *Props) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Prop{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (p *Props) Delete(key string) bool {
	for i := range *p {
		if (*p)[i].Key == key {
			*p = append((*p)[:i], (*p)[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the keys in order.
func (p Props) Keys() []string {
	keys := make([]string, len(p))
	for i, prop := range p {
		keys[i] = prop.Key
	}
	return keys
}

// Clone returns an independent copy.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	copy(out, p)
	return out
}

// MarshalJSON encodes the bag as a JSON object, keeping key order.
func (p Props) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(prop.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the bag, keeping key order.
// Non-string scalar values are stored using their JSON text.
func (p *Props) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("props: expected object, got %v", tok)
	}

	out := Props{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("props: invalid key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(bytes.TrimSpace(raw))
		}
		out.Set(key, s)
	}
	*p = out
	return nil
}
