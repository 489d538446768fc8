package telephony

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EventFields is the decoded nested payload carried in the "body" parameter.
// Lookups are by exact key. Keys keep the order of their first appearance.
type EventFields struct {
	keys   []string
	values map[string]string
}

// DecodeNestedBody splits body into lines and reads each as key=value around
// the first "=". Lines without "=" are skipped. Later keys overwrite earlier
// ones. Values are not unescaped or trimmed.
func DecodeNestedBody(body string) EventFields {
	f := EventFields{values: map[string]string{}}
	for _, line := range strings.Split(body, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if _, seen := f.values[k]; !seen {
			f.keys = append(f.keys, k)
		}
		f.values[k] = v
	}
	return f
}

func (f EventFields) Lookup(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Nullable returns nil when key is absent. A present empty value is "".
func (f EventFields) Nullable(key string) *string {
	v, ok := f.values[key]
	if !ok {
		return nil
	}
	return &v
}

func (f EventFields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f EventFields) Len() int { return len(f.keys) }

// MarshalJSON writes a JSON object in first-appearance key order.
func (f EventFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
