package model

import "sort"

// Data is the attribute map carried by documents, blocks, inlines and marks.
// Data values are treated as immutable: every update returns a copy.
type Data map[string]any

// NewData builds a Data map from alternating key/value pairs.
// Pairs with a nil value are skipped. It returns nil when nothing remains.
func NewData(kv ...any) Data {
	var d Data
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok || kv[i+1] == nil {
			continue
		}
		if s, ok := kv[i+1].(string); ok && s == "" {
			continue
		}
		if d == nil {
			d = make(Data)
		}
		d[key] = kv[i+1]
	}
	return d
}

// Has reports whether key is present
func (d Data) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Get returns the value stored under key
func (d Data) Get(key string) (any, bool) {
	v, ok := d[key]
	return v, ok
}

// String returns the string stored under key, or "" if absent or not a string
func (d Data) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the boolean stored under key
func (d Data) Bool(key string) (value bool, ok bool) {
	value, ok = d[key].(bool)
	return value, ok
}

// Int returns the integer stored under key. Floats from decoded metadata are truncated.
func (d Data) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Strings returns the string slice stored under key
func (d Data) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i], _ = e.(string)
		}
		return out
	}
	return nil
}

// With returns a copy of d with key set to value
func (d Data) With(key string, value any) Data {
	out := make(Data, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out[key] = value
	return out
}

// Without returns a copy of d without key. The result is nil if it would be empty.
func (d Data) Without(key string) Data {
	if !d.Has(key) {
		return d
	}
	if len(d) == 1 {
		return nil
	}
	out := make(Data, len(d)-1)
	for k, v := range d {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// Merge returns a copy of d overlaid with other
func (d Data) Merge(other Data) Data {
	if len(other) == 0 {
		return d
	}
	out := make(Data, len(d)+len(other))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the keys of d in sorted order
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func canonicalData(d Data) Data {
	if len(d) == 0 {
		return nil
	}
	return d
}
