package pattern

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed signals a pattern document that is not a JSON object of strings.
var ErrMalformed = errors.New("malformed pattern document")

// Entry is a single named regular-expression source string.
type Entry struct {
	Key     string
	Pattern string
}

// Document is an ordered key -> pattern mapping. Keys are unique and entry
// order follows the source document.
type Document struct {
	entries []Entry
}

// NewDocument builds a Document from entries in order.
// A repeated key replaces the earlier value but keeps its original position.
func NewDocument(entries ...Entry) Document {
	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Key]; ok {
			out[i].Pattern = e.Pattern
			continue
		}
		index[e.Key] = len(out)
		out = append(out, e)
	}
	return Document{entries: out}
}

// Len returns the number of entries.
func (d Document) Len() int { return len(d.entries) }

// Entries returns a copy of the entries in document order. Never nil.
func (d Document) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Keys returns the keys in document order.
func (d Document) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the pattern stored under key.
func (d Document) Get(key string) (string, bool) {
	for _, e := range d.entries {
		if e.Key == key {
			return e.Pattern, true
		}
	}
	return "", false
}

// Filter returns the entries of doc whose key contains query as a
// case-sensitive substring, in document order. An empty query matches
// everything; no match yields an empty Document.
func Filter(doc Document, query string) Document {
	out := make([]Entry, 0)
	for _, e := range doc.entries {
		if strings.Contains(e.Key, query) {
			out = append(out, e)
		}
	}
	return Document{entries: out}
}

// MarshalJSON encodes the document as a JSON object preserving entry order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", e.Key, err)
		}
		v, err := json.Marshal(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("marshal pattern %q: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of strings, keeping key order.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object, got %v", ErrMalformed, tok)
	}

	var entries []Entry
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
		}

		var value *string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: pattern %q: %w", ErrMalformed, key, err)
		}
		if value == nil {
			return fmt.Errorf("%w: pattern %q is null", ErrMalformed, key)
		}
		entries = append(entries, Entry{Key: key, Pattern: *value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	*d = NewDocument(entries...)
	return nil
}
