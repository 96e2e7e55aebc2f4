package docupdater

import (
	"bytes"
	"encoding/json"
	"iter"
)

// HeaderMap maps tag names to their parsed entries, keeping the order in which
// each tag first appeared in the file.
type HeaderMap struct {
	keys    []string
	entries map[string]TagEntry
}

func NewHeaderMap() *HeaderMap {
	return &HeaderMap{entries: make(map[string]TagEntry)}
}

// Set stores entry under key. Overwriting an existing key keeps its position.
func (h *HeaderMap) Set(key string, entry TagEntry) {
	if _, ok := h.entries[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.entries[key] = entry
}

func (h *HeaderMap) Get(key string) (TagEntry, bool) {
	if h == nil {
		return TagEntry{}, false
	}
	entry, ok := h.entries[key]
	return entry, ok
}

func (h *HeaderMap) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

func (h *HeaderMap) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

func (h *HeaderMap) Keys() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.keys...)
}

// Last returns the entry that was inserted last.
func (h *HeaderMap) Last() (string, TagEntry, bool) {
	if h.Len() == 0 {
		return "", TagEntry{}, false
	}
	key := h.keys[len(h.keys)-1]
	return key, h.entries[key], true
}

func (h *HeaderMap) All() iter.Seq2[string, TagEntry] {
	return func(yield func(string, TagEntry) bool) {
		if h == nil {
			return
		}
		for _, key := range h.keys {
			if !yield(key, h.entries[key]) {
				return
			}
		}
	}
}

func (h *HeaderMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for key, entry := range h.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(entry)
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
