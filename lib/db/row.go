package db

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/dUID/lib/cond"
)

// Row is one persisted object: its type, its id and its stored fields.
type Row struct {
	Type   string            `json:"type"`
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields,omitempty"`
	Index  uint64            `json:"index,omitempty"` // write index of the last change
}

// Lookup implements cond.Row. The id is exposed as the field cond.IDField.
func (r Row) Lookup(field string) (string, bool) {
	if field == cond.IDField {
		return r.ID, r.ID != ""
	}
	v, ok := r.Fields[field]
	return v, ok
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	c := r
	if r.Fields != nil {
		c.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			c.Fields[k] = v
		}
	}
	return c
}

// SizeBytes estimates the memory used by the row.
func (r Row) SizeBytes() int {
	size := len(r.Type) + len(r.ID) + 8
	for k, v := range r.Fields {
		size += len(k) + len(v)
	}
	return size
}

// Describe renders the fields in a stable order ("a=1, b=2").
func (r Row) Describe() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, r.Fields[k])
	}
	return strings.Join(parts, ", ")
}
