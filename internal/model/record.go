// Package model defines the stored record data types.
package model

import (
	"encoding/json"
	"time"
)

// Record is one stored version of a flattened document.
type Record struct {
	ID             string          `json:"id"`
	NS             string          `json:"ns"`
	Key            string          `json:"key"`
	Version        int             `json:"version"`
	Supersedes     string          `json:"supersedes,omitempty"`
	SimplifyArrays bool            `json:"simplify_arrays"`
	Tags           []string        `json:"tags,omitempty"`
	Source         json.RawMessage `json:"source"`
	FieldCount     int             `json:"field_count"`
	Fields         []Field         `json:"fields,omitempty"`
	Collisions     []string        `json:"collisions,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}

// Field is a single flattened path and its JSON-encoded value.
type Field struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// FieldsObject renders fields as one JSON object, in field order.
func FieldsObject(fields []Field) json.RawMessage {
	buf := []byte{'{'}
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, _ := json.Marshal(f.Path)
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, f.Value...)
	}
	return append(buf, '}')
}
