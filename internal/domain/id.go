package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is an opaque identifier assigned by the backend. It keeps the exact JSON
// encoding it arrived with, so a numeric id is sent back as a number and a
// string id as a string.
type ID struct {
	raw string
}

// NumberID returns a numeric ID
func NumberID(n int64) ID {
	return ID{raw: strconv.FormatInt(n, 10)}
}

// StringID returns a string ID. An empty string yields the zero ID.
func StringID(s string) ID {
	if s == "" {
		return ID{}
	}
	b, _ := json.Marshal(s)
	return ID{raw: string(b)}
}

// IsZero reports whether the ID is absent, null or an empty string
func (id ID) IsZero() bool {
	return id.raw == "" || id.raw == "null" || id.raw == `""`
}

// String returns the ID without JSON quoting
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(id.raw), &s); err == nil {
		return s
	}
	return id.raw
}

// MarshalJSON implements json.Marshaler
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return []byte(id.raw), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	id.raw = string(b)
	if id.IsZero() {
		id.raw = ""
	}
	return nil
}
