package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a server-assigned identifier. The backend is inconsistent about
// whether ids are JSON numbers or strings, so ID accepts both and compares
// by canonical form: 42, "42" and "042" are the same ID.
type ID string

// IntID returns the ID for an integer identifier.
func IntID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// Canonical returns the normalized representation used for comparisons.
func (id ID) Canonical() string {
	s := strings.TrimSpace(string(id))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// Equal reports whether two ids refer to the same entity.
func (id ID) Equal(other ID) bool {
	return id.Canonical() == other.Canonical()
}

// Int returns the numeric value and true when the id is an integer.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(id)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id ID) String() string {
	return string(id)
}

// MarshalJSON emits integer ids as JSON numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}
