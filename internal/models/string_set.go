package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// StringSet is a set of strings stored as a sorted JSON array.
// Legacy rows holding a plain string or duplicate entries are tolerated on Scan.
type StringSet map[string]struct{}

// NewStringSet builds a set from items, skipping empty strings.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		if item != "" {
			s[item] = struct{}{}
		}
	}
	return s
}

func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Add inserts item and reports whether the set grew.
func (s *StringSet) Add(item string) bool {
	if *s == nil {
		*s = StringSet{}
	}
	if _, ok := (*s)[item]; ok {
		return false
	}
	(*s)[item] = struct{}{}
	return true
}

// Remove deletes item and reports whether it was present.
func (s StringSet) Remove(item string) bool {
	if _, ok := s[item]; !ok {
		return false
	}
	delete(s, item)
	return true
}

func (s StringSet) Len() int { return len(s) }

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for item := range s {
		out[item] = struct{}{}
	}
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

func (s StringSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s.Sorted())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSet) Scan(value interface{}) error {
	if s == nil {
		return fmt.Errorf("models.StringSet: Scan on nil pointer")
	}
	if value == nil {
		*s = StringSet{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.StringSet: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*s = StringSet{}
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		*s = NewStringSet(arr...)
		return nil
	}

	var single string
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		*s = NewStringSet(single)
		return nil
	}

	*s = NewStringSet(raw)
	return nil
}
