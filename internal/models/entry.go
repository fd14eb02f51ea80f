package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// AttributeKind tags the shape of an attribute value
type AttributeKind int

const (
	// Absent means the attribute is missing or had an unusable shape
	Absent AttributeKind = iota
	// Scalar is a single string value
	Scalar
	// Multi is an ordered sequence of strings
	Multi
)

// AttributeValue is a loosely-typed LDAP attribute: one string, a list of strings, or nothing
type AttributeValue struct {
	kind   AttributeKind
	values []string
}

// ScalarValue builds a single-valued attribute
func ScalarValue(v string) AttributeValue {
	return AttributeValue{kind: Scalar, values: []string{v}}
}

// MultiValue builds a multi-valued attribute. The slice is copied.
func MultiValue(vs ...string) AttributeValue {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return AttributeValue{kind: Multi, values: cp}
}

// Kind reports which variant the value holds
func (a AttributeValue) Kind() AttributeKind {
	return a.kind
}

// IsPresent is false only for Absent
func (a AttributeValue) IsPresent() bool {
	return a.kind != Absent
}

// First returns the scalar or the first element of a sequence
func (a AttributeValue) First() (string, bool) {
	switch a.kind {
	case Scalar:
		return a.values[0], true
	case Multi:
		if len(a.values) == 0 {
			return "", false
		}
		return a.values[0], true
	default:
		return "", false
	}
}

// Values returns all values; a scalar is a one-element sequence
func (a AttributeValue) Values() []string {
	if a.kind == Absent {
		return nil
	}
	cp := make([]string, len(a.values))
	copy(cp, a.values)
	return cp
}

// Len is the number of values held
func (a AttributeValue) Len() int {
	if a.kind == Absent {
		return 0
	}
	return len(a.values)
}

// Contains reports whether any value equals v exactly
func (a AttributeValue) Contains(v string) bool {
	for _, x := range a.values {
		if x == v {
			return true
		}
	}
	return false
}

// MarshalJSON writes a scalar as a string and a sequence as an array
func (a AttributeValue) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case Scalar:
		return json.Marshal(a.values[0])
	case Multi:
		return json.Marshal(a.values)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string or an array of strings. Anything else decodes to Absent.
func (a *AttributeValue) UnmarshalJSON(data []byte) error {
	*a = AttributeValue{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = ScalarValue(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				// mixed arrays are not a usable attribute shape
				return nil
			}
			values = append(values, s)
		}
		*a = AttributeValue{kind: Multi, values: values}
	}

	return nil
}

// DirectoryEntry is one record returned by a directory search
type DirectoryEntry struct {
	DN         string
	Attributes map[string]AttributeValue
}

// NewEntry builds an entry from a DN and attribute values
func NewEntry(dn string, attrs map[string]AttributeValue) DirectoryEntry {
	cp := make(map[string]AttributeValue, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return DirectoryEntry{DN: dn, Attributes: cp}
}

// Get returns the named attribute, or Absent
func (e DirectoryEntry) Get(name string) AttributeValue {
	if e.Attributes == nil {
		return AttributeValue{}
	}
	return e.Attributes[name]
}

// FirstValue returns the first value of the named attribute
func (e DirectoryEntry) FirstValue(name string) (string, bool) {
	return e.Get(name).First()
}

// Has reports whether the attribute is present with a usable shape
func (e DirectoryEntry) Has(name string) bool {
	return e.Get(name).IsPresent()
}

// ObjectClasses returns the objectClass sequence, empty when missing
func (e DirectoryEntry) ObjectClasses() []string {
	values := e.Get("objectClass").Values()
	if values == nil {
		return []string{}
	}
	return values
}

// AttributeNames returns the attribute names in sorted order
func (e DirectoryEntry) AttributeNames() []string {
	names := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON flattens the entry into {"dn": ..., attr: value, ...}
func (e DirectoryEntry) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		if !v.IsPresent() {
			continue
		}
		flat[k] = v
	}
	flat["dn"] = e.DN
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat map form. A missing or non-string dn is rejected.
func (e *DirectoryEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	dnRaw, ok := raw["dn"]
	if !ok {
		return fmt.Errorf("directory entry without dn")
	}
	var dn string
	if err := json.Unmarshal(dnRaw, &dn); err != nil {
		return fmt.Errorf("directory entry dn: %w", err)
	}

	attrs := make(map[string]AttributeValue, len(raw))
	for k, v := range raw {
		if k == "dn" {
			continue
		}
		var av AttributeValue
		if err := av.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("attribute %s: %w", k, err)
		}
		attrs[k] = av
	}

	e.DN = dn
	e.Attributes = attrs
	return nil
}
