// Package resolver locates object ids and struct fields inside untyped chain RPC responses.
//
// Responses are decoded into the generic encoding/json shapes (map[string]any, []any,
// string, json.Number or float64, bool, nil). All rules here are evaluated in a fixed order:
// explicit paths first, then a pattern fallback. Object keys are visited in sorted order and
// arrays in index order, so results do not depend on map iteration.
package resolver

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

var (
	hexAddress  = regexp.MustCompile(`^0x[0-9a-fA-F]{20,}$`)
	zeroAddress = regexp.MustCompile(`^0x0*$`)
)

// fieldPaths is the priority list used by ExtractFields.
var fieldPaths = [][]string{
	{"data", "content", "fields"},
	{"data", "content"},
	{"content", "fields"},
	{"content"},
	{"fields"},
}

// IsHexAddress reports whether s looks like an object id or address (0x + at least 20 hex chars).
func IsHexAddress(s string) bool {
	return hexAddress.MatchString(s)
}

// IsZeroAddress reports whether s is "0x" followed only by zeros.
func IsZeroAddress(s string) bool {
	return zeroAddress.MatchString(strings.TrimSpace(s))
}

// FindObjectID searches v depth-first. At each object node the rules are, in order:
// a string "objectId" property, a string "reference.objectId", then every entry in sorted
// key order where a hex-address string wins and nested objects/arrays are recursed.
func FindObjectID(v any) (string, bool) {
	switch node := v.(type) {
	case map[string]any:
		if id, ok := node["objectId"].(string); ok {
			return id, true
		}
		if ref, ok := node["reference"].(map[string]any); ok {
			if id, ok := ref["objectId"].(string); ok {
				return id, true
			}
		}
		for _, k := range sortedKeys(node) {
			if id, ok := scanEntry(node[k]); ok {
				return id, true
			}
		}
	case []any:
		for _, e := range node {
			if id, ok := scanEntry(e); ok {
				return id, true
			}
		}
	}
	return "", false
}

func scanEntry(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		if IsHexAddress(x) {
			return x, true
		}
	case map[string]any, []any:
		return FindObjectID(x)
	}
	return "", false
}

// CandidateIDs returns every distinct hex-address string in v, in traversal order.
func CandidateIDs(v any) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(any)
	walk = func(v any) {
		switch x := v.(type) {
		case string:
			if IsHexAddress(x) && !seen[x] {
				seen[x] = true
				out = append(out, x)
			}
		case map[string]any:
			for _, k := range sortedKeys(x) {
				walk(x[k])
			}
		case []any:
			for _, e := range x {
				walk(e)
			}
		}
	}
	walk(v)
	return out
}

// ExtractFields returns the first object found at data.content.fields, data.content,
// content.fields, content or fields.
func ExtractFields(v any) (map[string]any, bool) {
	for _, p := range fieldPaths {
		if m, ok := Lookup(v, p...).(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

// ObjectType returns data.type, type or data.content.type, whichever is a non-empty string first.
func ObjectType(v any) string {
	for _, p := range [][]string{{"data", "type"}, {"type"}, {"data", "content", "type"}} {
		if s, ok := Lookup(v, p...).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// IsControlType is a substring check of marker against a fully qualified type name.
func IsControlType(typ, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(typ, marker)
}

// Lookup walks nested objects by key. It returns nil when any step is missing.
func Lookup(v any, path ...string) any {
	cur := v
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[k]
		if !ok {
			return nil
		}
	}
	return cur
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// firstPresent returns the first non-nil value among keys.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
