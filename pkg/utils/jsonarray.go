package utils

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoArray is returned when model output contains no JSON array at all.
// Callers must keep this distinct from a well-formed empty array.
var ErrNoArray = errors.New("no JSON array in model output")

// StripFences removes surrounding markdown code fencing (``` or ```json)
// from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the optional language tag on the opening fence.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ArraySlice returns the first top-level JSON array substring of s, fences
// stripped. Models often wrap the array in prose; slicing from the first '['
// to the last ']' is how the upstream responses are shaped.
func ArraySlice(s string) (string, error) {
	s = StripFences(s)
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end < start {
		return "", ErrNoArray
	}
	return s[start : end+1], nil
}

// DecodeStringArray parses a JSON array of strings out of raw model output.
// Object elements are accepted too, reading their "name" or "description"
// field, since models alternate between the two shapes.
func DecodeStringArray(raw string) ([]string, error) {
	slice, err := ArraySlice(raw)
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(slice), &elems); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj map[string]string
		if err := json.Unmarshal(e, &obj); err != nil {
			return nil, err
		}
		for _, key := range []string{"name", "description"} {
			if v := strings.TrimSpace(obj[key]); v != "" {
				out = append(out, v)
				break
			}
		}
	}

	return out, nil
}

// NormalizeName lowercases and whitespace-collapses a name for identity
// comparison and deduplication.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
