package form

import (
	"encoding/json"
	"strings"
)

// ExtractPayload recovers a JSON object from a raw request body. Clients of
// the forms have been observed to send the fields at top level, nested under
// a "body" key, or double-encoded as a JSON string inside "body". The
// fallback chain, in order:
//
//  1. parse the body as JSON directly
//  2. if that fails, retry on the first {...} substring
//  3. if the parse yields a string, parse that string once more
//  4. unwrap one level of "body" nesting
//  5. if the unwrapped value is a string, parse it once more
//
// Anything that still is not an object yields ErrMalformedPayload.
func ExtractPayload(raw []byte) (map[string]any, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, ErrMalformedPayload
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		candidate, ok := braceSlice(text)
		if !ok {
			return nil, ErrMalformedPayload
		}
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			return nil, ErrMalformedPayload
		}
	}

	// Some clients stringify the whole payload, arriving as a top-level
	// JSON-encoded string with no "body" wrapper.
	if s, ok := parsed.(string); ok {
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, ErrMalformedPayload
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, ErrMalformedPayload
	}

	inner, nested := obj["body"]
	if !nested {
		return obj, nil
	}

	switch v := inner.(type) {
	case map[string]any:
		return v, nil
	case string:
		var unwrapped map[string]any
		if err := json.Unmarshal([]byte(v), &unwrapped); err != nil {
			return nil, ErrMalformedPayload
		}
		return unwrapped, nil
	default:
		// A "body" key of some other type is taken as a regular field.
		return obj, nil
	}
}

// braceSlice cuts the substring between the first '{' and the last '}'.
func braceSlice(s string) (string, bool) {
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first == -1 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}
