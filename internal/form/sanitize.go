package form

import (
	"strconv"
	"strings"
	"unicode"
)

// Sanitize trims a field value and strips the characters the forms never
// accept: zero-width runes, Unicode control characters and angle brackets.
// Sanitizing an already-sanitized value is a no-op.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isZeroWidth(r) {
			continue
		}
		// Keep newlines and tabs: the message field is multi-line.
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if r == '<' || r == '>' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}

// stringValue coerces a decoded JSON value to a string. Numbers show up when
// clients send e.g. the phone field unquoted.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
