package utils

import (
	"strings"
	"unicode/utf8"
)

// Tail returns at most the last max bytes of s, cut on a rune boundary and
// prefixed with "…" when shortened.
func Tail(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	start := len(s) - max
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return "…" + s[start:]
}

// ExpandPlaceholders replaces every {key} in each arg with vars[key].
func ExpandPlaceholders(args []string, vars map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = Expand(a, vars)
	}
	return out
}

// Expand replaces every {key} occurrence in s with vars[key] in a single pass,
// so substituted values are never expanded again. Unknown placeholders are
// left untouched.
func Expand(s string, vars map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		key := s[open+1 : open+end]
		b.WriteString(s[:open])
		if v, ok := vars[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[open : open+end+1])
		}
		s = s[open+end+1:]
	}
}
