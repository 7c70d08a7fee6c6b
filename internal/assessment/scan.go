package assessment

import (
	"regexp"
	"strings"
)

var (
	fenceWithLabel = regexp.MustCompile("(?i)```json\\s*")
	bareFence      = regexp.MustCompile("```\\s*")
	leadingLabel   = regexp.MustCompile(`(?i)^\s*json\s*`)
)

// stripFences removes markdown code fences and a leading "json" label.
func stripFences(raw string) string {
	s := fenceWithLabel.ReplaceAllString(raw, "")
	s = bareFence.ReplaceAllString(s, "")
	s = leadingLabel.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// firstObject returns the first balanced {...} block. Braces inside string
// literals, including escaped quotes, do not count towards the depth.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
