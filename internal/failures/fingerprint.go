// Package failures groups query failure reasons by shape and attaches known
// remediation hints.
package failures

import (
	"strings"
)

// Fingerprint masks the variable parts of a failure reason so reasons that
// differ only in identifiers, sizes or quoted values compare equal.
func Fingerprint(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(reason))

	n := len(reason)
	for i := 0; i < n; i++ {
		c := reason[i]

		if c == '"' || c == '\'' || c == '`' {
			quote := c
			b.WriteString("<STR>")
			i++
			for i < n && reason[i] != quote {
				i++
			}
			continue
		}

		if isDelimiter(c) {
			b.WriteByte(c)
			continue
		}

		start := i
		for i < n && !isDelimiter(reason[i]) {
			i++
		}
		token := reason[start:i]
		if marker, ok := variableMarker(token); ok {
			b.WriteString(marker)
		} else {
			b.WriteString(token)
		}
		i--
	}
	return b.String()
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '[', ']', '{', '}', '(', ')', ',', ':', '=', ';', '<', '>', '/', '\\', '|', '#':
		return true
	default:
		return false
	}
}

func variableMarker(s string) (string, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return "<HEX>", true
	}
	if isUUIDLike(s) {
		return "<ID>", true
	}

	numeric, hasDigit := true, false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			hasDigit = true
		case s[i] == '.' || s[i] == '-' || s[i] == '%':
		default:
			numeric = false
		}
	}
	switch {
	case numeric && hasDigit:
		return "<NUM>", true
	case hasDigit:
		return "<*>", true
	}
	return "", false
}

// isUUIDLike matches query and job ids such as 1a2b3c4d-0000-... .
func isUUIDLike(s string) bool {
	if len(s) < 16 || strings.Count(s, "-") < 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' || c == '-' || c == ':' || c == '/') {
			return false
		}
	}
	return true
}
