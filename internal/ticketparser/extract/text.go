package extract

import (
	"strings"
	"unicode"
)

// SplitLines returns the trimmed, non-empty lines of text in order. Every line terminator
// that OCR output is known to carry counts as a break, not only '\n'.
func SplitLines(text string) []string {
	parts := strings.FieldsFunc(text, isLineBreak)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		clean := strings.TrimFunc(part, isSpace)
		if clean == "" {
			continue
		}
		out = append(out, clean)
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	default:
		return false
	}
}

// isSpace is unicode.IsSpace plus the ASCII file, group, record and unit separators, which
// OCR engines emit between blocks.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// CollapseSpace replaces every whitespace run (ideographic space included) with a single
// ASCII space and trims both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isUpperEnglish reports whether the Latin letters of s number at least four and are all
// upper case. Anything that is not A-Z or a-z is ignored.
func isUpperEnglish(s string) bool {
	letters, upper := 0, 0
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
			upper++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	return letters >= 4 && upper == letters
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// Preview returns at most n lines of text, used for debug logging of raw OCR output.
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
