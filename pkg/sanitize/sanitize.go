// Package sanitize renders untrusted text safely for terminals and bounds
// its length. Log lines and event payloads reach stdout through here.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxMessage = 120
	ellipsis          = "..."
)

// ForTerminal replaces control characters and ANSI escape sequences with
// visible placeholders. Tabs and newlines collapse to a single space.
func ForTerminal(s string) string {
	if !needsEscaping(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 0x1B:
			i = skipEscape(s, i)
			b.WriteString("[ESC]")
		case c == '\t' || c == '\n':
			b.WriteByte(' ')
		case c == '\r':
			b.WriteString("[CR]")
		case c == 0x7F:
			b.WriteString("[DEL]")
		case c < 0x20:
			b.WriteString("[CTRL]")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsEscaping(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7F {
			return true
		}
	}
	return false
}

// skipEscape returns the index of the last byte of the escape sequence that
// starts at s[i]. CSI sequences run up to their final letter.
func skipEscape(s string, i int) int {
	if i+1 >= len(s) || s[i+1] != '[' {
		return i
	}
	j := i + 2
	for j < len(s) && !isCSIFinal(s[j]) {
		j++
	}
	if j >= len(s) {
		return len(s) - 1
	}
	return j
}

func isCSIFinal(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '@' || c == '`'
}

// Truncate shortens s to at most maxRunes runes, replacing the tail with
// "..." when it cuts. maxRunes <= 0 disables the limit.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	if maxRunes <= len(ellipsis) {
		return string([]rune(s)[:maxRunes])
	}
	return string([]rune(s)[:maxRunes-len(ellipsis)]) + ellipsis
}

// Message makes s terminal safe, trims surrounding space and truncates it.
func Message(s string, maxRunes int) string {
	return Truncate(strings.TrimSpace(ForTerminal(s)), maxRunes)
}
