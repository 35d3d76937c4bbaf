package sanitize

import (
	"testing"
	"unicode/utf8"
)

func TestForTerminal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean string", "Connection timeout", "Connection timeout"},
		{"ANSI color", "\x1b[31mRed Text\x1b[0m", "[ESC]Red Text[ESC]"},
		{"screen clear payload", "\x1b[2J\x1b[H\x1b[31mPWNED\x1b[0m", "[ESC][ESC][ESC]PWNED[ESC]"},
		{"bare escape", "a\x1bb", "a[ESC]b"},
		{"unterminated CSI", "a\x1b[12", "a[ESC]"},
		{"tab and newline", "Hello\tNexus\nWorld", "Hello Nexus World"},
		{"carriage return", "Hello\rWorld", "Hello[CR]World"},
		{"control character", "Hello\x01World", "Hello[CTRL]World"},
		{"delete character", "Hello\x7FWorld", "Hello[DEL]World"},
		{"empty string", "", ""},
		{"unicode untouched", "température élevée", "température élevée"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ForTerminal(tc.input); got != tc.expected {
				t.Errorf("ForTerminal(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"within limit", "Connection timeout", 40, "Connection timeout"},
		{"exact limit", "abcdef", 6, "abcdef"},
		{"cut with ellipsis", "Connection timeout", 10, "Connect..."},
		{"tiny limit", "Connection", 2, "Co"},
		{"no limit", "Connection timeout", 0, "Connection timeout"},
		{"multi-byte", "ééééééééé", 5, "éé..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.input, tc.max)
			if got != tc.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.expected)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	got := Message("  \x1b[31mdisk full\x1b[0m  ", 0)
	if got != "[ESC]disk full[ESC]" {
		t.Errorf("Message = %q", got)
	}
}

func BenchmarkForTerminal_Clean(b *testing.B) {
	input := "INFO: System ready, 42 workers online"
	for i := 0; i < b.N; i++ {
		ForTerminal(input)
	}
}
