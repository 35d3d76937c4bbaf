package ahocorasick

import (
	"strings"
	"testing"
)

func TestMatcher_Contains(t *testing.T) {
	m := New([]string{"ERROR", "INFO"})

	tests := []struct {
		input    string
		expected bool
	}{
		{"ERROR: Connection timeout", true},
		{"INFO: System ready", true},
		{"[2025-01-01] worker INFO started", true},
		{"error: lower case", false},
		{"DEBUG: nothing to see", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := m.Contains(tc.input); got != tc.expected {
			t.Errorf("Contains(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestMatcher_CaseSensitive(t *testing.T) {
	kelvin := New([]string{"K"})
	if got := kelvin.FindAll("ok"); got != nil {
		t.Errorf("Kelvin sign should not match ASCII k: %+v", got)
	}

	m := New([]string{"k"})
	matches := m.FindAll("xKKk")
	if len(matches) != 1 {
		t.Fatalf("Expected only the literal k to match, got %+v", matches)
	}
	text := "xKKk"
	if matches[0].Start != 5 || text[matches[0].Start:matches[0].End] != "k" {
		t.Errorf("Unexpected offsets: %+v", matches[0])
	}
}

func TestMatcher_FindAllOffsets(t *testing.T) {
	m := New([]string{"error"})
	text := "error, then another error"

	matches := m.FindAll(text)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	for _, mt := range matches {
		if text[mt.Start:mt.End] != "error" {
			t.Errorf("Offsets %d:%d do not cover the pattern: %q", mt.Start, mt.End, text[mt.Start:mt.End])
		}
	}
}

func TestMatcher_FindAllOrderedByEnd(t *testing.T) {
	m := New([]string{"INFO", "ERROR"})

	matches := m.FindAll("INFO: retry after ERROR")
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %+v", matches)
	}
	if matches[0].Pattern != 0 || matches[0].Start != 0 || matches[0].End != 4 {
		t.Errorf("Unexpected first match: %+v", matches[0])
	}
	if matches[1].Pattern != 1 || matches[1].Start != 18 || matches[1].End != 23 {
		t.Errorf("Unexpected second match: %+v", matches[1])
	}
}

func TestMatcher_MultiByteOffsets(t *testing.T) {
	m := New([]string{"ERROR", "é→"})
	text := "é→ERROR"

	for _, mt := range m.FindAll(text) {
		want := []string{"ERROR", "é→"}[mt.Pattern]
		if text[mt.Start:mt.End] != want {
			t.Errorf("Wrong slice for pattern %d: %q", mt.Pattern, text[mt.Start:mt.End])
		}
	}
}

func TestMatcher_OverlappingPatterns(t *testing.T) {
	m := New([]string{"script", "scr", "ipt"})

	matches := m.FindAll("<script>")
	if len(matches) != 3 {
		t.Errorf("Expected 3 matches for overlapping patterns, got %d", len(matches))
	}
}

func TestMatcher_SuffixOutputs(t *testing.T) {
	m := New([]string{"or", "for", "form"})

	matches := m.FindAll("form")
	if len(matches) != 3 {
		t.Errorf("Expected 3 matches (or, for, form), got %d: %v", len(matches), matches)
	}
}

func TestMatcher_FailureLinkAcrossBranches(t *testing.T) {
	m := New([]string{"he", "she", "his", "hers"})

	matches := m.FindAll("ushers")
	if len(matches) != 3 {
		t.Errorf("Expected she, he and hers, got %v", matches)
	}
}

func TestMatcher_EmptyPatternKeepsIndex(t *testing.T) {
	m := New([]string{"", "WARN"})

	matches := m.FindAll("a WARN here")
	if len(matches) != 1 || matches[0].Pattern != 1 {
		t.Errorf("Expected WARN at index 1, got %+v", matches)
	}
}

func TestMatcher_Empty(t *testing.T) {
	for _, m := range []*Matcher{New(nil), New([]string{}), New([]string{""})} {
		if m.Contains("anything") {
			t.Error("Empty matcher should not match anything")
		}
		if m.FindAll("anything") != nil {
			t.Error("Empty matcher should return nil matches")
		}
	}
}

func FuzzMatcher_AgreesWithContains(f *testing.F) {
	f.Add("ERROR: Connection timeout")
	f.Add("INFO")
	f.Add("\xff\xfeERR")
	f.Add("K error K")

	patterns := []string{"ERROR", "INFO", "error", "k"}
	m := New(patterns)

	f.Fuzz(func(t *testing.T, text string) {
		got := m.Contains(text)
		want := false
		for _, p := range patterns {
			if strings.Contains(text, p) {
				want = true
			}
		}
		if got != want {
			t.Errorf("Contains(%q) = %v, naive = %v", text, got, want)
		}

		for _, mt := range m.FindAll(text) {
			if mt.Start < 0 || text[mt.Start:mt.End] != patterns[mt.Pattern] {
				t.Errorf("FindAll(%q) bad offsets %+v", text, mt)
			}
		}
	})
}

func BenchmarkMatcher_Contains(b *testing.B) {
	m := New([]string{"ERROR", "WARNING", "INFO"})
	input := "2025-01-01T12:00:00Z worker-7 INFO request served in 12ms"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Contains(input)
	}
}
