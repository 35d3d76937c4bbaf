// Package ahocorasick implements Aho-Corasick multi-pattern matching.
//
// A Matcher is built once from a fixed pattern set and then scans text in a
// single pass, O(len(text) + matches). polystream uses it to find log-level
// markers in log lines and error markers in event payloads.
//
// Matching is case-sensitive and byte-exact on rune boundaries.
//
// Thread Safety: a Matcher is immutable after New and safe for concurrent
// use.
package ahocorasick

import "unicode/utf8"

// Match is a single pattern occurrence.
type Match struct {
	Pattern int // index into the pattern slice given to New
	Start   int // byte offset of the first byte of the occurrence
	End     int // byte offset just past the occurrence
}

// Matcher is a compiled automaton. States live in a flat slice; state 0 is
// the root.
type Matcher struct {
	states []state
}

type state struct {
	next   map[rune]int
	fail   int
	out    []int // patterns ending here, including those reached via fail
	length []int // byte length of each pattern in out
}

// New compiles patterns. Empty patterns are ignored but keep their index.
func New(patterns []string) *Matcher {
	m := &Matcher{states: []state{{next: map[rune]int{}}}}
	for i, p := range patterns {
		if p == "" {
			continue
		}
		m.insert(p, i)
	}
	m.link()
	return m
}

func (m *Matcher) insert(pattern string, index int) {
	cur := 0
	for _, r := range pattern {
		nxt, ok := m.states[cur].next[r]
		if !ok {
			m.states = append(m.states, state{next: map[rune]int{}})
			nxt = len(m.states) - 1
			m.states[cur].next[r] = nxt
		}
		cur = nxt
	}
	m.states[cur].out = append(m.states[cur].out, index)
	m.states[cur].length = append(m.states[cur].length, len(pattern))
}

// link computes failure links breadth-first and merges outputs along them.
func (m *Matcher) link() {
	queue := make([]int, 0, len(m.states))
	for _, child := range m.states[0].next {
		m.states[child].fail = 0
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for r, child := range m.states[cur].next {
			queue = append(queue, child)

			f := m.states[cur].fail
			for {
				if nxt, ok := m.states[f].next[r]; ok && nxt != child {
					m.states[child].fail = nxt
					break
				}
				if f == 0 {
					m.states[child].fail = 0
					break
				}
				f = m.states[f].fail
			}

			fs := m.states[m.states[child].fail]
			m.states[child].out = append(m.states[child].out, fs.out...)
			m.states[child].length = append(m.states[child].length, fs.length...)
		}
	}
}

func (m *Matcher) step(cur int, r rune) int {
	for {
		if nxt, ok := m.states[cur].next[r]; ok {
			return nxt
		}
		if cur == 0 {
			return 0
		}
		cur = m.states[cur].fail
	}
}

// scan walks text and calls fn for every occurrence until fn returns false.
func (m *Matcher) scan(text string, fn func(Match) bool) {
	if len(m.states) == 1 {
		return
	}
	cur := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		end := i + size
		i = end

		cur = m.step(cur, r)
		s := m.states[cur]
		for k, p := range s.out {
			if !fn(Match{Pattern: p, Start: end - s.length[k], End: end}) {
				return
			}
		}
	}
}

// Contains reports whether any pattern occurs in text.
func (m *Matcher) Contains(text string) bool {
	found := false
	m.scan(text, func(Match) bool {
		found = true
		return false
	})
	return found
}

// FindAll returns every occurrence in text, ordered by end offset.
func (m *Matcher) FindAll(text string) []Match {
	var matches []Match
	m.scan(text, func(mt Match) bool {
		matches = append(matches, mt)
		return true
	})
	return matches
}
