package text

import (
	"errors"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrSearchClosed is returned by operations on a closed search.
var ErrSearchClosed = errors.New("search closed")

// SearchState is the position of a Search.
type SearchState int

const (
	Positioned SearchState = iota
	ExhaustedForward
	ExhaustedBackward
	Closed
)

func (s SearchState) String() string {
	switch s {
	case Positioned:
		return "Positioned"
	case ExhaustedForward:
		return "ExhaustedForward"
	case ExhaustedBackward:
		return "ExhaustedBackward"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

type match struct {
	start, length int // in characters
}

// Search steps through the occurrences of a term on a text page. Each
// hit moves both cursors: FindNext continues after the current match
// and FindPrev continues before it. There is no wraparound.
type Search struct {
	matches []match
	fwd     int
	back    int
	current int // index into matches, -1 before the first hit
	state   SearchState
}

// NewSearch prepares a search for term starting at character start. A
// start outside the page, such as -1, starts at the end. Without
// matchCase, characters are compared by full case folding, so "ß"
// matches "SS".
func NewSearch(tp *TextPage, term string, matchCase bool, start int) *Search {
	n := tp.CharCount()
	if start < 0 || start > n {
		start = n
	}
	return &Search{
		matches: findAll(tp, term, matchCase),
		fwd:     start,
		back:    start,
		current: -1,
	}
}

// State returns the current state.
func (s *Search) State() SearchState { return s.state }

// FindNext moves to the first match starting at or after the forward
// cursor. It reports false when there is none.
func (s *Search) FindNext() (bool, error) {
	if s.state == Closed {
		return false, ErrSearchClosed
	}
	i, _ := slices.BinarySearchFunc(s.matches, s.fwd, func(m match, pos int) int {
		return m.start - pos
	})
	if i == len(s.matches) {
		s.state = ExhaustedForward
		return false, nil
	}
	s.hit(i)
	return true, nil
}

// FindPrev moves to the last match starting before the backward cursor.
// It reports false when there is none.
func (s *Search) FindPrev() (bool, error) {
	if s.state == Closed {
		return false, ErrSearchClosed
	}
	i, _ := slices.BinarySearchFunc(s.matches, s.back, func(m match, pos int) int {
		return m.start - pos
	})
	if i == 0 {
		s.state = ExhaustedBackward
		return false, nil
	}
	s.hit(i - 1)
	return true, nil
}

func (s *Search) hit(i int) {
	m := s.matches[i]
	s.current = i
	s.fwd = m.start + m.length
	s.back = m.start
	s.state = Positioned
}

// MatchIndex returns the first character of the current match, or -1.
func (s *Search) MatchIndex() int {
	if s.current < 0 || s.state == Closed {
		return -1
	}
	return s.matches[s.current].start
}

// MatchCount returns the number of characters in the current match.
func (s *Search) MatchCount() int {
	if s.current < 0 || s.state == Closed {
		return 0
	}
	return s.matches[s.current].length
}

// Close ends the search.
func (s *Search) Close() {
	s.state = Closed
	s.matches = nil
}

// findAll returns every match of term, by start. Matches may overlap.
// Each match begins and ends on character boundaries even when folding
// expands a character into several runes.
func findAll(tp *TextPage, term string, matchCase bool) []match {
	fold := func(s string) string { return s }
	if !matchCase {
		caser := cases.Fold()
		fold = caser.String
	}
	needle := []rune(fold(norm.NFC.String(term)))
	if len(needle) == 0 {
		return nil
	}

	var (
		hay   []rune
		owner []int // character index of each rune in hay
	)
	for i, c := range tp.chars {
		for _, r := range fold(string(c.Rune)) {
			hay = append(hay, r)
			owner = append(owner, i)
		}
	}

	var out []match
	for j := 0; j+len(needle) <= len(hay); j++ {
		if j > 0 && owner[j] == owner[j-1] {
			continue
		}
		end := j + len(needle)
		if end < len(hay) && owner[end] == owner[end-1] {
			continue
		}
		if !slices.Equal(hay[j:end], needle) {
			continue
		}
		out = append(out, match{start: owner[j], length: owner[end-1] - owner[j] + 1})
	}
	return out
}
