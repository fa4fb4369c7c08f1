package text

import (
	"errors"
	"testing"
)

// line lays out s on one baseline, one 5pt char per rune.
func line(s string) *TextPage {
	var chars []Char
	for i, r := range []rune(s) {
		chars = append(chars, char(r, float64(i)*5, 100, 5))
	}
	return NewTextPage(chars)
}

type step struct {
	forward   bool
	wantFound bool
	wantIndex int
	wantCount int
	wantState SearchState
}

func runSteps(t *testing.T, s *Search, steps []step) {
	t.Helper()
	for i, st := range steps {
		var found bool
		var err error
		if st.forward {
			found, err = s.FindNext()
		} else {
			found, err = s.FindPrev()
		}
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if found != st.wantFound {
			t.Errorf("step %d: expected found=%v, got %v", i, st.wantFound, found)
		}
		if s.MatchIndex() != st.wantIndex || s.MatchCount() != st.wantCount {
			t.Errorf("step %d: expected match (%d,%d), got (%d,%d)",
				i, st.wantIndex, st.wantCount, s.MatchIndex(), s.MatchCount())
		}
		if s.State() != st.wantState {
			t.Errorf("step %d: expected state %v, got %v", i, st.wantState, s.State())
		}
	}
}

// ============================================================================
// Stepping
// ============================================================================

func TestSearchForwardThenBack(t *testing.T) {
	s := NewSearch(line("Hello hello HELLO"), "hello", false, 0)
	if s.MatchIndex() != -1 || s.MatchCount() != 0 {
		t.Fatalf("expected no match before the first find, got (%d,%d)", s.MatchIndex(), s.MatchCount())
	}
	runSteps(t, s, []step{
		{true, true, 0, 5, Positioned},
		{true, true, 6, 5, Positioned},
		{true, true, 12, 5, Positioned},
		{true, false, 12, 5, ExhaustedForward},
		{false, true, 6, 5, Positioned},
		{false, true, 0, 5, Positioned},
		{false, false, 0, 5, ExhaustedBackward},
	})
}

func TestSearchMatchCase(t *testing.T) {
	s := NewSearch(line("Hello hello HELLO"), "hello", true, 0)
	runSteps(t, s, []step{
		{true, true, 6, 5, Positioned},
		{true, false, 6, 5, ExhaustedForward},
	})
}

func TestSearchStartPositions(t *testing.T) {
	page := line("Hello hello HELLO")
	tests := []struct {
		name    string
		start   int
		forward bool
		want    int
	}{
		{"forward from middle", 7, true, 12},
		{"backward from middle", 7, false, 6},
		{"backward from end", -1, false, 12},
		{"start past the end", 100, false, 12},
		{"match at start", 6, true, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearch(page, "hello", false, tt.start)
			var found bool
			if tt.forward {
				found, _ = s.FindNext()
			} else {
				found, _ = s.FindPrev()
			}
			if !found || s.MatchIndex() != tt.want {
				t.Errorf("expected match at %d, got found=%v index=%d", tt.want, found, s.MatchIndex())
			}
		})
	}

	s := NewSearch(page, "hello", false, -1)
	if found, _ := s.FindNext(); found {
		t.Error("expected nothing forward of the end")
	}
}

func TestSearchOverlapping(t *testing.T) {
	s := NewSearch(line("aaaa"), "aa", true, 0)
	runSteps(t, s, []step{
		{true, true, 0, 2, Positioned},
		{true, true, 2, 2, Positioned},
		{true, false, 2, 2, ExhaustedForward},
	})
}

// ============================================================================
// Matching
// ============================================================================

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		term      string
		matchCase bool
		wantIndex int
		wantCount int
	}{
		{"sharp s folds to SS", "Straße", "STRASSE", false, 0, 6},
		{"SS inside sharp s", "Straße", "ss", false, 4, 1},
		{"sharp s case-sensitive", "Straße", "Straße", true, 0, 6},
		{"greek final sigma", "ΟΔΟΣ", "οδος", false, 0, 4},
		{"composed term", "café", "café", true, 0, 4},
		{"no match", "Hello", "world", false, -1, 0},
		{"empty term", "Hello", "", false, -1, 0},
		{"term longer than page", "Hi", "Hello", false, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearch(line(tt.page), tt.term, tt.matchCase, 0)
			found, err := s.FindNext()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != (tt.wantIndex >= 0) {
				t.Fatalf("expected found=%v, got %v", tt.wantIndex >= 0, found)
			}
			if s.MatchIndex() != tt.wantIndex || s.MatchCount() != tt.wantCount {
				t.Errorf("expected match (%d,%d), got (%d,%d)",
					tt.wantIndex, tt.wantCount, s.MatchIndex(), s.MatchCount())
			}
		})
	}
}

func TestSearchPartialFoldNeverMatches(t *testing.T) {
	// "s" would only cover half of the folded "ß".
	s := NewSearch(line("ß"), "s", false, 0)
	if found, _ := s.FindNext(); found {
		t.Errorf("expected no match, got one at %d", s.MatchIndex())
	}
}

func TestSearchAcrossLines(t *testing.T) {
	tp := NewTextPage([]Char{
		char('a', 10, 100, 5),
		char('b', 15, 100, 5),
		generated('\r', 20, 100),
		generated('\n', 20, 100),
		char('c', 10, 86, 5),
	})
	s := NewSearch(tp, "b\r\nc", true, 0)
	runSteps(t, s, []step{{true, true, 1, 4, Positioned}})
}

// ============================================================================
// Closing
// ============================================================================

func TestSearchClosed(t *testing.T) {
	s := NewSearch(line("hello"), "hello", false, 0)
	if found, _ := s.FindNext(); !found {
		t.Fatal("expected a match")
	}
	s.Close()
	if s.State() != Closed {
		t.Errorf("expected Closed, got %v", s.State())
	}
	if _, err := s.FindNext(); !errors.Is(err, ErrSearchClosed) {
		t.Errorf("FindNext: expected ErrSearchClosed, got %v", err)
	}
	if _, err := s.FindPrev(); !errors.Is(err, ErrSearchClosed) {
		t.Errorf("FindPrev: expected ErrSearchClosed, got %v", err)
	}
	if s.MatchIndex() != -1 || s.MatchCount() != 0 {
		t.Errorf("expected no match after close, got (%d,%d)", s.MatchIndex(), s.MatchCount())
	}
}
