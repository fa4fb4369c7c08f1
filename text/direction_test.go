package text

import "testing"

func TestCharDirection(t *testing.T) {
	tests := []struct {
		r    rune
		want Direction
	}{
		{'A', LTR},
		{'ж', LTR},
		{'λ', LTR},
		{'中', LTR},
		{'ア', LTR},
		{'ا', RTL}, // Arabic alef
		{'א', RTL}, // Hebrew alef
		{'ܐ', RTL}, // Syriac alaph
		{'ހ', RTL}, // Thaana haa
		{'ߊ', RTL}, // N'Ko a
		{'7', Neutral},
		{'٣', Neutral}, // Arabic-Indic three
		{' ', Neutral},
		{'\r', Neutral},
		{'-', Neutral},
		{'€', Neutral},
	}
	for _, tt := range tests {
		if got := charDirection(tt.r); got != tt.want {
			t.Errorf("%U: expected %v, got %v", tt.r, tt.want, got)
		}
	}
}

func TestDetectDirection(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want Direction
	}{
		{"empty", "", Neutral},
		{"digits and spaces", "2024 - 12", Neutral},
		{"latin", "Invoice total", LTR},
		{"hebrew", "שלום", RTL},
		{"arabic with digits", "مرحبا 42", RTL},
		{"mostly latin", "Total א", LTR},
		{"mostly hebrew", "אבג x", RTL},
		{"tie goes left to right", "ab אב", LTR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDirection(tt.s); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDirectionString(t *testing.T) {
	for d, want := range map[Direction]string{LTR: "LTR", RTL: "RTL", Neutral: "Neutral", Direction(9): "Unknown"} {
		if got := d.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
