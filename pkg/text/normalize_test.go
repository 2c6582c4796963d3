package text

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain ascii", "moonlight sonata", "moonlight sonata"},
		{"accents stripped", "Beyoncé Café", "Beyonce Cafe"},
		{"german umlaut", "Motörhead", "Motorhead"},
		{"whitespace collapsed", "  two   words \t here ", "two words here"},
		{"fullwidth compatibility form", "ＡＢＣ", "ABC"},
		{"empty", "", ""},
		{"only whitespace", "   \t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
