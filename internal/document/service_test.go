package document

import "testing"

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"revenue", "revenue"},
		{"50%", `50\%`},
		{"gross_margin", `gross\_margin`},
		{`path\to`, `path\\to`},
		{"%_%", `\%\_\%`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapeLikePattern(tt.in); got != tt.want {
			t.Errorf("escapeLikePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"Q3 results (final).pdf", "Q3_results__final_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"annual-report_2025.xlsx", "annual-report_2025.xlsx"},
	}
	for _, tt := range tests {
		if got := sanitizeKey(tt.in); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
