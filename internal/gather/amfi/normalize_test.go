package amfi

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alpha Fund - Direct Plan - Growth", "Alpha Fund"},
		{"Alpha Fund - Regular Plan - IDCW", "Alpha Fund"},
		{"Alpha Fund-Growth", "Alpha Fund"},
		{"Alpha Fund - DIRECT - IDCW", "Alpha Fund"},
		{"Alpha Fund - IDCW - Direct Plan", "Alpha Fund - IDCW"},
		{"  Alpha   Fund  ", "Alpha Fund"},
		{"Alpha\tFund -   growth option", "Alpha Fund"},
		{"Direct Equity Fund", "Direct Equity Fund"},
		{"Growth Opportunities Fund - Regular", "Growth Opportunities Fund"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeName(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := NormalizeName(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeNameNonBreakingSpace(t *testing.T) {
	in := "Alpha Fund -\u00a0Direct Plan"
	got := NormalizeName(in)
	if got != "Alpha Fund" {
		t.Errorf("NormalizeName(%q) = %q, want %q", in, got, "Alpha Fund")
	}
}
