package langtag_test

import (
	"testing"

	"lectern/internal/langtag"
)

func TestToISO2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"DE", "de"},
		{"pt-BR", "pt"},
		{"", ""},
		{"not a language", ""},
	}
	for _, tc := range cases {
		if got := langtag.ToISO2(tc.in); got != tc.want {
			t.Fatalf("ToISO2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
