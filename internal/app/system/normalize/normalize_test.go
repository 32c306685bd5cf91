package normalize

import (
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+91 9876543210", "9876543210"},
		{"9876543210", "9876543210"},
		{"  +919876543210 ", "9876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Phone(tt.input)
			if got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSearchBlob_Variants(t *testing.T) {
	blob := SearchBlob("Ravi Kumar", "B.M. Ravi")

	for _, want := range []string{"ravi kumar", "ravikumar", "b.m. ravi", "bm ravi", "bmravi"} {
		if !strings.Contains(blob, want) {
			t.Errorf("SearchBlob missing variant %q in %q", want, blob)
		}
	}
}

func TestSearchBlob_MobileCountryCode(t *testing.T) {
	blob := SearchBlob("+91 9876543210")
	if !strings.Contains(blob, "9876543210") {
		t.Errorf("SearchBlob missing country-code-free variant in %q", blob)
	}
}

func TestSearchBlob_SkipsBlanks(t *testing.T) {
	if got := SearchBlob("", "   ", ""); got != "" {
		t.Errorf("SearchBlob of blanks = %q, want empty", got)
	}
}

func TestSearchBlob_Deduplicates(t *testing.T) {
	blob := SearchBlob("ravi", "ravi")
	if blob != "ravi" {
		t.Errorf("SearchBlob(\"ravi\", \"ravi\") = %q, want %q", blob, "ravi")
	}
}
