package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdef", 5, "abcde"},
		{"arabic runes", "نظام المعاملات", 4, "نظام"},
		{"no limit", "abc", 0, "abc"},
		{"empty", "", 3, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateText(tc.in, tc.max); got != tc.want {
				t.Errorf("TruncateText(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateText_NeverExceedsBound(t *testing.T) {
	long := strings.Repeat("المادة ", 1000)
	got := TruncateText(long, DefaultMaxCitationChars)
	if n := utf8.RuneCountInString(got); n != DefaultMaxCitationChars {
		t.Errorf("expected %d runes, got %d", DefaultMaxCitationChars, n)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
}
