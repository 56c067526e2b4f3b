package models

import "testing"

func TestParseTermName(t *testing.T) {
	cases := []struct {
		term string
		want string
	}{
		{"202502", "Spring 2025"},
		{"202505", "Summer 2025"},
		{"202507", "Summer 2025"},
		{"202508", "Fall 2025"},
		{"202412", "Fall 2024"},
		{"2025", "2025"},
		{"20250x", "20250x"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ParseTermName(tc.term); got != tc.want {
			t.Errorf("ParseTermName(%q) = %q, want %q", tc.term, got, tc.want)
		}
	}
}

func TestIsSummerTerm(t *testing.T) {
	if !IsSummerTerm("202505") || !IsSummerTerm("202507") {
		t.Error("months 5-7 are summer terms")
	}
	if IsSummerTerm("202502") || IsSummerTerm("202508") || IsSummerTerm("bogus") {
		t.Error("non-summer codes must not be flagged")
	}
}
