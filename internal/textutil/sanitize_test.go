package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "passthrough", input: "Plain Title", expected: "Plain Title"},
		{name: "slashes become dashes", input: "AC/DC: Live", expected: "AC-DC- Live"},
		{name: "unsafe removed", input: "What? <Why> \"How\"|", expected: "What Why How"},
		{name: "trimmed", input: "  padded  ", expected: "padded"},
		{name: "empty", input: "   ", expected: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFileName(tc.input); got != tc.expected {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "/downloads/some_live-set.2024.ncm", expected: "Some Live Set 2024"},
		{input: "track01.flac", expected: "Track01"},
		{input: "", expected: "Unknown Item"},
		{input: "///", expected: "Unknown Item"},
	}
	for _, tc := range cases {
		if got := DeriveTitle(tc.input); got != tc.expected {
			t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
