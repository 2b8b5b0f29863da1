package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean name unchanged", "War and Peace", "War and Peace"},
		{"invalid chars removed", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"whitespace normalized", "line\none\ttwo", "line one two"},
		{"multiple spaces collapsed", "too    many   spaces", "too many spaces"},
		{"empty becomes untitled", "", "Untitled"},
		{"only invalid chars becomes untitled", `<>:"/\|?*`, "Untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_LongNameTruncated(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := SanitizeFilename(long)
	if len(got) > 200 {
		t.Errorf("expected truncation to 200 chars, got %d", len(got))
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/library/my_great-novel.epub", "my great novel"},
		{"pride.and.prejudice.pdf", "pride and prejudice"},
		{"Simple Title.epub", "Simple Title"},
		{"/deep/path/to/book.pdf", "book"},
	}

	for _, tt := range tests {
		if got := TitleFromFilename(tt.path); got != tt.expected {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}
