package utils

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "hello world", "hello world"},
		{"simple tags", "<p>hello</p>", "hello"},
		{"nested tags", "<div><b>bold</b> text</div>", "bold text"},
		{"no closing tag", "<br>line", "line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.input); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripURLs(t *testing.T) {
	got := StripURLs("see https://example.com/x?y=1 for details")
	want := "see  for details"
	if got != want {
		t.Errorf("StripURLs() = %q, want %q", got, want)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  a \t b\n\nc  ")
	if got != "a b c" {
		t.Errorf("CollapseWhitespace() = %q, want %q", got, "a b c")
	}
}

func TestNormalizeForShingles(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and strips punctuation", "GPT-5 Launches!", "gpt 5 launches"},
		{"strips html and urls", "<p>Read https://a.io now</p>", "read now"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForShingles(tt.input); got != tt.want {
				t.Errorf("NormalizeForShingles(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("ab", 3); got != "ab" {
		t.Errorf("Truncate() = %q", got)
	}
}
