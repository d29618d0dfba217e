package keywords

import (
	"strings"
	"testing"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

func TestExtractFromArticle(t *testing.T) {
	e := NewExtractor()
	a := models.Article{
		Title: "GPT-5 Launches With Major Reasoning Improvements",
		Text:  "The model shows large gains on coding benchmarks. Major reasoning improvements were measured across every suite.",
	}
	got := e.ExtractFromArticle(a)
	if len(got) == 0 {
		t.Fatal("expected keywords, got none")
	}
	if !containsKeyword(got, "gpt 5 launches") {
		t.Errorf("keywords = %v, want phrase spanning the hyphenated title term", got)
	}
	if !containsKeyword(got, "major reasoning improvements") {
		t.Errorf("keywords = %v, want repeated title phrase", got)
	}
}

func TestExtractFromArticleEmpty(t *testing.T) {
	e := NewExtractor()
	if got := e.ExtractFromArticle(models.Article{}); len(got) != 0 {
		t.Errorf("ExtractFromArticle(empty) = %v, want none", got)
	}
}

func TestCandidatePhrasesStopwordSplit(t *testing.T) {
	e := NewExtractor()
	phrases := e.candidatePhrases("the quick brown fox jumps over the lazy dog")
	want := map[string]bool{
		"quick brown fox": true,
		"jumps":           true,
		"lazy dog":        true,
	}
	if len(phrases) != len(want) {
		t.Fatalf("phrases = %v, want %d runs", phrases, len(want))
	}
	for _, p := range phrases {
		if !want[strings.ToLower(strings.Join(p, " "))] {
			t.Errorf("unexpected phrase %v", p)
		}
	}
}

func TestCandidatePhrasesDropsLongRuns(t *testing.T) {
	e := NewExtractor()
	phrases := e.candidatePhrases("quantum error correction breakthrough announced")
	for _, p := range phrases {
		if len(p) > e.maxWords {
			t.Errorf("run %v exceeds %d words", p, e.maxWords)
		}
	}
	if len(phrases) != 0 {
		t.Errorf("phrases = %v, want five-word stopword-free run dropped entirely", phrases)
	}
}

func TestExtractMinFrequency(t *testing.T) {
	e := NewExtractor()
	articles := []models.Article{
		{Title: "Rust borrow checker", Text: "notes"},
		{Title: "Rust borrow checker", Text: "different notes entirely"},
		{Title: "Kubernetes operators", Text: "only one mention here"},
	}
	counts := e.Extract(articles, 2)
	if counts["rust borrow checker"] != 2 {
		t.Errorf("frequency = %d, want 2", counts["rust borrow checker"])
	}
	if _, ok := counts["kubernetes operators"]; ok {
		t.Error("single-mention keyword survived minFrequency=2")
	}
}

func TestExtractTitleDedupWithinArticle(t *testing.T) {
	// The title is weighted double internally; a phrase must still count
	// once per article.
	e := NewExtractor()
	counts := e.Extract([]models.Article{{Title: "Postgres logical replication"}}, 1)
	if counts["postgres logical replication"] != 1 {
		t.Errorf("frequency = %d, want 1", counts["postgres logical replication"])
	}
}

func TestTopKeywords(t *testing.T) {
	e := NewExtractor()
	articles := []models.Article{
		{URL: "https://a.example/1", Title: "Wasm runtimes compared", Source: "hackernews"},
		{URL: "https://a.example/2", Title: "Wasm runtimes compared", Source: "reddit", Text: "a second take"},
		{URL: "https://a.example/3", Title: "Alpha topic", Source: "rss"},
		{URL: "https://a.example/4", Title: "Beta topic", Source: "rss"},
	}
	records := e.TopKeywords(articles, 10, 1)
	if len(records) == 0 {
		t.Fatal("expected keyword records")
	}
	if records[0].Keyword != "wasm runtimes compared" || records[0].Frequency != 2 {
		t.Fatalf("records[0] = %+v, want most frequent keyword first", records[0])
	}
	if n := len(records[0].SampleArticles); n != 2 {
		t.Errorf("sample articles = %d, want 2", n)
	}
	if records[0].SampleArticles[0].URL != "https://a.example/1" {
		t.Errorf("samples out of input order: %+v", records[0].SampleArticles)
	}

	// Ties (frequency 1) come back alphabetically.
	var ties []string
	for _, r := range records[1:] {
		if r.Frequency == 1 {
			ties = append(ties, r.Keyword)
		}
	}
	for i := 1; i < len(ties); i++ {
		if ties[i-1] > ties[i] {
			t.Errorf("tied keywords not alphabetical: %v", ties)
		}
	}
}

func TestTopKeywordsLimit(t *testing.T) {
	e := NewExtractor()
	articles := []models.Article{
		{Title: "Alpha launch"},
		{Title: "Beta launch"},
		{Title: "Gamma launch"},
	}
	records := e.TopKeywords(articles, 2, 1)
	if len(records) != 2 {
		t.Errorf("records = %d, want capped at 2", len(records))
	}
}

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"machine learning", "Machine Learning"},
		{"AI safety", "AI Safety"},
		{"NASA budget cuts", "NASA Budget Cuts"},
		{"gpt 5", "Gpt 5"},
		{"LAUNCHED rockets", "Launched Rockets"},
	}
	for _, tt := range tests {
		if got := NormalizeKeyword(tt.in); got != tt.want {
			t.Errorf("NormalizeKeyword(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func containsKeyword(keywords []string, want string) bool {
	for _, kw := range keywords {
		if strings.EqualFold(kw, want) {
			return true
		}
	}
	return false
}
