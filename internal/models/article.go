// Package models defines core data structures for articles, keywords, and trend results.
package models

// Article is the standard record produced by every fetcher. Fields may be
// empty; the analyzers degrade gracefully rather than reject an article.
type Article struct {
	ID           string `json:"id,omitempty"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	Source       string `json:"source"`
	Engagement   int    `json:"engagement"`
	CommentCount int    `json:"comment_count"`
	PublishedAt  string `json:"published_at,omitempty"` // ISO-8601, empty when unknown
}

// ScoredArticle is an Article with a hotness score attached. Ranking produces
// new ScoredArticle values; the input articles are never mutated.
type ScoredArticle struct {
	Article
	HotScore float64 `json:"hot_score"`
}

// SampleArticle is the compact article reference attached to keyword results.
type SampleArticle struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// KeywordRecord is one aggregated keyword for the current run. Keyword is
// stored lower-cased (frequencies are counted case-insensitively).
type KeywordRecord struct {
	Keyword        string          `json:"keyword"`
	Frequency      int             `json:"frequency"`
	SampleArticles []SampleArticle `json:"sample_articles"`
}
