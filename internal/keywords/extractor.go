// Package keywords extracts ranked candidate phrases from article content
// using RAKE-style co-occurrence scoring over stopword-delimited token runs.
package keywords

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/pkg/utils"
	"go.uber.org/zap"
)

// Defaults for phrase extraction.
const (
	DefaultMinLength   = 3  // minimum characters per keyword
	DefaultMaxWords    = 3  // maximum words per phrase
	DefaultMaxPerDoc   = 10 // phrases kept per article
	DefaultSampleLimit = 3  // sample articles attached per keyword
)

// Extractor pulls ranked keyword phrases out of articles. Construction is
// cheap; an Extractor is safe for concurrent use once built.
type Extractor struct {
	minLength int
	maxWords  int
	maxPerDoc int
	tokenizer analysis.Tokenizer
	stopWords analysis.TokenMap
	logger    *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a logger for per-article failure reporting.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithLimits overrides the phrase length and per-article keyword limits.
// Non-positive values keep the defaults.
func WithLimits(minLength, maxWords, maxPerDoc int) Option {
	return func(e *Extractor) {
		if minLength > 0 {
			e.minLength = minLength
		}
		if maxWords > 0 {
			e.maxWords = maxWords
		}
		if maxPerDoc > 0 {
			e.maxPerDoc = maxPerDoc
		}
	}
}

// NewExtractor creates an extractor with the English stopword set.
func NewExtractor(opts ...Option) *Extractor {
	stop := analysis.NewTokenMap()
	_ = stop.LoadBytes(en.EnglishStopWords)
	e := &Extractor{
		minLength: DefaultMinLength,
		maxWords:  DefaultMaxWords,
		maxPerDoc: DefaultMaxPerDoc,
		tokenizer: unicode.NewUnicodeTokenizer(),
		stopWords: stop,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFromArticle returns the ranked keyword phrases of a single article,
// normalized and de-duplicated case-insensitively in first-seen order. The
// title is weighted double relative to the body. Articles with no usable
// content return an empty list.
func (e *Extractor) ExtractFromArticle(article models.Article) []string {
	content := utils.CleanContent(article.Title + ". " + article.Title + ". " + article.Text)
	if content == "" {
		return nil
	}

	phrases := e.candidatePhrases(content)
	if len(phrases) == 0 {
		return nil
	}
	ranked := rankPhrases(phrases)

	seen := make(map[string]struct{})
	keywords := make([]string, 0, e.maxPerDoc)
	for _, phrase := range ranked {
		if len(phrase) < e.minLength {
			continue
		}
		normalized := NormalizeKeyword(phrase)
		lower := strings.ToLower(normalized)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		keywords = append(keywords, normalized)
		if len(keywords) >= e.maxPerDoc {
			break
		}
	}
	return keywords
}

// Extract aggregates keyword frequencies across articles, counting
// case-insensitively, and drops phrases mentioned fewer than minFrequency
// times. A failing article degrades to zero keywords; it never aborts the
// batch.
func (e *Extractor) Extract(articles []models.Article, minFrequency int) map[string]int {
	counts := make(map[string]int)
	for _, article := range articles {
		for _, kw := range e.ExtractFromArticle(article) {
			counts[strings.ToLower(kw)]++
		}
	}
	for kw, n := range counts {
		if n < minFrequency {
			delete(counts, kw)
		}
	}
	e.logger.Info("extracted keywords",
		zap.Int("total_keywords", len(counts)),
		zap.Int("total_articles", len(articles)))
	return counts
}

// TopKeywords returns the topN most frequent keywords with up to three
// sample articles each. Frequency ties break alphabetically so the output is
// deterministic. Sample articles are the first input-order articles whose
// title or text contains the keyword.
func (e *Extractor) TopKeywords(articles []models.Article, topN, minFrequency int) []models.KeywordRecord {
	counts := e.Extract(articles, minFrequency)

	sorted := make([]string, 0, len(counts))
	for kw := range counts {
		sorted = append(sorted, kw)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if counts[sorted[i]] != counts[sorted[j]] {
			return counts[sorted[i]] > counts[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})
	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}

	records := make([]models.KeywordRecord, 0, len(sorted))
	for _, kw := range sorted {
		records = append(records, models.KeywordRecord{
			Keyword:        kw,
			Frequency:      counts[kw],
			SampleArticles: findSampleArticles(articles, kw, DefaultSampleLimit),
		})
	}
	return records
}

// candidatePhrases splits content into sentences, then into maximal runs of
// non-stopword tokens. Runs longer than maxWords are discarded, matching the
// phrase-length bound of the ranking algorithm.
func (e *Extractor) candidatePhrases(content string) [][]string {
	var phrases [][]string
	for _, sentence := range splitSentences(content) {
		tokens := e.tokenizer.Tokenize([]byte(sentence))
		var run []string
		flush := func() {
			if n := len(run); n > 0 && n <= e.maxWords {
				phrases = append(phrases, run)
			}
			run = nil
		}
		for _, tok := range tokens {
			word := string(tok.Term)
			if e.stopWords[strings.ToLower(word)] {
				flush()
				continue
			}
			run = append(run, word)
		}
		flush()
	}
	return phrases
}

// rankPhrases scores candidate phrases by summed word degree/frequency
// ratios and returns them highest first. Equal scores keep first-seen order.
func rankPhrases(phrases [][]string) []string {
	freq := make(map[string]int)
	degree := make(map[string]int)
	for _, phrase := range phrases {
		for _, word := range phrase {
			w := strings.ToLower(word)
			freq[w]++
			degree[w] += len(phrase) - 1
		}
	}

	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, 0, len(phrases))
	for _, phrase := range phrases {
		var score float64
		for _, word := range phrase {
			w := strings.ToLower(word)
			score += float64(degree[w]+freq[w]) / float64(freq[w])
		}
		ranked = append(ranked, scored{text: strings.Join(phrase, " "), score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.text
	}
	return out
}

// splitSentences breaks content at sentence punctuation; remaining
// non-alphanumeric characters inside a sentence become spaces so that
// hyphenated terms ("GPT-5") stay in one phrase.
func splitSentences(content string) []string {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		switch r {
		case '.', '!', '?', ';', ':', '\n':
			return true
		}
		return false
	})
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		cleaned := strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == ' ' {
				return r
			}
			return ' '
		}, s)
		cleaned = strings.TrimSpace(cleaned)
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// NormalizeKeyword title-cases a phrase while preserving short all-caps
// tokens as probable acronyms (AI, ML, HTTP).
func NormalizeKeyword(keyword string) string {
	words := strings.Fields(keyword)
	for i, word := range words {
		if word == strings.ToUpper(word) && len(word) <= 5 && strings.ContainsFunc(word, isLetter) {
			continue
		}
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func isLetter(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z'
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

// findSampleArticles returns up to limit articles mentioning keyword, in
// input order. Matching runs on shingle-normalized text so that a phrase
// like "gpt 5" finds a title containing "GPT-5".
func findSampleArticles(articles []models.Article, keyword string, limit int) []models.SampleArticle {
	lower := strings.ToLower(keyword)
	samples := make([]models.SampleArticle, 0, limit)
	for _, a := range articles {
		if strings.Contains(utils.NormalizeForShingles(a.Title+" "+a.Text), lower) {
			samples = append(samples, models.SampleArticle{
				Title:  a.Title,
				URL:    a.URL,
				Source: a.Source,
			})
			if len(samples) >= limit {
				break
			}
		}
	}
	return samples
}
