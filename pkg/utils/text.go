// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	urlRe      = regexp.MustCompile(`https?://\S+`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// StripHTML removes markup from s and returns the text content. Inputs
// without any tags are returned unchanged.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return htmlTagRe.ReplaceAllString(s, "")
	}
	return doc.Text()
}

// StripURLs removes http(s) URLs from s.
func StripURLs(s string) string {
	return urlRe.ReplaceAllString(s, "")
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// CleanContent strips markup and URLs and collapses whitespace. This is the
// shared pre-processing step before keyword extraction.
func CleanContent(s string) string {
	return CollapseWhitespace(StripURLs(StripHTML(s)))
}

// NormalizeForShingles reduces s to lower-cased alphanumeric words separated
// by single spaces, the canonical form shingled for near-duplicate detection.
func NormalizeForShingles(s string) string {
	s = StripURLs(StripHTML(s))
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.ToLower(CollapseWhitespace(s))
}
