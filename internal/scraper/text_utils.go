// Package scraper provides text processing utilities for content extraction.
package scraper

import (
	"strings"
	"unicode/utf8"
)

// CleanWhitespace collapses runs of blank lines and trims the text
func CleanWhitespace(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text
	for strings.Contains(cleaned, TripleNewline) {
		cleaned = strings.ReplaceAll(cleaned, TripleNewline, DoubleNewline)
	}
	return strings.TrimSpace(cleaned)
}

// TruncateContent cuts content to limit characters and appends the
// truncation marker. A negative limit disables truncation.
func TruncateContent(content string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}

	n := 0
	for i := range content {
		if n == limit {
			return content[:i] + TruncationMarker
		}
		n++
	}
	return content
}

// ContainsAny checks if a string contains any of the substrings (case-insensitive)
func ContainsAny(s string, substrings []string) bool {
	sLower := strings.ToLower(s)
	for _, substr := range substrings {
		if strings.Contains(sLower, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

// LooksLikeCFBlock checks if HTML content is a Cloudflare challenge page
func LooksLikeCFBlock(html string) bool {
	return ContainsAny(html, CloudflarePatterns)
}
