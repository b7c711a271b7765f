package scraper

import (
	"strings"
	"unicode/utf8"
)

// PageQuality summarizes how much readable text a normalized page carries
type PageQuality struct {
	Score      int     // 0-100
	Words      int
	Paragraphs int
	TextRatio  float64 // markdown runes per HTML byte
	LinkCount  int
}

// ScorePage rates markdown content against the HTML it came from.
// Fetch records the score for tracing; it never drops a page.
func ScorePage(content, rawHTML string) PageQuality {
	if content == "" {
		return PageQuality{}
	}

	q := PageQuality{
		Words:     len(strings.Fields(content)),
		LinkCount: strings.Count(content, "]("),
	}
	for _, p := range strings.Split(content, DoubleNewline) {
		if strings.TrimSpace(p) != "" {
			q.Paragraphs++
		}
	}
	if len(rawHTML) > 0 {
		q.TextRatio = float64(utf8.RuneCountInString(content)) / float64(len(rawHTML))
	}

	switch {
	case q.Words >= 500:
		q.Score += 40
	case q.Words >= 200:
		q.Score += 30
	case q.Words >= 50:
		q.Score += 15
	}

	switch {
	case q.Paragraphs >= 5:
		q.Score += 25
	case q.Paragraphs >= 2:
		q.Score += 10
	}

	switch {
	case q.TextRatio >= 0.2:
		q.Score += 20
	case q.TextRatio >= 0.05:
		q.Score += 10
	}

	// Link farms and navigation pages
	if q.Words > 0 && q.LinkCount*10 < q.Words {
		q.Score += 15
	}

	return q
}
