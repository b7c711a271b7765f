package scraper

import (
	"html"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"search-aggregator/internal/models"
	"search-aggregator/pkg/logger"
)

// NormalizeMode selects how a page is reduced before markdown conversion
type NormalizeMode int

const (
	// ModeFullDocument converts the whole document.
	ModeFullDocument NormalizeMode = iota
	// ModeReadability keeps only the main article found by readability.
	ModeReadability
)

func (m NormalizeMode) String() string {
	if m == ModeReadability {
		return "readability"
	}
	return "full"
}

// Normalizer turns HTML into markdown-like text
type Normalizer struct {
	mode      NormalizeMode
	sanitizer *bluemonday.Policy
}

func NewNormalizer(mode NormalizeMode) *Normalizer {
	return &Normalizer{
		mode:      mode,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Mode reports the reduction mode
func (n *Normalizer) Mode() NormalizeMode { return n.mode }

// Normalize returns the page title and its markdown content. An empty
// content string means nothing usable was found; callers treat that as a
// failed fetch. Title is empty when the page carries none.
func (n *Normalizer) Normalize(rawHTML, pageURL string) (title, content string) {
	if n.mode == ModeReadability {
		return n.normalizeArticle(rawHTML, pageURL)
	}

	meta := Extract(rawHTML).Metadata
	title = meta["title"]
	if title == "" {
		title = meta["og:title"]
	}
	return n.sanitizeText(title), ToMarkdown(rawHTML)
}

func (n *Normalizer) normalizeArticle(rawHTML, pageURL string) (string, string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		logger.Debug("readability found no article",
			zap.String("url", pageURL),
			zap.Error(&models.ContentExtractionError{Step: "readability", Err: err}))
		return "", ""
	}

	return n.sanitizeText(article.Title), ToMarkdown(article.Content)
}

// ToMarkdown converts an HTML document or fragment to markdown. Conversion
// failures yield an empty string.
func ToMarkdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		logger.Warn("markdown conversion failed",
			zap.Error(&models.ContentExtractionError{Step: "markdown", Err: err}))
		return ""
	}
	return CleanWhitespace(md)
}

// sanitizeText strips markup from short text such as titles
func (n *Normalizer) sanitizeText(text string) string {
	if text == "" {
		return ""
	}

	sanitized := html.UnescapeString(n.sanitizer.Sanitize(text))
	return strings.Join(strings.Fields(sanitized), " ")
}
