package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"search-aggregator/internal/models"
	"search-aggregator/pkg/logger"
)

// Extract collects absolute http(s) links and page metadata from raw HTML.
// It never fails: a document the parser cannot read yields empty data.
func Extract(html string) models.ExtractedPageData {
	data := models.ExtractedPageData{
		URLs:     []string{},
		Metadata: map[string]string{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("error parsing HTML content",
			zap.Error(&models.ContentExtractionError{Step: "parse", Err: err}))
		return data
	}

	// Relative links are dropped, not resolved
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http") {
			data.URLs = append(data.URLs, href)
		}
	})

	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		if name == "" {
			name = s.AttrOr("property", "")
		}
		content := s.AttrOr("content", "")
		if name != "" && content != "" {
			data.Metadata[name] = content
		}
	})

	if title := doc.Find("title").First().Text(); title != "" {
		data.Metadata["title"] = title
	}

	return data
}
