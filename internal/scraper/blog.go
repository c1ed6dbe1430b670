package scraper

import (
	"context"
	"strings"
	"unicode/utf8"
)

const bodySnippetLen = 500

// scrapeBlog handles generic articles: page title, meta description, and
// the first 500 characters of visible body text, joined with " | ".
func (s *Service) scrapeBlog(ctx context.Context, articleURL string) Result {
	var res Result

	doc, err := s.fetchDocument(ctx, articleURL, browserHeaders)
	if err != nil {
		s.log.WithField("url", articleURL).WithError(err).Debug("Blog fetch failed")
		return res
	}

	var parts []string
	if title := pageTitle(doc); title != "" {
		parts = append(parts, title)
	}
	if desc := metaName(doc, "description"); desc != "" {
		parts = append(parts, desc)
	}
	if body := visibleText(doc); body != "" {
		snippet := body
		if utf8.RuneCountInString(snippet) > bodySnippetLen {
			snippet = string([]rune(snippet)[:bodySnippetLen])
		}
		if snippet = strings.TrimSpace(snippet); snippet != "" {
			parts = append(parts, snippet)
		}
	}

	res.Text = strings.Join(parts, " | ")
	res.ThumbnailURL = metaProperty(doc, "og:image")
	return res
}
