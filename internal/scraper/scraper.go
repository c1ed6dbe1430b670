package scraper

import (
	"context"

	"linkvault/internal/domain"
)

// Result is the uniform output of every platform scraper. An empty Text is
// a meaningful signal (it triggers the MCQ category fallback), not an error.
type Result struct {
	Text         string
	ThumbnailURL string
}

// Scraper fetches text and a thumbnail for a URL. Implementations never
// return an error: internal failures degrade to partial or empty results.
type Scraper interface {
	Scrape(ctx context.Context, url string, platform domain.Platform) Result
}
