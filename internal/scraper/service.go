package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"linkvault/internal/domain"
)

const httpTimeout = 12 * time.Second

// Instagram and Facebook are the same company. Instagram must serve OG
// metadata to Facebook's own crawler so that WhatsApp and Facebook link
// previews work on every post; Twitter does the same. Presenting this
// identity gets us full metadata on pages that block ordinary browsers.
var fbCrawlerHeaders = map[string]string{
	"User-Agent":      "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uagent.php)",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
}

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
}

// Service routes a URL to its platform scraper. All scrapers share one HTTP
// client with a bounded timeout; redirects are followed by default.
type Service struct {
	client *http.Client
	log    logrus.FieldLogger

	// oEmbed endpoints, overridable in tests.
	instagramOEmbedURL string
	twitterOEmbedURL   string
}

// NewService creates the scraper service.
func NewService(logger logrus.FieldLogger) *Service {
	return &Service{
		client:             &http.Client{Timeout: httpTimeout},
		log:                logger.WithField("component", "scraper"),
		instagramOEmbedURL: "https://api.instagram.com/oembed/",
		twitterOEmbedURL:   "https://publish.twitter.com/oembed",
	}
}

// Scrape dispatches to the per-platform strategy. A failure in one call
// never affects another; the worst case is an empty Result.
func (s *Service) Scrape(ctx context.Context, url string, platform domain.Platform) Result {
	log := s.log.WithFields(logrus.Fields{"url": url, "platform": platform})

	var res Result
	switch platform {
	case domain.PlatformInstagram:
		res = s.scrapeInstagram(ctx, url)
	case domain.PlatformTwitter:
		res = s.scrapeTwitter(ctx, url)
	case domain.PlatformYouTube:
		res = s.scrapeYouTube(ctx, url)
	case domain.PlatformBlog:
		res = s.scrapeBlog(ctx, url)
	default:
		return Result{}
	}

	log.WithFields(logrus.Fields{
		"text_len":  len(res.Text),
		"has_thumb": res.ThumbnailURL != "",
	}).Info("Scrape finished")
	return res
}

// fetchDocument GETs a page and parses it as HTML. Non-200 responses are
// reported as errors so callers fall through to their next strategy.
func (s *Service) fetchDocument(ctx context.Context, url string, headers map[string]string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// fetchJSON GETs a URL and decodes the JSON body into target.
func (s *Service) fetchJSON(ctx context.Context, url string, headers map[string]string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}
