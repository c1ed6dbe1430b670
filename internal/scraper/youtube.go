package scraper

import "context"

// scrapeYouTube is a single-pass scraper: YouTube serves full OG metadata
// to ordinary browsers, so the title and description joined together are
// the text and og:image is the thumbnail.
func (s *Service) scrapeYouTube(ctx context.Context, videoURL string) Result {
	var res Result

	doc, err := s.fetchDocument(ctx, videoURL, browserHeaders)
	if err != nil {
		s.log.WithField("url", videoURL).WithError(err).Debug("YouTube fetch failed")
		return res
	}

	title := metaProperty(doc, "og:title")
	desc := metaProperty(doc, "og:description")
	switch {
	case title != "" && desc != "":
		res.Text = title + " — " + desc
	case title != "":
		res.Text = title
	default:
		res.Text = desc
	}
	res.ThumbnailURL = metaProperty(doc, "og:image")
	return res
}
