package scraper

import (
	"context"
	"net/url"
	"strings"
)

type instagramOEmbed struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// scrapeInstagram runs the Instagram fallback chain:
//  1. public oEmbed endpoint: post caption plus thumbnail, no auth;
//  2. page fetch as the Facebook crawler: og:description, og:image, and
//     og:title filtered to exclude generic site-name titles;
//  3. empty result, which triggers the MCQ fallback upstream.
func (s *Service) scrapeInstagram(ctx context.Context, postURL string) Result {
	log := s.log.WithField("url", postURL)
	var res Result

	oembedURL := s.instagramOEmbedURL + "?url=" + url.QueryEscape(postURL) + "&omitscript=true"
	var oembed instagramOEmbed
	if err := s.fetchJSON(ctx, oembedURL, fbCrawlerHeaders, &oembed); err != nil {
		log.WithError(err).Debug("Instagram oEmbed failed")
	} else {
		caption := strings.TrimSpace(oembed.Title)
		if len(caption) > 5 {
			res.Text = caption
		}
		if oembed.ThumbnailURL != "" {
			res.ThumbnailURL = oembed.ThumbnailURL
		}
		if res.Text != "" {
			return res
		}
	}

	doc, err := s.fetchDocument(ctx, postURL, fbCrawlerHeaders)
	if err != nil {
		log.WithError(err).Debug("Instagram crawler fetch failed")
		return res
	}

	if desc := metaProperty(doc, "og:description"); len(desc) > 5 {
		res.Text = desc
	}
	if res.ThumbnailURL == "" {
		res.ThumbnailURL = metaProperty(doc, "og:image")
	}
	if res.Text == "" {
		// og:title is often just "Instagram" on blocked posts; only a
		// title that names something else is usable.
		if title := metaProperty(doc, "og:title"); title != "" && !strings.Contains(strings.ToLower(title), "instagram") {
			res.Text = title
		}
	}
	return res
}
