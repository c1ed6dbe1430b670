package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

type twitterOEmbed struct {
	HTML string `json:"html"`
}

var picTwitterPattern = regexp.MustCompile(`pic\.twitter\.com\S+`)

// scrapeTwitter runs the Twitter/X fallback chain:
//  1. public oEmbed endpoint: full tweet text inside an HTML fragment;
//  2. page fetch as the Facebook crawler: og:description / og:image with
//     og:title as last resort;
//  3. empty result, which triggers the MCQ fallback upstream.
func (s *Service) scrapeTwitter(ctx context.Context, tweetURL string) Result {
	log := s.log.WithField("url", tweetURL)
	var res Result

	// The oEmbed endpoint only accepts twitter.com, not x.com.
	oembedInput := strings.Replace(tweetURL, "https://x.com/", "https://twitter.com/", 1)
	oembedInput = strings.Replace(oembedInput, "http://x.com/", "https://twitter.com/", 1)

	oembedURL := s.twitterOEmbedURL + "?url=" + url.QueryEscape(oembedInput) + "&omit_script=true"
	var oembed twitterOEmbed
	if err := s.fetchJSON(ctx, oembedURL, fbCrawlerHeaders, &oembed); err != nil {
		log.WithError(err).Debug("Twitter oEmbed failed")
	} else if oembed.HTML != "" {
		if text := tweetTextFromEmbed(oembed.HTML); len(text) > 5 {
			res.Text = text
			return res
		}
	}

	doc, err := s.fetchDocument(ctx, tweetURL, fbCrawlerHeaders)
	if err != nil {
		log.WithError(err).Debug("Twitter crawler fetch failed")
		return res
	}

	if desc := metaProperty(doc, "og:description"); len(desc) > 5 {
		res.Text = desc
	}
	res.ThumbnailURL = metaProperty(doc, "og:image")
	if res.Text == "" {
		res.Text = metaProperty(doc, "og:title")
	}
	return res
}

// tweetTextFromEmbed extracts the tweet body from the oEmbed widget HTML.
// The tweet text lives in a <p> carrying a lang attribute; the attribution
// line sits outside it and is ignored. Embedded media placeholders appear
// as pic.twitter.com tokens and are stripped.
func tweetTextFromEmbed(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			for _, attr := range n.Attr {
				if strings.ToLower(attr.Key) == "lang" {
					collect(n)
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := picTwitterPattern.ReplaceAllString(buf.String(), "")
	return strings.TrimSpace(text)
}
