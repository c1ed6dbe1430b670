// Package urlx turns free-form chat text into canonical URLs: it pulls the
// first link out of a message, normalizes it into the uniqueness key used
// for duplicate detection, and classifies it into a platform tag.
package urlx

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"linkvault/internal/domain"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// trackingParams are query parameters stripped during normalization. They
// carry analytics noise, not identity: two shares of the same post differ
// only in these.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"mc_eid":       {},
	"ref":          {},
	"igsh":         {},
	"igshid":       {},
	"s":  {}, // Twitter/X share param
	"si": {}, // Twitter/X share param
}

// Extract returns the first URL found in message text, or "" when the
// message contains none. Absence of a match is not an error; it just means
// the message is not a link submission.
func Extract(text string) string {
	return urlPattern.FindString(text)
}

// Normalize canonicalizes a URL for duplicate detection: lowercases scheme
// and host, strips a trailing slash, removes tracking query parameters,
// sorts the remaining parameters, and drops the fragment. It is pure and
// never fails; malformed input comes back trimmed but otherwise unchanged.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	path := strings.TrimSuffix(parsed.Path, "/")
	if path == "" {
		path = "/"
	}
	parsed.Path = path

	// Keep only non-tracking params, sorted for a deterministic key.
	kept := url.Values{}
	for key, vals := range parsed.Query() {
		if _, strip := trackingParams[strings.ToLower(key)]; strip {
			continue
		}
		for _, v := range vals {
			kept.Add(key, v)
		}
	}
	keys := make([]string, 0, len(kept))
	for k := range kept {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var query strings.Builder
	for _, k := range keys {
		vals := kept[k]
		sort.Strings(vals)
		for _, v := range vals {
			if query.Len() > 0 {
				query.WriteByte('&')
			}
			query.WriteString(url.QueryEscape(k))
			query.WriteByte('=')
			query.WriteString(url.QueryEscape(v))
		}
	}
	parsed.RawQuery = query.String()
	parsed.Fragment = ""

	return parsed.String()
}

// DetectPlatform classifies a URL by host, first match wins. Any http(s)
// URL that is not a known social platform counts as a generic blog; anything
// not URL-shaped yields PlatformUnknown and is refused upstream.
func DetectPlatform(rawURL string) domain.Platform {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return domain.PlatformUnknown
	}

	parsed, err := url.Parse(lower)
	if err != nil {
		return domain.PlatformUnknown
	}
	host := parsed.Hostname()

	switch {
	case hostIs(host, "instagram.com") || hostIs(host, "instagr.am"):
		return domain.PlatformInstagram
	case hostIs(host, "twitter.com") || hostIs(host, "x.com"):
		return domain.PlatformTwitter
	case hostIs(host, "youtube.com") || hostIs(host, "youtu.be"):
		return domain.PlatformYouTube
	}
	return domain.PlatformBlog
}

func hostIs(host, domainName string) bool {
	return host == domainName || strings.HasSuffix(host, "."+domainName)
}
