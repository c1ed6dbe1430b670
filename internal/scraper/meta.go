package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// metaProperty returns the content of the first <meta property="..."> tag
// matching the given property, e.g. "og:description".
func metaProperty(doc *html.Node, property string) string {
	var content string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if content != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var prop, val string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "property":
					prop = strings.ToLower(attr.Val)
				case "content":
					val = attr.Val
				}
			}
			if prop == property && val != "" {
				content = strings.TrimSpace(val)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return content
}

// metaName returns the content of the first <meta name="..."> tag, e.g.
// name="description".
func metaName(doc *html.Node, name string) string {
	var content string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if content != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var attrName, val string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "name":
					attrName = strings.ToLower(attr.Val)
				case "content":
					val = attr.Val
				}
			}
			if attrName == name && val != "" {
				content = strings.TrimSpace(val)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return content
}

// pageTitle returns the text of the <title> element.
func pageTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// chromeTags are elements stripped before collecting visible body text:
// they hold navigation and boilerplate, not content.
var chromeTags = map[string]struct{}{
	"script": {},
	"style":  {},
	"nav":    {},
	"header": {},
	"footer": {},
}

// visibleText collects the text nodes of a document, skipping page chrome,
// joined with single spaces.
func visibleText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := chromeTags[n.Data]; skip {
				return
			}
		}
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
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
