package htmlutil

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// OwnText returns the first non-blank text node directly under the selection,
// ignoring the text of nested elements (labels, badges).
func OwnText(sel *goquery.Selection) string {
	for _, n := range sel.Nodes {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.TextNode {
				continue
			}
			text := Clean(child.Data)
			if text != "" {
				return text
			}
		}
	}
	return ""
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Clean strips non-printable characters, trims and collapses inner whitespace.
func Clean(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text is Clean applied to the combined text of a selection.
func Text(sel *goquery.Selection) string {
	return Clean(sel.Text())
}

// ResolveHref resolves the href of the first node in the selection against base.
func ResolveHref(base *url.URL, sel *goquery.Selection) (*url.URL, bool) {
	href, exists := sel.Attr("href")
	if !exists {
		return nil, false
	}
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, false
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return link, true
}

// QueryParam returns a query parameter of the anchor's href.
func QueryParam(base *url.URL, sel *goquery.Selection, key string) string {
	link, ok := ResolveHref(base, sel)
	if !ok {
		return ""
	}
	return link.Query().Get(key)
}
