package htmlutil

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the concatenated text of every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

func removeNonPrintable(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}

// NormalizeText collapses all runs of whitespace into a single space and
// trims the ends.
func NormalizeText(s string) string {
	return removeNonPrintable(strings.Join(strings.Fields(s), " "))
}

// Text returns the normalized text of the first node in sel, or "" when
// sel is empty.
func Text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return NormalizeText(GetText(sel.Nodes[0]))
}

type Anchor struct {
	Name string
	Url  *url.URL
}

// GetAnchor resolves the href of the first node in sel against base.
// ok is false when there is no node, no href or the href does not parse.
func GetAnchor(base *url.URL, sel *goquery.Selection) (Anchor, bool) {
	if sel.Length() == 0 {
		return Anchor{}, false
	}
	href, exists := sel.First().Attr("href")
	if !exists {
		return Anchor{}, false
	}
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Anchor{}, false
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return Anchor{
		Name: Text(sel),
		Url:  link,
	}, true
}

// GetAnchors is GetAnchor for every node in sel, unusable anchors are skipped.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	sel.Each(func(_ int, s *goquery.Selection) {
		anchor, ok := GetAnchor(base, s)
		if ok {
			anchors = append(anchors, anchor)
		}
	})
	return anchors
}
