package extractor

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minStructuredLength is the shortest structured text accepted before
// falling back to plain body text.
const minStructuredLength = 100

// Result is the readable content of one document.
type Result struct {
	// Text is the cleaned main content with light structural hints.
	Text string

	// Title is the document title, or the first h1 when there is none.
	Title string

	// Links are the absolute http(s) links in document order.
	// Duplicates are kept.
	Links []string
}

// Extract parses document and extracts its readable content. sourceURL is
// used to resolve relative links.
func Extract(document, sourceURL string) Result {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return Result{}
	}

	title := findTitle(doc)

	removeNonContent(doc)

	root := findMainCandidate(doc)
	text := renderStructured(root)
	if utf8.RuneCountInString(text) < minStructuredLength {
		body := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
		if body == nil {
			body = doc
		}
		text = renderPlain(body)
	}

	return Result{
		Text:  strings.ToValidUTF8(text, string(utf8.RuneError)),
		Title: strings.ToValidUTF8(title, string(utf8.RuneError)),
		Links: collectLinks(doc, sourceURL),
	}
}

// findTitle returns the first <title> text, else the first <h1> text.
func findTitle(doc *html.Node) string {
	for _, a := range []atom.Atom{atom.Title, atom.H1} {
		n := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == a })
		if n == nil {
			continue
		}
		if title := normalizeSpace(textContent(n)); title != "" {
			return title
		}
	}
	return ""
}

// collectLinks resolves every <a href> against sourceURL and keeps the
// http and https results.
func collectLinks(doc *html.Node, sourceURL string) []string {
	base, err := url.Parse(sourceURL)
	if err != nil {
		base = nil
	}

	links := make([]string, 0)
	walkElements(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.A {
			return true
		}
		href, ok := lookupAttr(n, "href")
		if !ok {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme == "http" || ref.Scheme == "https" {
			links = append(links, ref.String())
		}
		return true
	})
	return links
}

// findFirst returns the first element in document order matching match.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walkElements(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walkElements visits element nodes depth-first in document order. visit
// returns false to skip the node's children.
func walkElements(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, visit)
	}
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// normalizeSpace collapses all whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

// lookupAttr retrieves an attribute value and whether it is present.
func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
