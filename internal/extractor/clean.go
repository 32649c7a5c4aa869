package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// removedElements never carry readable content.
var removedElements = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Noscript: {},
	atom.Iframe:   {},
	atom.Svg:      {},
	atom.Canvas:   {},
	atom.Template: {},
	atom.Nav:      {},
	atom.Footer:   {},
	atom.Aside:    {},
	atom.Form:     {},
	atom.Button:   {},
	atom.Select:   {},
	atom.Input:    {},
	atom.Textarea: {},
	atom.Object:   {},
	atom.Embed:    {},
	atom.Dialog:   {},
}

// removedRoles are ARIA landmarks that hold site chrome.
var removedRoles = map[string]struct{}{
	"navigation":    {},
	"banner":        {},
	"contentinfo":   {},
	"complementary": {},
	"search":        {},
}

// removedTokens are class or id values that mark ads, cookie banners,
// comment sections, share widgets and popups. Matched as whole tokens only.
var removedTokens = map[string]struct{}{
	"ad":              {},
	"ads":             {},
	"advert":          {},
	"advertisement":   {},
	"sponsored":       {},
	"cookie":          {},
	"cookies":         {},
	"cookie-banner":   {},
	"cookie-consent":  {},
	"gdpr":            {},
	"comments":        {},
	"comment-section": {},
	"disqus_thread":   {},
	"share":           {},
	"share-buttons":   {},
	"social-share":    {},
	"sharing":         {},
	"popup":           {},
	"modal":           {},
	"newsletter":      {},
	"sidebar":         {},
	"breadcrumb":      {},
	"breadcrumbs":     {},
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// removeNonContent detaches every subtree matched by isNonContent.
func removeNonContent(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && isNonContent(c)) {
			n.RemoveChild(c)
		} else {
			removeNonContent(c)
		}
		c = next
	}
}

func isNonContent(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Html, atom.Head, atom.Body:
		return false
	}
	if _, ok := removedElements[n.DataAtom]; ok {
		return true
	}
	if _, ok := lookupAttr(n, "hidden"); ok {
		return true
	}
	if strings.EqualFold(getAttr(n, "aria-hidden"), "true") {
		return true
	}
	if _, ok := removedRoles[strings.ToLower(getAttr(n, "role"))]; ok {
		return true
	}
	if hasHiddenStyle(n) {
		return true
	}
	return hasToken(n, removedTokens)
}

func hasHiddenStyle(n *html.Node) bool {
	style := getAttr(n, "style")
	if style == "" {
		return false
	}
	for _, pat := range hiddenStylePatterns {
		if pat.MatchString(style) {
			return true
		}
	}
	return false
}

// hasToken reports whether the node's id or any class token is in tokens.
func hasToken(n *html.Node, tokens map[string]struct{}) bool {
	if _, ok := tokens[strings.ToLower(getAttr(n, "id"))]; ok {
		return true
	}
	for _, class := range strings.Fields(getAttr(n, "class")) {
		if _, ok := tokens[strings.ToLower(class)]; ok {
			return true
		}
	}
	return false
}
