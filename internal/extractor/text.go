package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// contentTokens are class or id values of common main-content containers.
var contentTokens = map[string]struct{}{
	"content":         {},
	"main-content":    {},
	"page-content":    {},
	"post":            {},
	"post-content":    {},
	"entry-content":   {},
	"article-body":    {},
	"article-content": {},
	"story-body":      {},
}

var blockElements = map[atom.Atom]struct{}{
	atom.P:          {},
	atom.Div:        {},
	atom.Section:    {},
	atom.Article:    {},
	atom.Main:       {},
	atom.Header:     {},
	atom.Blockquote: {},
	atom.Pre:        {},
	atom.Figure:     {},
	atom.Figcaption: {},
	atom.Address:    {},
	atom.Dl:         {},
	atom.Dt:         {},
	atom.Dd:         {},
	atom.Ul:         {},
	atom.Ol:         {},
	atom.Table:      {},
	atom.Tbody:      {},
	atom.Thead:      {},
	atom.Tr:         {},
	atom.Caption:    {},
	atom.Body:       {},
	atom.Details:    {},
	atom.Summary:    {},
}

var (
	spaceRun       = regexp.MustCompile(`[ \t\f\v]+`)
	spaceAfterLine = regexp.MustCompile(`\n[ \t]+`)
	spaceEndLine   = regexp.MustCompile(`[ \t]+\n`)
	blankLines     = regexp.MustCompile(`\n{3,}`)

	// A marker followed by a block child stays on the child's line.
	markerBreak = regexp.MustCompile(`(•|##)[ \t]*\n+[ \t]*`)
)

// findMainCandidate picks the single subtree that most likely holds the
// main content.
func findMainCandidate(doc *html.Node) *html.Node {
	matchers := []func(*html.Node) bool{
		func(n *html.Node) bool { return n.DataAtom == atom.Article },
		func(n *html.Node) bool {
			return n.DataAtom == atom.Main || strings.EqualFold(getAttr(n, "role"), "main")
		},
		func(n *html.Node) bool { return hasToken(n, contentTokens) },
		func(n *html.Node) bool { return n.DataAtom == atom.Body },
	}
	for _, match := range matchers {
		if n := findFirst(doc, match); n != nil {
			return n
		}
	}
	return doc
}

// renderStructured renders the text under root with hints derived from the
// enclosing elements: headings, list items, table cells and blocks.
func renderStructured(root *html.Node) string {
	return postProcess(render(root))
}

// render returns the hinted text of n. Elements without text contribute
// nothing, so empty headings and list items leave no stray markers.
func render(n *html.Node) string {
	if n.Type == html.TextNode {
		t := normalizeSpace(n.Data)
		if t == "" {
			return ""
		}
		return " " + t + " "
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Br {
		return "\n"
	}

	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(render(c))
	}
	inner := sb.String()
	if n.Type != html.ElementNode || strings.TrimSpace(inner) == "" {
		return inner
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return "\n\n## " + inner + "\n\n"
	case atom.Li:
		return "\n• " + inner
	case atom.Td, atom.Th:
		return inner + " | "
	case atom.Tr:
		return inner + "\n"
	}
	if _, ok := blockElements[n.DataAtom]; ok {
		return "\n" + inner + "\n"
	}
	return inner
}

func postProcess(s string) string {
	s = markerBreak.ReplaceAllString(s, "$1 ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceAfterLine.ReplaceAllString(s, "\n")
	s = spaceEndLine.ReplaceAllString(s, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// renderPlain renders root as plain text and returns its non-empty lines
// separated by blank lines.
func renderPlain(root *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		_, block := blockElements[n.DataAtom]
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteByte('\n')
		}
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	lines := make([]string, 0)
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}
