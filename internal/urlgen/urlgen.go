package urlgen

import (
	"strconv"
	"strings"
)

// Placeholder is the token replaced by the page index.
// For example "https://example.com/news/{{page}}" with the range 1..3 yields
// ".../news/1", ".../news/2" and ".../news/3".
const Placeholder = "{{page}}"

// Generate returns end-start+1 URLs in ascending index order.
//
// If base contains Placeholder, every occurrence is replaced by the index.
// Otherwise the index is appended to base, inserting a "/" unless base
// already ends in "=" or "/".
//
// The result is nil when the range is invalid (negative bounds or
// start > end). Callers treat an empty result as a configuration error.
func Generate(base string, start, end int) []string {
	if start < 0 || end < 0 || start > end {
		return nil
	}

	urls := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		urls = append(urls, build(base, i))
	}
	return urls
}

// build produces the URL for a single index.
func build(base string, index int) string {
	id := strconv.Itoa(index)
	if strings.Contains(base, Placeholder) {
		return strings.ReplaceAll(base, Placeholder, id)
	}
	if strings.HasSuffix(base, "=") || strings.HasSuffix(base, "/") {
		return base + id
	}
	return base + "/" + id
}
