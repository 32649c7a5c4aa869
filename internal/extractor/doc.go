// Package extractor turns an HTML document into readable text, a title, and
// the absolute links it contains.
//
// Extraction is a pure function of its inputs. Malformed markup degrades to
// whatever the HTML5 parser recovers; Extract never returns an error.
package extractor
