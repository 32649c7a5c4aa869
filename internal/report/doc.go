// Package report serializes accumulated page results into export documents.
//
// Three formats are provided:
//   - TextWriter: plain text, UTF-8 with a byte order mark
//   - MarkdownWriter: a Markdown document built with nao1215/markdown
//   - JSONWriter: an indented JSON envelope for tool integration
//
// Writers implement the Writer interface and are chosen with NewWriter.
package report
