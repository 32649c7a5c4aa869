package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/webextract/internal/model"
)

// ErrUnknownFormat is returned for an unsupported export format name.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export document format.
type Format string

const (
	// FormatText is plain text encoded as UTF-8 with a byte order mark.
	FormatText Format = "text"

	// FormatMarkdown is a Markdown document.
	FormatMarkdown Format = "markdown"

	// FormatJSON is an indented JSON document.
	FormatJSON Format = "json"
)

// defaultFileLayout is the timestamp layout of default export file names.
const defaultFileLayout = "2006-01-02_150405"

// ParseFormat converts a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension for the format, without a dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// DefaultFileName returns crawl_results_<YYYY-MM-DD_HHMMSS>.<ext>.
func DefaultFileName(f Format, t time.Time) string {
	return "crawl_results_" + t.Format(defaultFileLayout) + "." + f.Extension()
}

// Writer defines the interface for export output.
// Implementations serialize accumulated page results in various formats.
type Writer interface {
	// Write outputs the results to the configured destination.
	// Returns the number of bytes of the document and any error encountered.
	Write(results []model.PageResult, generatedAt time.Time) (int, error)
}

// NewWriter returns the Writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// displayTitle returns the page title or a placeholder.
func displayTitle(r model.PageResult) string {
	if r.Title == "" {
		return "(untitled)"
	}
	return r.Title
}
