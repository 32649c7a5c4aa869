package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/nao1215/webextract/internal/model"
)

const (
	recordSeparator  = "================================================================================"
	contentSeparator = "--------------------------------------------------------------------------------"
)

// TextWriter outputs a plain text document encoded as UTF-8 with a leading
// byte order mark, so that naive text viewers detect the encoding.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the header followed by one record per result.
func (w *TextWriter) Write(results []model.PageResult, generatedAt time.Time) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generated: %s\n", generatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Total Pages: %d\n\n", len(results))

	for _, r := range results {
		sb.WriteString(recordSeparator + "\n")
		fmt.Fprintf(&sb, "URL: %s\n", r.URL)
		fmt.Fprintf(&sb, "Title: %s\n", displayTitle(r))
		fmt.Fprintf(&sb, "Status: %s\n", r.Status)
		if r.Summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", r.Summary)
		}
		sb.WriteString(contentSeparator + "\n")
		sb.WriteString(r.Text)
		sb.WriteString("\n" + recordSeparator + "\n\n")
	}

	tw := transform.NewWriter(w.output, unicode.UTF8BOM.NewEncoder())
	n, err := io.WriteString(tw, sb.String())
	if err != nil {
		return n, fmt.Errorf("failed to write text report: %w", err)
	}
	if err := tw.Close(); err != nil {
		return n, fmt.Errorf("failed to flush text report: %w", err)
	}
	return n, nil
}
