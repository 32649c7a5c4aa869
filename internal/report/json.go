package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/webextract/internal/model"
)

// JSONWriter outputs results in JSON format for programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// document is the JSON export envelope.
type document struct {
	GeneratedAt time.Time          `json:"generated_at"`
	TotalPages  int                `json:"total_pages"`
	Pages       []model.PageResult `json:"pages"`
}

// Write outputs the results in JSON format.
func (w *JSONWriter) Write(results []model.PageResult, generatedAt time.Time) (int, error) {
	if results == nil {
		results = []model.PageResult{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent("", w.indentString)
	}
	if err := enc.Encode(document{
		GeneratedAt: generatedAt,
		TotalPages:  len(results),
		Pages:       results,
	}); err != nil {
		return 0, fmt.Errorf("failed to encode JSON report: %w", err)
	}

	return w.output.Write(buf.Bytes())
}
