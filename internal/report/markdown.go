package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/webextract/internal/model"
)

// MarkdownWriter outputs results as a Markdown document with a summary table
// and one section per page.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the results in Markdown format.
func (w *MarkdownWriter) Write(results []model.PageResult, generatedAt time.Time) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, results, generatedAt)
	for i, r := range results {
		w.writePage(md, i+1, r)
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, results []model.PageResult, generatedAt time.Time) {
	md.H1("Crawl Results")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", generatedAt.Format(time.RFC3339)},
			{"Total Pages", strconv.Itoa(len(results))},
		},
	})
	md.PlainText("")

	if len(results) == 0 {
		md.Note("No pages were extracted.")
		return
	}

	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{strconv.Itoa(i + 1), displayTitle(r), r.URL, string(r.Status)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writePage(md *markdown.Markdown, index int, r model.PageResult) {
	md.HorizontalRule()
	md.H2(strconv.Itoa(index) + ". " + displayTitle(r))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", r.URL},
			{"Status", string(r.Status)},
			{"Retrieved", r.Timestamp.Format(time.RFC3339)},
			{"Links Found", strconv.Itoa(r.LinksFound)},
		},
	})
	md.PlainText("")
	if r.Summary != "" {
		md.Note(r.Summary)
		md.PlainText("")
	}
	md.PlainText(r.Text)
	md.PlainText("")
}
