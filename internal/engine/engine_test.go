package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/webextract/internal/model"
	"github.com/nao1215/webextract/internal/report"
	"github.com/nao1215/webextract/internal/retriever"
)

// fakeRetriever serves canned documents and records the requested URLs.
type fakeRetriever struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string

	// entered receives the URL of each call when non-nil.
	entered chan string
	// gate blocks each call until it is closed or receives, when non-nil.
	gate chan struct{}
}

func (f *fakeRetriever) Retrieve(_ context.Context, target string) (*retriever.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, target)
	page, ok := f.pages[target]
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- target
	}
	if f.gate != nil {
		<-f.gate
	}
	if !ok {
		return nil, &retriever.RetrievalError{URL: target, Attempts: 4}
	}
	return &retriever.Response{Content: page, StatusCode: 200, Channel: "fake"}, nil
}

func (f *fakeRetriever) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeSummarizer returns a fixed summary or error.
type fakeSummarizer struct {
	summary string
	err     error
}

func (f fakeSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return f.summary, f.err
}

// page builds a document with a title, a paragraph and links.
func page(title string, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>" + title + "</title></head><body><article>")
	sb.WriteString("<p>This is the body of " + title + ", long enough to pass the structured extraction threshold comfortably.</p>")
	for _, l := range links {
		sb.WriteString(`<a href="` + l + `">link</a>`)
	}
	sb.WriteString("</article></body></html>")
	return sb.String()
}

func newTestEngine(r Retriever, opts ...Option) *Engine {
	base := []Option{
		WithDelay(0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(r, append(base, opts...)...)
}

func resultURLs(results []model.PageResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}

func countSeverity(logs []model.LogEntry, severity model.Severity) int {
	n := 0
	for _, l := range logs {
		if l.Severity == severity {
			n++
		}
	}
	return n
}

// TestFollowLinks tests breadth-first link following.
func TestFollowLinks(t *testing.T) {
	t.Parallel()

	t.Run("stops at the page limit", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/a": page("A", "/b", "/c"),
			"https://x.com/b": page("B", "/d"),
			"https://x.com/c": page("C"),
			"https://x.com/d": page("D"),
		}}
		e := newTestEngine(fake)

		err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/a", Mode: model.ModeFollowLinks, PageLimit: 2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		if got, want := resultURLs(e.Results()), []string{"https://x.com/a", "https://x.com/b"}; !reflect.DeepEqual(got, want) {
			t.Errorf("expected results %v, got %v", want, got)
		}
		snap := e.Snapshot()
		if snap.Status != model.RunStatusCompleted || snap.Reason != ReasonLimitReached {
			t.Errorf("expected completed/limit reached, got %s/%s", snap.Status, snap.Reason)
		}
		if snap.Queued == 0 {
			t.Error("expected URLs left in the queue")
		}
	})

	t.Run("never records a URL twice", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/a": page("A", "/b", "/b", "/c"),
			"https://x.com/b": page("B", "/a", "/c"),
			"https://x.com/c": page("C", "/b", "/a"),
		}}
		e := newTestEngine(fake)

		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/a", Mode: model.ModeFollowLinks, PageLimit: 10,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		want := []string{"https://x.com/a", "https://x.com/b", "https://x.com/c"}
		if got := resultURLs(e.Results()); !reflect.DeepEqual(got, want) {
			t.Errorf("expected results %v, got %v", want, got)
		}
		if got := fake.Calls(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected each URL retrieved once, got %v", got)
		}
		if e.VisitedCount() != 3 {
			t.Errorf("expected 3 visited, got %d", e.VisitedCount())
		}
		if snap := e.Snapshot(); snap.Reason != ReasonQueueEmpty {
			t.Errorf("expected queue empty, got %q", snap.Reason)
		}
	})

	t.Run("records links found", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/a": page("A", "mailto:x@y.z", "/b", "https://other.org/"),
		}}
		e := newTestEngine(fake)

		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/a", Mode: model.ModeFollowLinks, PageLimit: 1,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		results := e.Results()
		if len(results) != 1 || results[0].LinksFound != 2 {
			t.Errorf("expected one result with 2 links, got %+v", results)
		}
	})
}

// TestPaginate tests pagination mode.
func TestPaginate(t *testing.T) {
	t.Parallel()

	t.Run("visits the range in order", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/news/1": page("One", "/elsewhere"),
			"https://x.com/news/2": page("Two"),
			"https://x.com/news/3": page("Three"),
		}}
		e := newTestEngine(fake)

		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/news/{{page}}", Mode: model.ModePaginate, StartID: 1, EndID: 3, PageLimit: 1,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		want := []string{"https://x.com/news/1", "https://x.com/news/2", "https://x.com/news/3"}
		if got := fake.Calls(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected visits %v, got %v", want, got)
		}
		if got := resultURLs(e.Results()); !reflect.DeepEqual(got, want) {
			t.Errorf("expected results %v, got %v", want, got)
		}
	})

	t.Run("drops pages that cannot be retrieved", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/item?id=1": page("One"),
			"https://x.com/item?id=3": page("Three"),
		}}
		e := newTestEngine(fake)

		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/item?id=", Mode: model.ModePaginate, StartID: 1, EndID: 3,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		want := []string{"https://x.com/item?id=1", "https://x.com/item?id=3"}
		if got := resultURLs(e.Results()); !reflect.DeepEqual(got, want) {
			t.Errorf("expected results %v, got %v", want, got)
		}
		if e.Status() != model.RunStatusCompleted {
			t.Errorf("expected completed, got %s", e.Status())
		}

		logs := e.Logs()
		if countSeverity(logs, model.SeverityError) != 1 {
			t.Fatalf("expected one error log, got %+v", logs)
		}
		for _, l := range logs {
			if l.Severity == model.SeverityError && !strings.Contains(l.Message, "id=2") {
				t.Errorf("expected error to name the URL, got %q", l.Message)
			}
		}
	})
}

// TestSingle tests single page mode.
func TestSingle(t *testing.T) {
	t.Parallel()

	fake := &fakeRetriever{pages: map[string]string{
		"https://x.com/p": page("Only", "/q"),
	}}
	e := newTestEngine(fake)

	if err := e.Start(context.Background(), model.CrawlConfig{SeedURL: "x.com/p", Mode: model.ModeSingle}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Wait()

	results := e.Results()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.URL != "https://x.com/p" || r.Title != "Only" || r.Status != model.PageStatusSuccess {
		t.Errorf("unexpected result %+v", r)
	}
	if !strings.Contains(r.Text, "This is the body of Only") {
		t.Errorf("expected extracted text, got %q", r.Text)
	}
	if got := fake.Calls(); len(got) != 1 {
		t.Errorf("expected links not followed, got calls %v", got)
	}
}

// TestSoft404 tests the not-found title heuristic.
func TestSoft404(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"Page Not Found", "Error 404", "NOT FOUND - Example"} {
		t.Run(title, func(t *testing.T) {
			t.Parallel()

			fake := &fakeRetriever{pages: map[string]string{"https://x.com/": page(title)}}
			e := newTestEngine(fake)
			if err := e.Start(context.Background(), model.CrawlConfig{SeedURL: "https://x.com/", Mode: model.ModeSingle}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			e.Wait()

			results := e.Results()
			if len(results) != 1 || results[0].Status != model.PageStatusSuccess {
				t.Fatalf("expected one successful result, got %+v", results)
			}
			if !strings.HasPrefix(results[0].Text, Soft404Banner+"\n\n") {
				t.Errorf("expected banner, got %q", results[0].Text)
			}
			if countSeverity(e.Logs(), model.SeverityWarning) != 1 {
				t.Errorf("expected one warning, got %+v", e.Logs())
			}
		})
	}

	t.Run("regular titles are untouched", func(t *testing.T) {
		t.Parallel()

		if isSoft404("Found it") || isSoft404("") {
			t.Error("expected regular titles not to match")
		}
	})
}

// TestSummarization tests optional summaries.
func TestSummarization(t *testing.T) {
	t.Parallel()

	t.Run("stores the summary", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{"https://x.com/": page("Home")}}
		e := newTestEngine(fake, WithSummarizer(fakeSummarizer{summary: "A home page."}))
		if err := e.Start(context.Background(), model.CrawlConfig{SeedURL: "https://x.com/", Mode: model.ModeSingle}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		if got := e.Results()[0].Summary; got != "A home page." {
			t.Errorf("expected summary, got %q", got)
		}
	})

	t.Run("failure keeps the page", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{"https://x.com/": page("Home")}}
		e := newTestEngine(fake, WithSummarizer(fakeSummarizer{err: errors.New("quota exceeded")}))
		if err := e.Start(context.Background(), model.CrawlConfig{SeedURL: "https://x.com/", Mode: model.ModeSingle}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		results := e.Results()
		if len(results) != 1 || results[0].Status != model.PageStatusSuccess || results[0].Summary != "" {
			t.Fatalf("expected unsummarized success, got %+v", results)
		}
		if countSeverity(e.Logs(), model.SeverityWarning) != 1 {
			t.Errorf("expected a warning, got %+v", e.Logs())
		}
	})
}

// TestStartConfigurationErrors tests that invalid runs never touch the network.
func TestStartConfigurationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  model.CrawlConfig
		want error
	}{
		{"empty seed", model.CrawlConfig{SeedURL: "  ", Mode: model.ModeSingle}, ErrNoSeed},
		{"inverted range", model.CrawlConfig{SeedURL: "https://x.com/{{page}}", Mode: model.ModePaginate, StartID: 5, EndID: 2}, ErrEmptyRange},
		{"negative range", model.CrawlConfig{SeedURL: "https://x.com/", Mode: model.ModePaginate, StartID: -1, EndID: 2}, ErrEmptyRange},
		{"unknown mode", model.CrawlConfig{SeedURL: "https://x.com/", Mode: "sideways"}, ErrUnknownMode},
		{"non http scheme", model.CrawlConfig{SeedURL: "ftp://x.com/", Mode: model.ModeSingle}, ErrInvalidSeed},
		{"no host", model.CrawlConfig{SeedURL: "https://", Mode: model.ModeFollowLinks}, ErrInvalidSeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeRetriever{}
			e := newTestEngine(fake)

			if err := e.Start(context.Background(), tt.cfg); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			e.Wait()

			if e.Status() != model.RunStatusError {
				t.Errorf("expected error status, got %s", e.Status())
			}
			logs := e.Logs()
			if len(logs) != 1 || logs[0].Severity != model.SeverityError {
				t.Errorf("expected a single error log, got %+v", logs)
			}
			if len(fake.Calls()) != 0 {
				t.Errorf("expected no retrieval, got %v", fake.Calls())
			}
		})
	}
}

// TestStop tests cooperative pausing.
func TestStop(t *testing.T) {
	t.Parallel()

	t.Run("in-flight page is still recorded", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{
			pages: map[string]string{
				"https://x.com/a": page("A", "/b"),
				"https://x.com/b": page("B"),
			},
			entered: make(chan string, 4),
			gate:    make(chan struct{}),
		}
		e := newTestEngine(fake)

		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/a", Mode: model.ModeFollowLinks, PageLimit: 10,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		<-fake.entered
		e.Stop()
		if e.Status() != model.RunStatusPaused {
			t.Errorf("expected paused, got %s", e.Status())
		}
		close(fake.gate)
		e.Wait()

		if got := resultURLs(e.Results()); !reflect.DeepEqual(got, []string{"https://x.com/a"}) {
			t.Errorf("expected only the in-flight page, got %v", got)
		}
		if got := fake.Calls(); len(got) != 1 {
			t.Errorf("expected no further retrieval, got %v", got)
		}
		if e.Status() != model.RunStatusPaused {
			t.Errorf("expected paused after drain, got %s", e.Status())
		}
	})

	t.Run("interrupts the delay", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/1": page("One"),
			"https://x.com/2": page("Two"),
		}}
		e := newTestEngine(fake, WithDelay(time.Hour))

		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/", Mode: model.ModePaginate, StartID: 1, EndID: 2,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		deadline := time.Now().Add(5 * time.Second)
		for len(e.Results()) == 0 {
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for the first result")
			}
			time.Sleep(5 * time.Millisecond)
		}

		e.Stop()
		select {
		case <-e.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("expected Stop to end the delay")
		}
		if len(e.Results()) != 1 {
			t.Errorf("expected 1 result, got %d", len(e.Results()))
		}
	})

	t.Run("no-op when idle", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(&fakeRetriever{})
		e.Stop()
		e.Wait()
		if e.Status() != model.RunStatusIdle {
			t.Errorf("expected idle, got %s", e.Status())
		}
	})
}

// TestCancel tests that context cancellation pauses the run.
func TestCancel(t *testing.T) {
	t.Parallel()

	fake := &fakeRetriever{
		pages:   map[string]string{"https://x.com/1": page("One"), "https://x.com/2": page("Two")},
		entered: make(chan string, 4),
		gate:    make(chan struct{}),
	}
	e := newTestEngine(fake)

	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx, model.CrawlConfig{
		SeedURL: "https://x.com/", Mode: model.ModePaginate, StartID: 1, EndID: 2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-fake.entered
	cancel()
	close(fake.gate)
	e.Wait()

	snap := e.Snapshot()
	if snap.Status != model.RunStatusPaused || snap.Reason != ReasonCancelled {
		t.Errorf("expected paused/cancelled, got %s/%s", snap.Status, snap.Reason)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("expected one retrieval, got %v", fake.Calls())
	}
}

// TestRestart tests that a new Start discards the previous run.
func TestRestart(t *testing.T) {
	t.Parallel()

	fake := &fakeRetriever{pages: map[string]string{
		"https://x.com/first":  page("First"),
		"https://x.com/second": page("Second"),
	}}
	e := newTestEngine(fake)

	for _, seed := range []string{"https://x.com/first", "https://x.com/second"} {
		if err := e.Start(context.Background(), model.CrawlConfig{SeedURL: seed, Mode: model.ModeSingle}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()
	}

	if got := resultURLs(e.Results()); !reflect.DeepEqual(got, []string{"https://x.com/second"}) {
		t.Errorf("expected only the second run, got %v", got)
	}
	if e.VisitedCount() != 1 {
		t.Errorf("expected visited set reset, got %d", e.VisitedCount())
	}
	for _, l := range e.Logs() {
		if strings.Contains(l.Message, "first") {
			t.Errorf("unexpected log from previous run: %q", l.Message)
		}
	}
}

// TestDownloadResults tests exporting through the engine.
func TestDownloadResults(t *testing.T) {
	t.Parallel()

	t.Run("text export", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRetriever{pages: map[string]string{
			"https://x.com/1": page("One"),
			"https://x.com/2": page("Two"),
		}}
		e := newTestEngine(fake)
		if err := e.Start(context.Background(), model.CrawlConfig{
			SeedURL: "https://x.com/", Mode: model.ModePaginate, StartID: 1, EndID: 2,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Wait()

		var buf bytes.Buffer
		if err := e.DownloadResults(&buf, report.FormatText); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Total Pages: 2\n") {
			t.Errorf("expected total header, got %q", buf.String())
		}
		if got := strings.Count(buf.String(), "\nURL: "); got != 2 {
			t.Errorf("expected 2 records, got %d", got)
		}
	})

	t.Run("nothing to export", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(&fakeRetriever{})
		if err := e.DownloadResults(io.Discard, report.FormatText); !errors.Is(err, ErrNoResults) {
			t.Errorf("expected ErrNoResults, got %v", err)
		}
	})
}

// TestObserversReturnCopies tests that callers cannot mutate engine state.
func TestObserversReturnCopies(t *testing.T) {
	t.Parallel()

	fake := &fakeRetriever{pages: map[string]string{"https://x.com/": page("Home")}}
	e := newTestEngine(fake)
	if err := e.Start(context.Background(), model.CrawlConfig{SeedURL: "https://x.com/", Mode: model.ModeSingle}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Wait()

	results := e.Results()
	results[0].Title = "mutated"
	logs := e.Logs()
	logs[0].Message = "mutated"

	if e.Results()[0].Title != "Home" {
		t.Error("expected results to be copied")
	}
	if e.Logs()[0].Message == "mutated" {
		t.Error("expected logs to be copied")
	}
	if got := e.LogsSince(len(e.Logs())); len(got) != 0 {
		t.Errorf("expected no new logs, got %v", got)
	}
}
