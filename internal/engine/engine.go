package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/webextract/internal/extractor"
	"github.com/nao1215/webextract/internal/model"
	"github.com/nao1215/webextract/internal/report"
	"github.com/nao1215/webextract/internal/retriever"
	"github.com/nao1215/webextract/internal/summarizer"
	"github.com/nao1215/webextract/internal/urlgen"
)

// DefaultDelay is the pause between two processed URLs.
const DefaultDelay = 1 * time.Second

// Retriever fetches the document at a URL.
type Retriever interface {
	Retrieve(ctx context.Context, target string) (*retriever.Response, error)
}

// ExtractFunc turns a document into readable content.
type ExtractFunc func(document, sourceURL string) extractor.Result

// Engine runs crawls. It is safe for concurrent use; observers receive
// copies of the run state.
type Engine struct {
	retriever  Retriever
	extract    ExtractFunc
	summarizer summarizer.Summarizer
	delay      time.Duration
	now        func() time.Time
	logger     *slog.Logger

	// startMu serializes Start calls so that only one run goroutine exists.
	startMu sync.Mutex

	mu  sync.Mutex
	run *run
}

// Option configures an Engine.
type Option func(*Engine)

// WithDelay sets the delay between processed URLs.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.delay = d
	}
}

// WithSummarizer enables per-page summarization.
func WithSummarizer(s summarizer.Summarizer) Option {
	return func(e *Engine) {
		e.summarizer = s
	}
}

// WithExtractor replaces the document extractor.
func WithExtractor(fn ExtractFunc) Option {
	return func(e *Engine) {
		e.extract = fn
	}
}

// WithClock sets the time source for results and log entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger that mirrors the run's activity log.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an idle Engine that fetches pages with r.
func New(r Retriever, opts ...Option) *Engine {
	e := &Engine{
		retriever: r,
		extract:   extractor.Extract,
		delay:     DefaultDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Start begins a fresh run, replacing any previous one. A previous run that
// is still active is cancelled and awaited first.
//
// Configuration errors are returned, logged once, and leave the engine in
// the error status without touching the network.
func (e *Engine) Start(ctx context.Context, cfg model.CrawlConfig) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	e.mu.Lock()
	prev := e.run
	if prev != nil {
		prev.requestStop()
		prev.cancel()
	}
	e.mu.Unlock()
	if prev != nil {
		<-prev.done
	}

	r := newRun(cfg)
	seeds, err := seedQueue(&r.cfg)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.run = r

	if err != nil {
		r.status = model.RunStatusError
		r.reason = err.Error()
		e.logLocked(r, model.SeverityError, "Configuration error: "+err.Error())
		close(r.done)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.queue = append(r.queue, seeds...)
	r.status = model.RunStatusRunning
	e.logLocked(r, model.SeverityInfo,
		fmt.Sprintf("Starting %s crawl of %s (%d URL(s) queued)", r.cfg.Mode, r.cfg.SeedURL, len(seeds)))

	go e.loop(runCtx, r)
	return nil
}

// seedQueue validates cfg, normalizing its seed URL, and returns the
// initial queue for its mode.
func seedQueue(cfg *model.CrawlConfig) ([]string, error) {
	seed := strings.TrimSpace(cfg.SeedURL)
	if seed == "" {
		return nil, ErrNoSeed
	}
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
	if !strings.Contains(seed, "://") {
		seed = "https://" + seed
	}
	cfg.SeedURL = seed

	var seeds []string
	if cfg.Mode == model.ModePaginate {
		seeds = urlgen.Generate(seed, cfg.StartID, cfg.EndID)
		if len(seeds) == 0 {
			return nil, fmt.Errorf("%w: %d..%d", ErrEmptyRange, cfg.StartID, cfg.EndID)
		}
	} else {
		seeds = []string{seed}
	}

	if !isHTTPURL(seeds[0]) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSeed, seed)
	}
	return seeds, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Stop pauses the current run. The URL in flight, if any, is still
// recorded; no further URL is processed.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.run
	if r == nil || r.status != model.RunStatusRunning {
		return
	}
	r.status = model.RunStatusPaused
	r.reason = ReasonStopped
	r.requestStop()
	e.logLocked(r, model.SeverityWarning,
		fmt.Sprintf("Crawl paused after %d page(s)", len(r.results)))
}

// Wait blocks until the current run's goroutine has exited.
func (e *Engine) Wait() {
	<-e.Done()
}

// Done returns a channel closed when the current run's goroutine exits.
// It is already closed when no run is active.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return e.run.done
}

// DownloadResults writes the current results to w in format.
func (e *Engine) DownloadResults(w io.Writer, format report.Format) error {
	results := e.Results()
	if len(results) == 0 {
		return ErrNoResults
	}

	writer, err := report.NewWriter(format, w)
	if err != nil {
		return err
	}
	if _, err := writer.Write(results, e.now()); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run != nil {
		e.logLocked(e.run, model.SeveritySuccess,
			fmt.Sprintf("Exported %d page(s) as %s", len(results), format))
	}
	return nil
}

// Status returns the current run status.
func (e *Engine) Status() model.RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return model.RunStatusIdle
	}
	return e.run.status
}

// Logs returns a copy of the activity log.
func (e *Engine) Logs() []model.LogEntry {
	return e.LogsSince(0)
}

// LogsSince returns a copy of the log entries from index n on.
func (e *Engine) LogsSince(n int) []model.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil || n >= len(e.run.logs) {
		return []model.LogEntry{}
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.LogEntry, len(e.run.logs)-n)
	copy(out, e.run.logs[n:])
	return out
}

// Results returns a copy of the page results in visit order.
func (e *Engine) Results() []model.PageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return []model.PageResult{}
	}
	out := make([]model.PageResult, len(e.run.results))
	copy(out, e.run.results)
	return out
}

// VisitedCount returns the size of the visited set.
func (e *Engine) VisitedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return 0
	}
	return len(e.run.visited)
}

// Snapshot returns a summary of the current run.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return Snapshot{Status: model.RunStatusIdle}
	}
	r := e.run
	return Snapshot{
		Config:  r.cfg,
		Status:  r.status,
		Reason:  r.reason,
		Results: len(r.results),
		Visited: len(r.visited),
		Queued:  len(r.queue),
		Logs:    len(r.logs),
	}
}

// logLocked appends a log entry to r and mirrors it to slog.
// e.mu must be held.
func (e *Engine) logLocked(r *run, severity model.Severity, message string) {
	r.logs = append(r.logs, model.NewLogEntry(e.now(), severity, message))

	switch severity {
	case model.SeverityError:
		e.logger.Error(message)
	case model.SeverityWarning:
		e.logger.Warn(message)
	default:
		e.logger.Info(message, "severity", severity)
	}
}
