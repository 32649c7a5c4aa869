package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/webextract/internal/model"
	"github.com/nao1215/webextract/internal/retriever"
)

// Soft404Banner is prepended to the text of pages that look like "not
// found" pages despite a successful retrieval.
const Soft404Banner = "⚠️ WARNING: This page appears to be a \"not found\" (404) page."

// loop processes r's queue one URL at a time until the run leaves the
// running status.
func (e *Engine) loop(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.cancel()

	for {
		target, ok := e.next(ctx, r)
		if !ok {
			return
		}

		e.process(ctx, r, target)

		if !e.sleep(ctx, r) {
			e.mu.Lock()
			e.haltIfCancelled(ctx, r)
			e.mu.Unlock()
			return
		}
	}
}

// next dequeues the next unvisited URL and marks it visited. It returns
// false once the run is no longer running, completing the run when the
// queue is exhausted or the page limit is reached.
func (e *Engine) next(ctx context.Context, r *run) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		if e.haltIfCancelled(ctx, r) || r.status != model.RunStatusRunning {
			return "", false
		}
		if len(r.queue) == 0 {
			e.completeLocked(r, ReasonQueueEmpty)
			return "", false
		}
		if r.cfg.Mode == model.ModeFollowLinks && r.cfg.PageLimit > 0 && len(r.results) >= r.cfg.PageLimit {
			e.completeLocked(r, ReasonLimitReached)
			return "", false
		}

		target := r.queue[0]
		r.queue = r.queue[1:]
		if _, seen := r.visited[target]; seen {
			continue
		}
		r.visited[target] = struct{}{}
		return target, true
	}
}

// process retrieves and extracts one URL and records the outcome.
func (e *Engine) process(ctx context.Context, r *run, target string) {
	e.mu.Lock()
	e.logLocked(r, model.SeverityInfo, "Fetching "+target)
	e.mu.Unlock()

	resp, err := e.retriever.Retrieve(ctx, target)
	if err != nil {
		e.mu.Lock()
		e.logLocked(r, model.SeverityError, retrievalMessage(target, err))
		e.mu.Unlock()
		return
	}

	content := e.extract(resp.Content, target)

	text := content.Text
	soft404 := isSoft404(content.Title)
	if soft404 {
		text = Soft404Banner + "\n\n" + text
	}

	var summary string
	var summaryErr error
	if e.summarizer != nil {
		summary, summaryErr = e.summarizer.Summarize(ctx, content.Text)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if soft404 {
		e.logLocked(r, model.SeverityWarning,
			fmt.Sprintf("Page may be a soft 404 (title %q): %s", content.Title, target))
	}
	if summaryErr != nil {
		summary = ""
		e.logLocked(r, model.SeverityWarning,
			fmt.Sprintf("Summarization failed for %s: %v", target, summaryErr))
	}

	r.results = append(r.results, model.PageResult{
		URL:        target,
		Title:      content.Title,
		Text:       text,
		Summary:    summary,
		Status:     model.PageStatusSuccess,
		Timestamp:  e.now(),
		LinksFound: len(content.Links),
	})
	e.logLocked(r, model.SeveritySuccess,
		fmt.Sprintf("Extracted %q (%d characters) via %s", content.Title, len(text), resp.Channel))

	if r.cfg.Mode != model.ModeFollowLinks {
		return
	}
	queued := 0
	for _, link := range content.Links {
		if _, seen := r.visited[link]; seen {
			continue
		}
		r.queue = append(r.queue, link)
		queued++
	}
	if queued > 0 {
		e.logLocked(r, model.SeverityInfo, fmt.Sprintf("Queued %d new link(s) from %s", queued, target))
	}
}

// sleep waits the inter-step delay. It returns false when the run was
// stopped or cancelled in the meantime.
func (e *Engine) sleep(ctx context.Context, r *run) bool {
	if e.delay <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-r.stop:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-r.stop:
		return false
	case <-timer.C:
		return true
	}
}

// haltIfCancelled pauses a running run whose context is done and reports
// whether the context is done. e.mu must be held.
func (e *Engine) haltIfCancelled(ctx context.Context, r *run) bool {
	if ctx.Err() == nil {
		return false
	}
	if r.status == model.RunStatusRunning {
		r.status = model.RunStatusPaused
		r.reason = ReasonCancelled
		e.logLocked(r, model.SeverityWarning, "Crawl cancelled")
	}
	return true
}

// completeLocked marks r completed. e.mu must be held.
func (e *Engine) completeLocked(r *run, reason string) {
	r.status = model.RunStatusCompleted
	r.reason = reason
	e.logLocked(r, model.SeveritySuccess,
		fmt.Sprintf("Crawl completed: %s (%d page(s) extracted)", reason, len(r.results)))
}

// retrievalMessage renders a retrieval failure for the activity log.
func retrievalMessage(target string, err error) string {
	var retrievalErr *retriever.RetrievalError
	if errors.As(err, &retrievalErr) {
		return err.Error()
	}
	return fmt.Sprintf("failed to retrieve %s: %v", target, err)
}

// isSoft404 reports whether a page title suggests a missing resource.
func isSoft404(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "404") || strings.Contains(t, "not found")
}
