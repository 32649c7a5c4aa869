package model

import "time"

// PageStatus is the processing outcome of a single URL.
type PageStatus string

const (
	// PageStatusPending marks a page whose processing has not finished.
	PageStatusPending PageStatus = "pending"

	// PageStatusSuccess marks a page that was retrieved and extracted.
	// Soft 404 pages and pages whose summarization failed are still successes.
	PageStatusSuccess PageStatus = "success"

	// PageStatusFailed marks a page whose processing failed.
	PageStatusFailed PageStatus = "failed"
)

// PageResult represents one processed URL and the content extracted from it.
//
// A PageResult is created exactly once per processed URL and appended to the
// run's ordered result list. It is never mutated after creation.
type PageResult struct {
	// URL is the address that was dequeued and retrieved.
	URL string `json:"url"`

	// Title is the whitespace-normalized page title.
	Title string `json:"title"`

	// Text is the readable text extracted from the page.
	// For soft 404 pages it starts with a warning banner.
	Text string `json:"text"`

	// Summary is the optional synopsis produced by the summarizer.
	Summary string `json:"summary,omitempty"`

	// Status is the processing outcome.
	Status PageStatus `json:"status"`

	// Timestamp is when the result was recorded.
	Timestamp time.Time `json:"timestamp"`

	// LinksFound is the number of absolute HTTP(S) links found on the page,
	// duplicates included.
	LinksFound int `json:"links_found"`

	// Error describes the failure for failed pages.
	Error string `json:"error,omitempty"`
}

// IsSuccess reports whether the page was processed successfully.
func (p PageResult) IsSuccess() bool {
	return p.Status == PageStatusSuccess
}
