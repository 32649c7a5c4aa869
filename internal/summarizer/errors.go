package summarizer

import "errors"

var (
	// ErrMissingCredentials is returned when no API key is configured.
	ErrMissingCredentials = errors.New("summarizer API key is not configured")

	// ErrUpstream is returned when the endpoint fails or returns no summary.
	ErrUpstream = errors.New("summarizer upstream failure")
)
