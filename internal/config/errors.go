package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: sentinel errors let callers use errors.Is while the
// messages stay readable on the command line.
var (
	// ErrInvalidMode is returned for an unknown traversal mode.
	ErrInvalidMode = errors.New("invalid mode: must be single, paginate or follow")

	// ErrInvalidTimeout is returned when the per-channel timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the delay between pages is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidPageLimit is returned when follow mode has no positive page limit.
	ErrInvalidPageLimit = errors.New("invalid page limit: must be positive when following links")

	// ErrInvalidRange is returned when the pagination range is inverted or negative.
	ErrInvalidRange = errors.New("invalid range: start and end must be non-negative and start <= end")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingProxies is returned when both --socks and --tor are set.
	ErrConflictingProxies = errors.New("conflicting proxies: --socks and --tor cannot be used together")

	// ErrMissingAPIKey is returned when summarization is enabled without a key.
	ErrMissingAPIKey = errors.New("summarization enabled but no API key found in the configured environment variable")
)
