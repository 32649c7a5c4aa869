package engine

import "errors"

// Configuration errors. Start returns them before any network activity and
// leaves the engine in the error status.
var (
	// ErrNoSeed is returned when the seed URL is empty.
	ErrNoSeed = errors.New("no seed URL provided")

	// ErrEmptyRange is returned when a pagination range generates no URLs.
	ErrEmptyRange = errors.New("pagination range is empty")

	// ErrInvalidSeed is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("seed is not a valid http or https URL")

	// ErrUnknownMode is returned for an unrecognized traversal mode.
	ErrUnknownMode = errors.New("unknown traversal mode")
)

// ErrNoResults is returned by DownloadResults when nothing has been extracted.
var ErrNoResults = errors.New("no results to export")
