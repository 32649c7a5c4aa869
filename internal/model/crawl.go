package model

import (
	"fmt"
	"strings"
)

// Mode selects how a run derives the URLs it visits.
type Mode string

const (
	// ModeSingle retrieves only the seed URL.
	ModeSingle Mode = "single"

	// ModePaginate retrieves the URLs generated from the seed and an ID range.
	ModePaginate Mode = "paginate"

	// ModeFollowLinks crawls breadth-first from the seed, following links.
	ModeFollowLinks Mode = "follow"
)

// Modes lists all traversal modes in display order.
var Modes = []Mode{ModeSingle, ModePaginate, ModeFollowLinks}

// ParseMode converts a user-supplied name into a Mode.
// It accepts a few aliases so that CLI users do not have to remember the
// exact spelling.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "page":
		return ModeSingle, nil
	case "paginate", "pagination", "range":
		return ModePaginate, nil
	case "follow", "follow-links", "links", "crawl":
		return ModeFollowLinks, nil
	default:
		return "", fmt.Errorf("unknown traversal mode %q (want single, paginate or follow)", s)
	}
}

// IsValid reports whether m is one of the known modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSingle, ModePaginate, ModeFollowLinks:
		return true
	default:
		return false
	}
}

// CrawlConfig holds the settings of a single crawl run.
// The engine copies it on start, so it is immutable for the run's duration.
type CrawlConfig struct {
	// SeedURL is the start URL. In paginate mode it is the URL template.
	SeedURL string `json:"seed_url" yaml:"seedUrl"`

	// Mode is the traversal mode.
	Mode Mode `json:"mode" yaml:"mode"`

	// PageLimit bounds the number of results in follow mode.
	PageLimit int `json:"page_limit" yaml:"pageLimit"`

	// StartID is the first index of the pagination range (inclusive).
	StartID int `json:"start_id" yaml:"startId"`

	// EndID is the last index of the pagination range (inclusive).
	EndID int `json:"end_id" yaml:"endId"`
}
