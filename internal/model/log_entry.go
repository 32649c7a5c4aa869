package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies a LogEntry.
type Severity string

const (
	// SeverityInfo is used for progress messages.
	SeverityInfo Severity = "info"

	// SeveritySuccess is used when a page or a run finishes well.
	SeveritySuccess Severity = "success"

	// SeverityWarning is used for soft failures such as soft 404 pages
	// or summarization errors.
	SeverityWarning Severity = "warning"

	// SeverityError is used for retrieval failures and configuration errors.
	SeverityError Severity = "error"
)

// String returns the severity name.
func (s Severity) String() string {
	return string(s)
}

// LogEntry is one line of a run's activity log.
// The log is append-only and ordered by causality.
type LogEntry struct {
	// ID uniquely identifies the entry.
	ID string `json:"id"`

	// Timestamp is when the entry was appended.
	Timestamp time.Time `json:"timestamp"`

	// Message is the human-readable text.
	Message string `json:"message"`

	// Severity classifies the entry.
	Severity Severity `json:"severity"`
}

// NewLogEntry creates a LogEntry with a fresh ID.
func NewLogEntry(now time.Time, severity Severity, message string) LogEntry {
	return LogEntry{
		ID:        uuid.NewString(),
		Timestamp: now,
		Message:   message,
		Severity:  severity,
	}
}
