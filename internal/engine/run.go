package engine

import (
	"context"

	"github.com/nao1215/webextract/internal/model"
)

// Completion reasons recorded on a run.
const (
	ReasonQueueEmpty   = "queue empty"
	ReasonLimitReached = "limit reached"
	ReasonStopped      = "stopped"
	ReasonCancelled    = "cancelled"
)

// run is the mutable state of one crawl run. All fields are guarded by the
// owning Engine's mutex.
type run struct {
	cfg     model.CrawlConfig
	status  model.RunStatus
	reason  string
	queue   []string
	visited map[string]struct{}
	results []model.PageResult
	logs    []model.LogEntry

	// stop is closed by Stop to interrupt the inter-step delay.
	stop    chan struct{}
	stopped bool

	// cancel aborts in-flight work when the run is replaced.
	cancel context.CancelFunc

	// done is closed when the run's goroutine exits.
	done chan struct{}
}

func newRun(cfg model.CrawlConfig) *run {
	return &run{
		cfg:     cfg,
		status:  model.RunStatusIdle,
		queue:   make([]string, 0),
		visited: make(map[string]struct{}),
		results: make([]model.PageResult, 0),
		logs:    make([]model.LogEntry, 0),
		stop:    make(chan struct{}),
		cancel:  func() {},
		done:    make(chan struct{}),
	}
}

// requestStop closes the stop channel once.
func (r *run) requestStop() {
	if !r.stopped {
		r.stopped = true
		close(r.stop)
	}
}

// Snapshot is a point-in-time summary of the current run.
type Snapshot struct {
	// Config is the configuration of the run.
	Config model.CrawlConfig `json:"config"`

	// Status is the run status.
	Status model.RunStatus `json:"status"`

	// Reason explains a terminal status, such as "queue empty".
	Reason string `json:"reason,omitempty"`

	// Results is the number of page results.
	Results int `json:"results"`

	// Visited is the size of the visited set.
	Visited int `json:"visited"`

	// Queued is the number of URLs waiting in the queue.
	Queued int `json:"queued"`

	// Logs is the number of log entries.
	Logs int `json:"logs"`
}
