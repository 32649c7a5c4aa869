// Package model defines the core data structures shared by the crawl engine,
// the export writers, and the CLI.
//
// This package contains the following main types:
//   - CrawlConfig: The immutable settings of one crawl run
//   - PageResult: One processed URL with its extracted content
//   - LogEntry: One line of the run's append-only activity log
//   - RunStatus: The lifecycle state of a run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The engine, the report writers, and the CLI all need these
// types, so centralizing them prevents import cycles.
package model
