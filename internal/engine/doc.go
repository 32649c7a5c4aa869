// Package engine drives crawl runs.
//
// An Engine owns the state of one run at a time: the FIFO queue, the visited
// set, the accumulated page results, the activity log and the run status.
// A run processes exactly one URL at a time in its own goroutine, waiting a
// fixed delay between steps. Callers interact only through the command
// methods (Start, Stop, DownloadResults, Wait) and read copies of the state
// through the observer methods.
//
// State machine:
//
//	idle -> running -> paused | completed | error
//
// A paused run is never resumed. Start always begins a fresh run.
package engine
