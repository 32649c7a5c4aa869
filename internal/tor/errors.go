package tor

import "errors"

var (
	// ErrNotRunning is returned when a channel is requested from a daemon
	// that has not been started or has been stopped.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")

	// ErrAlreadyRunning is returned by Start on a running daemon.
	ErrAlreadyRunning = errors.New("embedded Tor daemon is already running")
)
