package retriever

import (
	"errors"
	"fmt"
)

// Retrieval errors.
var (
	// ErrUnreachable is the classification carried by every RetrievalError.
	// Channel-level causes are logged, not returned.
	ErrUnreachable = errors.New("site is unreachable or blocking access")

	// ErrNoChannels is returned when a Retriever has an empty channel chain.
	ErrNoChannels = errors.New("no fetch channels configured")

	// ErrInvalidChannel is returned when a channel definition cannot be built.
	ErrInvalidChannel = errors.New("invalid fetch channel")

	// ErrInvalidProxyAddress is returned when a SOCKS5 address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyCannotConnect is returned when the SOCKS5 proxy refuses TCP connections.
	ErrProxyCannotConnect = errors.New("cannot connect to SOCKS5 proxy")

	// ErrProxyNotSOCKS is returned when the proxy does not speak SOCKS5
	// or demands authentication.
	ErrProxyNotSOCKS = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyTimeout is returned when the SOCKS5 handshake times out.
	ErrProxyTimeout = errors.New("timeout connecting to SOCKS5 proxy")
)

// attempt-level failures, logged per channel.
var (
	errBadStatus       = errors.New("unexpected status")
	errContentTooShort = errors.New("content too short")
)

// RetrievalError is returned when every channel failed for a URL.
type RetrievalError struct {
	// URL is the target that could not be retrieved.
	URL string

	// Attempts is the number of channels tried.
	Attempts int
}

// Error implements error.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve %s: %v", e.URL, ErrUnreachable)
}

// Unwrap allows errors.Is(err, ErrUnreachable).
func (e *RetrievalError) Unwrap() error {
	return ErrUnreachable
}
