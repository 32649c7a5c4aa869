package tor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/tornago"
	"github.com/nao1215/webextract/internal/retriever"
)

// ChannelName is the name of the fetch channel backed by the embedded daemon.
const ChannelName = "tor"

// DefaultStartupTimeout bounds how long Start waits for the daemon to bootstrap.
const DefaultStartupTimeout = 3 * time.Minute

// EmbeddedTor manages an embedded Tor daemon using tornago.
//
// Design decision: the daemon is only a transport. Pages fetched through it
// go through the same Retriever validation as every other channel.
type EmbeddedTor struct {
	mu sync.Mutex

	// process is the running Tor daemon process.
	process *tornago.TorProcess

	// socksAddr is the SOCKS5 proxy address (set after successful startup).
	socksAddr string

	startupTimeout time.Duration
}

// Option configures an EmbeddedTor.
type Option func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(e *EmbeddedTor) {
		e.startupTimeout = timeout
	}
}

// NewEmbeddedTor creates an embedded Tor manager. Call Start to launch it.
func NewEmbeddedTor(opts ...Option) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: DefaultStartupTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon and blocks until it has bootstrapped.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.process != nil {
		return ErrAlreadyRunning
	}

	// ":0" lets the OS pick free ports.
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // best effort cleanup
		return err
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. It is safe to call on an unstarted instance
// and more than once.
func (e *EmbeddedTor) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// SocksAddr returns the daemon's SOCKS5 address, or "" when not running.
func (e *EmbeddedTor) SocksAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.socksAddr
}

// IsRunning reports whether the daemon is running.
func (e *EmbeddedTor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process != nil
}

// Channel returns a fetch channel that routes requests through the daemon.
func (e *EmbeddedTor) Channel(timeout time.Duration) (retriever.Channel, error) {
	addr := e.SocksAddr()
	if addr == "" {
		return retriever.Channel{}, ErrNotRunning
	}
	return retriever.NewSOCKSChannel(ChannelName, addr, timeout)
}
