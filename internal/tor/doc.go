// Package tor runs an embedded Tor daemon and exposes it as a fetch channel.
//
// The daemon is managed by tornago, so no system Tor installation is needed.
// Once started, EmbeddedTor.Channel returns a SOCKS5 retriever channel that
// routes page requests through the Tor network. Startup takes one to three
// minutes while the daemon bootstraps its circuits.
package tor
