// Package retriever fetches raw document content through an ordered chain of
// fetch channels.
//
// # Channels
//
// A Channel is a relay that can satisfy a retrieval when direct access is
// refused or blocked. Each channel is defined by two functions:
//   - Transform maps the target URL to the channel-specific request URL
//   - Extract maps the raw response body to the underlying document
//
// The built-in chain (DefaultChannels) starts with a direct request and falls
// back to public relays. A SOCKS5 channel (NewSOCKSChannel) routes direct
// requests through a proxy such as Tor.
//
// # Fallback
//
// Retrieve tries channels strictly in order, bounding each attempt with its
// own timeout. An attempt fails on transport errors, non-2xx statuses, and
// content shorter than a minimum plausible length. The first good response
// wins; when every channel fails the caller receives a *RetrievalError that
// only says the site is unreachable or blocking access. Per-channel failures
// are logged, not returned.
//
// # Usage
//
//	r := retriever.New(retriever.WithLogger(logger))
//	resp, err := r.Retrieve(ctx, "https://example.com/article")
package retriever
