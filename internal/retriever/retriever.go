package retriever

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Defaults for a Retriever.
const (
	// DefaultAttemptTimeout bounds a single channel attempt.
	DefaultAttemptTimeout = 30 * time.Second

	// DefaultMinContentLength is the shortest response treated as a real document.
	DefaultMinContentLength = 50

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// cacheBustParam is the query parameter appended to defeat relay caches.
	cacheBustParam = "_t"
)

// Response is the document produced by a successful retrieval.
type Response struct {
	// Content is the document text, decoded to UTF-8.
	Content string

	// StatusCode is the HTTP status of the winning attempt.
	StatusCode int

	// Channel is the name of the channel that produced the content.
	Channel string
}

// Retriever fetches documents through an ordered chain of channels.
// A Retriever holds no per-request state and is safe for concurrent use.
type Retriever struct {
	client           *http.Client
	channels         []Channel
	attemptTimeout   time.Duration
	minContentLength int
	maxBodySize      int64
	userAgent        string
	now              func() time.Time
	logger           *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithChannels replaces the channel chain.
func WithChannels(channels ...Channel) Option {
	return func(r *Retriever) {
		r.channels = channels
	}
}

// WithHTTPClient sets the client used by channels without their own client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Retriever) {
		r.client = client
	}
}

// WithAttemptTimeout sets the per-channel timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		r.attemptTimeout = d
	}
}

// WithMinContentLength sets the minimum plausible document length.
func WithMinContentLength(n int) Option {
	return func(r *Retriever) {
		r.minContentLength = n
	}
}

// WithMaxBodySize sets the response body read limit.
func WithMaxBodySize(size int64) Option {
	return func(r *Retriever) {
		r.maxBodySize = size
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Retriever) {
		r.userAgent = ua
	}
}

// WithClock sets the time source used for cache-busting.
func WithClock(now func() time.Time) Option {
	return func(r *Retriever) {
		r.now = now
	}
}

// WithLogger sets the logger for per-channel diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// New creates a Retriever using DefaultChannels unless overridden.
func New(opts ...Option) *Retriever {
	r := &Retriever{
		client:           &http.Client{},
		channels:         DefaultChannels(),
		attemptTimeout:   DefaultAttemptTimeout,
		minContentLength: DefaultMinContentLength,
		maxBodySize:      DefaultMaxBodySize,
		userAgent:        DefaultUserAgent,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// ChannelNames returns the channel names in priority order.
func (r *Retriever) ChannelNames() []string {
	names := make([]string, len(r.channels))
	for i, ch := range r.channels {
		names[i] = ch.Name
	}
	return names
}

// Retrieve fetches target through the first channel that yields a plausible
// document. It returns a *RetrievalError when all channels fail.
func (r *Retriever) Retrieve(ctx context.Context, target string) (*Response, error) {
	if len(r.channels) == 0 {
		return nil, ErrNoChannels
	}

	busted := bustCache(target, r.now())

	for i, ch := range r.channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.attempt(ctx, ch, busted)
		if err != nil {
			r.logger.Warn("fetch channel failed",
				"channel", ch.Name,
				"attempt", i+1,
				"url", target,
				"error", err,
			)
			continue
		}

		r.logger.Debug("fetch channel succeeded",
			"channel", ch.Name,
			"url", target,
			"status", resp.StatusCode,
			"bytes", len(resp.Content),
		)
		return resp, nil
	}

	return nil, &RetrievalError{URL: target, Attempts: len(r.channels)}
}

// attempt performs one bounded request through ch.
func (r *Retriever) attempt(ctx context.Context, ch Channel, target string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ch.Transform(target), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	client := ch.Client
	if client == nil {
		client = r.client
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", errBadStatus, resp.StatusCode)
	}

	body, err := r.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	content, err := ch.Extract(body)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(content)) < r.minContentLength {
		return nil, fmt.Errorf("%w: %d bytes", errContentTooShort, len(content))
	}

	return &Response{
		Content:    content,
		StatusCode: resp.StatusCode,
		Channel:    ch.Name,
	}, nil
}

// readBody reads at most maxBodySize bytes and converts them to UTF-8 using
// the declared or sniffed charset.
func (r *Retriever) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, r.maxBodySize)

	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(decoded)
}

// bustCache appends a timestamp query parameter so that relays and
// intermediate caches do not serve stale copies.
func bustCache(target string, now time.Time) string {
	stamp := cacheBustParam + "=" + strconv.FormatInt(now.UnixMilli(), 10)

	u, err := url.Parse(target)
	if err != nil {
		if strings.Contains(target, "?") {
			return target + "&" + stamp
		}
		return target + "?" + stamp
	}

	if u.RawQuery == "" {
		u.RawQuery = stamp
	} else {
		u.RawQuery += "&" + stamp
	}
	return u.String()
}
