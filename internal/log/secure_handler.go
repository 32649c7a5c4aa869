package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys contains attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,

	// Summarizer and relay credentials
	"api_key":      true,
	"apikey":       true,
	"api-key":      true,
	"key":          true,
	"token":        true,
	"access_token": true,
	"password":     true,
	"passwd":       true,
	"secret":       true,
	"credentials":  true,
}

// sensitiveKeywords mark a key as sensitive when contained in it.
// The bare "key" keyword is excluded because it matches harmless keys such
// as "monkey" or "primary_key"; exact "key" is in sensitiveKeys.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "api_key", "apikey",
}

// sensitivePatterns match values that are masked entirely regardless of key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer and basic credentials
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// OpenAI style secret keys
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{8,}$`),
}

// embeddedSecrets are redacted in place inside longer strings such as
// messages, URLs and error texts. Each pattern keeps its first group.
var embeddedSecrets = []*regexp.Regexp{
	// user:password@ in proxy and relay URLs
	regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s:]+:[^/@\s]*@`),

	// credential query parameters
	regexp.MustCompile(`(?i)([?&](?:api_key|apikey|key|token|access_token)=)[^&\s#]+`),

	// bearer tokens inside headers or error messages
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`),

	// OpenAI style secret keys inside text
	regexp.MustCompile(`()\bsk-[A-Za-z0-9_-]{8,}`),
}

// SecureHandler wraps an slog.Handler and masks secrets before records reach
// the underlying handler. Attribute values are masked entirely when their key
// or value looks sensitive; credentials embedded in URLs, messages and errors
// are redacted in place so the surrounding text stays readable.
//
// Design decision: a handler wrapper rather than a custom logger, so every
// component keeps using *slog.Logger, including tornago.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's message and attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, redactEmbedded(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the sanitized attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, redactEmbedded(s))
	case slog.KindAny:
		// Errors and Stringers often carry request URLs.
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, redactEmbedded(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	return containsSensitiveKeyword(k)
}

func containsSensitiveKeyword(key string) bool {
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// redactEmbedded replaces secrets found inside s, keeping their context.
func redactEmbedded(s string) string {
	for _, pattern := range embeddedSecrets {
		s = pattern.ReplaceAllString(s, "${1}"+MaskValue)
	}
	return s
}

// NewSecureLogger creates a text logger on w that sanitizes its output.
// The level is Debug when verbose is set and Warn otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, for log collectors.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
