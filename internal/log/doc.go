// Package log provides slog loggers that mask secrets before they are
// written.
//
// webextract logs request URLs, proxy addresses and upstream errors. Those
// can carry summarizer API keys, bearer tokens or proxy credentials, so every
// logger built here wraps its handler in SecureHandler:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("dialing proxy", "proxy", "socks5://user:pw@127.0.0.1:1080")
//	// proxy=socks5://***REDACTED***@127.0.0.1:1080
//
// Attributes with sensitive keys (authorization, api_key, token...) are
// masked entirely. Credentials inside other strings are redacted in place.
package log
