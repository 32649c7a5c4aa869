// Package summarizer produces short synopses of extracted page text through
// an OpenAI-compatible chat completions endpoint.
package summarizer
