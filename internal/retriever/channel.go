package retriever

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// TransformFunc maps a target URL to the URL actually requested.
type TransformFunc func(target string) string

// ExtractFunc maps a response body to the document it carries.
type ExtractFunc func(body []byte) (string, error)

// Channel is one fetch route tried by the Retriever.
type Channel struct {
	// Name identifies the channel in logs and responses.
	Name string

	// Transform builds the request URL from the target URL.
	Transform TransformFunc

	// Extract pulls the document out of the response body.
	Extract ExtractFunc

	// Client overrides the Retriever's HTTP client for this channel.
	// SOCKS5 channels use it to route through their proxy.
	Client *http.Client
}

// Template tokens understood by TemplateChannel.
const (
	// TokenURL is replaced by the query-escaped target URL.
	TokenURL = "{url}"

	// TokenRawURL is replaced by the target URL unchanged.
	TokenRawURL = "{rawurl}"
)

// Response body formats understood by TemplateChannel.
const (
	// FormatRaw means the body is the document itself.
	FormatRaw = "raw"

	// FormatJSON means the document is a string field of a JSON object.
	FormatJSON = "json"
)

// Identity returns the target URL unchanged.
func Identity(target string) string {
	return target
}

// RawBody returns the body as the document.
func RawBody(body []byte) (string, error) {
	return string(body), nil
}

// JSONField returns an ExtractFunc that reads the named string field of a
// JSON object envelope, as returned by relays such as allorigins.
func JSONField(field string) ExtractFunc {
	return func(body []byte) (string, error) {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return "", fmt.Errorf("decode relay envelope: %w", err)
		}
		raw, ok := envelope[field]
		if !ok {
			return "", fmt.Errorf("relay envelope has no %q field", field)
		}
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			return "", fmt.Errorf("relay field %q is not a string: %w", field, err)
		}
		return content, nil
	}
}

// Direct returns a channel that requests the target URL itself.
func Direct() Channel {
	return Channel{
		Name:      "direct",
		Transform: Identity,
		Extract:   RawBody,
	}
}

// TemplateChannel builds a relay channel from a URL template.
//
// The template must contain TokenURL or TokenRawURL. format is FormatRaw or
// FormatJSON; for FormatJSON, field names the envelope field holding the
// document (default "contents").
func TemplateChannel(name, template, format, field string) (Channel, error) {
	if name == "" {
		return Channel{}, fmt.Errorf("%w: missing name", ErrInvalidChannel)
	}
	if !strings.Contains(template, TokenURL) && !strings.Contains(template, TokenRawURL) {
		return Channel{}, fmt.Errorf("%w: %s: template must contain %s or %s",
			ErrInvalidChannel, name, TokenURL, TokenRawURL)
	}

	var extract ExtractFunc
	switch strings.ToLower(format) {
	case "", FormatRaw:
		extract = RawBody
	case FormatJSON:
		if field == "" {
			field = "contents"
		}
		extract = JSONField(field)
	default:
		return Channel{}, fmt.Errorf("%w: %s: unknown format %q", ErrInvalidChannel, name, format)
	}

	return Channel{
		Name: name,
		Transform: func(target string) string {
			out := strings.ReplaceAll(template, TokenURL, url.QueryEscape(target))
			return strings.ReplaceAll(out, TokenRawURL, target)
		},
		Extract: extract,
	}, nil
}

// DefaultChannels returns the built-in channel chain in priority order.
func DefaultChannels() []Channel {
	return []Channel{
		Direct(),
		mustTemplate("allorigins", "https://api.allorigins.win/get?url={url}", FormatJSON, "contents"),
		mustTemplate("corsproxy", "https://corsproxy.io/?url={url}", FormatRaw, ""),
		mustTemplate("codetabs", "https://api.codetabs.com/v1/proxy?quest={url}", FormatRaw, ""),
	}
}

func mustTemplate(name, template, format, field string) Channel {
	ch, err := TemplateChannel(name, template, format, field)
	if err != nil {
		panic(err)
	}
	return ch
}
