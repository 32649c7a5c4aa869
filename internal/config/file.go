package config

import (
	"fmt"
	"time"

	"github.com/nao1215/webextract/internal/model"
	"github.com/nao1215/webextract/internal/report"
	"github.com/nao1215/webextract/internal/retriever"
)

// Defaults holds run defaults from the configuration file. Zero values mean
// "not set" and leave the built-in default in place, except for Delay where
// zero is meaningful and nil means "not set".
type Defaults struct {
	Mode        string         `yaml:"mode,omitempty"`
	PageLimit   int            `yaml:"pageLimit,omitempty"`
	Delay       *time.Duration `yaml:"delay,omitempty"`
	Timeout     time.Duration  `yaml:"timeout,omitempty"`
	MaxBodySize int64          `yaml:"maxBodySize,omitempty"`
	UserAgent   string         `yaml:"userAgent,omitempty"`
	Format      string         `yaml:"format,omitempty"`
	OutputDir   string         `yaml:"outputDir,omitempty"`
	SOCKSProxy  string         `yaml:"socks,omitempty"`
}

// ChannelConfig declares one relay fetch channel.
type ChannelConfig struct {
	// Name identifies the channel in logs.
	Name string `yaml:"name"`

	// Template is the request URL with {url} or {rawurl} placeholders.
	Template string `yaml:"template"`

	// Format is "raw" (default) or "json".
	Format string `yaml:"format,omitempty"`

	// Field is the JSON field holding the document when Format is "json".
	Field string `yaml:"field,omitempty"`
}

// SummarizerConfig holds summarizer endpoint settings. The API key itself
// is never stored in the file; APIKeyEnv names the variable to read it from.
type SummarizerConfig struct {
	BaseURL   string `yaml:"baseUrl,omitempty"`
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"maxTokens,omitempty"`
	APIKeyEnv string `yaml:"apiKeyEnv,omitempty"`
}

// File represents the structure of the .webextract configuration file.
type File struct {
	// Defaults overrides built-in run defaults.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Channels replaces the built-in fetch channel chain when non-empty.
	// Channels are tried in the listed order.
	Channels []ChannelConfig `yaml:"channels,omitempty"`

	// Summarizer configures the summarization endpoint.
	Summarizer SummarizerConfig `yaml:"summarizer,omitempty"`
}

// FetchChannels builds the configured channel chain. It returns nil when
// the file declares no channels, meaning the built-in chain applies.
func (cf *File) FetchChannels() ([]retriever.Channel, error) {
	if cf == nil || len(cf.Channels) == 0 {
		return nil, nil
	}

	channels := make([]retriever.Channel, 0, len(cf.Channels))
	for i, c := range cf.Channels {
		ch, err := retriever.TemplateChannel(c.Name, c.Template, c.Format, c.Field)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i+1, err)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// Apply copies the values set in the file onto c.
func (cf *File) Apply(c *Config) error {
	if cf == nil {
		return nil
	}
	d := cf.Defaults

	if d.Mode != "" {
		mode, err := model.ParseMode(d.Mode)
		if err != nil {
			return err
		}
		c.Mode = mode
	}
	if d.PageLimit != 0 {
		c.PageLimit = d.PageLimit
	}
	if d.Delay != nil {
		c.Delay = *d.Delay
	}
	if d.Timeout != 0 {
		c.Timeout = d.Timeout
	}
	if d.MaxBodySize != 0 {
		c.MaxBodySize = d.MaxBodySize
	}
	if d.UserAgent != "" {
		c.UserAgent = d.UserAgent
	}
	if d.Format != "" {
		format, err := report.ParseFormat(d.Format)
		if err != nil {
			return err
		}
		c.Format = format
	}
	if d.OutputDir != "" {
		c.OutputDir = d.OutputDir
	}
	if d.SOCKSProxy != "" {
		c.SOCKSProxy = d.SOCKSProxy
	}

	s := cf.Summarizer
	if s.BaseURL != "" {
		c.SummarizerBaseURL = s.BaseURL
	}
	if s.Model != "" {
		c.SummarizerModel = s.Model
	}
	if s.MaxTokens != 0 {
		c.SummarizerMaxTokens = s.MaxTokens
	}
	if s.APIKeyEnv != "" {
		c.APIKeyEnv = s.APIKeyEnv
	}
	return nil
}
