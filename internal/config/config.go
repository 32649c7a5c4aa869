package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/webextract/internal/model"
	"github.com/nao1215/webextract/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "webextract"

	// DefaultMode retrieves just the seed URL.
	DefaultMode = model.ModeSingle

	// DefaultPageLimit bounds follow mode runs.
	DefaultPageLimit = 10

	// DefaultDelay is the pause between processed pages. Public relays
	// throttle aggressive clients, so one second is the floor we recommend.
	DefaultDelay = 1 * time.Second

	// DefaultTimeout bounds each fetch channel attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultFormat is the export format.
	DefaultFormat = report.FormatText

	// DefaultAPIKeyEnv names the environment variable holding the summarizer key.
	DefaultAPIKeyEnv = "WEBEXTRACT_API_KEY"

	// DefaultSummarizerBaseURL is the OpenAI-compatible API base URL.
	DefaultSummarizerBaseURL = "https://api.openai.com/v1"

	// DefaultSummarizerModel is the chat model used for summaries.
	DefaultSummarizerModel = "gpt-4o-mini"

	// DefaultSummarizerMaxTokens bounds summary length.
	DefaultSummarizerMaxTokens = 300
)

// Config holds all configuration options for a webextract run.
//
// Design decision: a single flat struct, populated from the config file and
// then from CLI flags, passed through the application explicitly.
type Config struct {
	// SeedURL is the start URL, or the URL template in paginate mode.
	SeedURL string

	// Mode is the traversal mode.
	Mode model.Mode

	// PageLimit bounds the number of results in follow mode.
	PageLimit int

	// StartID and EndID are the inclusive pagination range.
	StartID int
	EndID   int

	// Delay is the pause between processed pages.
	Delay time.Duration

	// Timeout bounds each fetch channel attempt.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// UserAgent overrides the User-Agent header when set.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// File is the loaded configuration file. Never nil after loading.
	File *File

	// SOCKSProxy routes requests through a SOCKS5 proxy at host:port.
	SOCKSProxy string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Summarize enables per-page summaries.
	Summarize bool

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string

	// APIKey is the summarizer API key, resolved from APIKeyEnv.
	APIKey string

	// SummarizerBaseURL is the OpenAI-compatible API base URL.
	SummarizerBaseURL string

	// SummarizerModel is the chat model name.
	SummarizerModel string

	// SummarizerMaxTokens bounds summary length.
	SummarizerMaxTokens int

	// Format is the export format.
	Format report.Format

	// OutputPath is the explicit export file path. Empty means a
	// timestamped file in OutputDir.
	OutputPath string

	// OutputDir is the directory for timestamped export files.
	OutputDir string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Mode:                DefaultMode,
		PageLimit:           DefaultPageLimit,
		Delay:               DefaultDelay,
		Timeout:             DefaultTimeout,
		MaxBodySize:         DefaultMaxBodySize,
		TorStartupTimeout:   DefaultTorStartupTimeout,
		APIKeyEnv:           DefaultAPIKeyEnv,
		SummarizerBaseURL:   DefaultSummarizerBaseURL,
		SummarizerModel:     DefaultSummarizerModel,
		SummarizerMaxTokens: DefaultSummarizerMaxTokens,
		Format:              DefaultFormat,
		OutputDir:           XDGDownloadDir(),
		File:                &File{},
	}
}

// XDGConfigDir returns the XDG config directory for webextract.
// On Linux: ~/.config/webextract
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGDownloadDir returns the user's download directory, where exports are
// written by default.
func XDGDownloadDir() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return "."
}

// CrawlConfig returns the engine configuration of the run.
func (c *Config) CrawlConfig() model.CrawlConfig {
	return model.CrawlConfig{
		SeedURL:   c.SeedURL,
		Mode:      c.Mode,
		PageLimit: c.PageLimit,
		StartID:   c.StartID,
		EndID:     c.EndID,
	}
}

// ExportPath returns the file the export is written to.
func (c *Config) ExportPath(now time.Time) string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return filepath.Join(c.OutputDir, report.DefaultFileName(c.Format, now))
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if !c.Mode.IsValid() {
		return ErrInvalidMode
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Mode == model.ModeFollowLinks && c.PageLimit <= 0 {
		return ErrInvalidPageLimit
	}
	if c.Mode == model.ModePaginate && (c.StartID < 0 || c.EndID < 0 || c.StartID > c.EndID) {
		return ErrInvalidRange
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.SOCKSProxy != "" && c.UseTor {
		return ErrConflictingProxies
	}
	if c.Summarize && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
