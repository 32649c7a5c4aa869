package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webextract/internal/config"
	"github.com/nao1215/webextract/internal/engine"
	securelog "github.com/nao1215/webextract/internal/log"
	"github.com/nao1215/webextract/internal/model"
	"github.com/nao1215/webextract/internal/report"
	"github.com/nao1215/webextract/internal/retriever"
	"github.com/nao1215/webextract/internal/summarizer"
	"github.com/nao1215/webextract/internal/tor"
)

// progressInterval is how often the activity log is polled for new entries.
const progressInterval = 200 * time.Millisecond

// stdoutPath makes --output write the export to standard output.
const stdoutPath = "-"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Extract readable content from one or more pages",
		Long: `Crawl retrieves pages starting from the given URL and extracts their
title, readable text and links. Results are exported when the run ends.

Modes:
  single    retrieve only the given URL (default)
  paginate  substitute {{page}} in the URL, or append the page number,
            for every number from --start to --end
  follow    breadth-first crawl following extracted links, up to --max-pages

Press Ctrl+C once to stop after the current page and export what was
collected. Press it again to abort the page in flight.

Examples:
  # Extract a single article
  webextract crawl https://example.com/article

  # Follow links and export Markdown
  webextract crawl -m follow -p 20 -f markdown https://example.com

  # Walk numbered listing pages
  webextract crawl -m paginate --start 1 --end 5 'https://example.com/list?page={{page}}'

  # Summarize each page (reads the key from $WEBEXTRACT_API_KEY)
  webextract crawl --summarize https://example.com/article

  # Route requests through Tor
  webextract crawl --tor https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Traversal flags
	cmd.Flags().StringP("mode", "m", string(config.DefaultMode),
		"Traversal mode: single, paginate or follow")
	cmd.Flags().IntP("max-pages", "p", config.DefaultPageLimit,
		"Maximum number of extracted pages in follow mode")
	cmd.Flags().Int("start", 0, "First page number in paginate mode")
	cmd.Flags().Int("end", 0, "Last page number in paginate mode")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Pause between pages")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each fetch channel attempt")
	cmd.Flags().String("user-agent", "", "User-Agent header sent with requests")
	cmd.Flags().StringP("socks", "s", "",
		"Route requests through a SOCKS5 proxy at host:port (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false, "Start an embedded Tor daemon and route requests through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Summarizer
	cmd.Flags().Bool("summarize", false,
		"Summarize each page with an OpenAI-compatible API")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webextract in current or home directory)")

	// Export flags
	cmd.Flags().StringP("format", "f", string(config.DefaultFormat),
		"Export format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "",
		"Export file path, or - for stdout (default: timestamped file in the download directory)")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger, interrupts)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and cobra flags.
// Flags override file values only when they were set explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.SeedURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	flags := cmd.Flags()

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist. Otherwise a missing file means
	// built-in defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.File.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if flags.Changed("mode") {
		raw, err := flags.GetString("mode")
		if err != nil {
			return nil, err
		}
		if cfg.Mode, err = model.ParseMode(raw); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.PageLimit, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if cfg.StartID, err = flags.GetInt("start"); err != nil {
		return nil, err
	}
	if cfg.EndID, err = flags.GetInt("end"); err != nil {
		return nil, err
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("socks") {
		if cfg.SOCKSProxy, err = flags.GetString("socks"); err != nil {
			return nil, err
		}
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.Summarize, err = flags.GetBool("summarize"); err != nil {
		return nil, err
	}
	if flags.Changed("format") {
		raw, err := flags.GetString("format")
		if err != nil {
			return nil, err
		}
		if cfg.Format, err = report.ParseFormat(raw); err != nil {
			return nil, err
		}
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	if cfg.Summarize {
		cfg.APIKey = os.Getenv(cfg.APIKeyEnv)
	}

	return cfg, nil
}

// setupLogger creates the secure structured logger selected by the global flags.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	format, err := cmd.Root().PersistentFlags().GetString("log-format")
	if err == nil && strings.EqualFold(format, "json") {
		return securelog.NewSecureJSONLogger(os.Stderr, verbose)
	}
	return securelog.NewSecureLogger(os.Stderr, verbose)
}

// runCrawl executes a crawl run and exports its results.
//
// Progress goes to stdout, or to stderr when the export itself is written to
// stdout, so that the exported document stays intact.
//
// The first value received on interrupts pauses the run after the page in
// flight; the second aborts that page.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger, interrupts <-chan os.Signal) error {
	out := stdout
	if cfg.OutputPath == stdoutPath {
		out = stderr
	}

	channels, cleanup, err := buildChannels(ctx, cfg, out, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := newEngine(cfg, channels, logger)

	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	startTime := time.Now()
	if err := eng.Start(runCtx, cfg.CrawlConfig()); err != nil {
		return fmt.Errorf("failed to start crawl: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		watchInterrupts(eng, interrupts, abort, out)
		return nil
	})
	g.Go(func() error {
		printProgress(eng, out)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := eng.Snapshot()
	fmt.Fprintf(out, "\nCrawl %s (%s) in %s: %d page(s) extracted, %d URL(s) visited\n",
		snap.Status, snap.Reason, time.Since(startTime).Round(time.Millisecond),
		snap.Results, snap.Visited)

	return exportResults(eng, cfg, stdout, out)
}

// newEngine wires the retriever, the optional summarizer and the engine.
func newEngine(cfg *config.Config, channels []retriever.Channel, logger *slog.Logger) *engine.Engine {
	retrieverOpts := []retriever.Option{
		retriever.WithChannels(channels...),
		retriever.WithAttemptTimeout(cfg.Timeout),
		retriever.WithLogger(logger),
	}
	if cfg.MaxBodySize > 0 {
		retrieverOpts = append(retrieverOpts, retriever.WithMaxBodySize(cfg.MaxBodySize))
	}
	if cfg.UserAgent != "" {
		retrieverOpts = append(retrieverOpts, retriever.WithUserAgent(cfg.UserAgent))
	}

	engineOpts := []engine.Option{
		engine.WithDelay(cfg.Delay),
		engine.WithLogger(logger),
	}
	if cfg.Summarize {
		engineOpts = append(engineOpts, engine.WithSummarizer(summarizer.New(cfg.APIKey,
			summarizer.WithBaseURL(cfg.SummarizerBaseURL),
			summarizer.WithModel(cfg.SummarizerModel),
			summarizer.WithMaxTokens(cfg.SummarizerMaxTokens),
			summarizer.WithLogger(logger),
		)))
	}

	return engine.New(retriever.New(retrieverOpts...), engineOpts...)
}

// buildChannels returns the fetch channel chain for cfg. A proxy channel, when
// configured, is tried before the file or built-in chain. The returned cleanup
// function releases the embedded Tor daemon, if one was started.
func buildChannels(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) ([]retriever.Channel, func(), error) {
	noop := func() {}

	channels, err := cfg.File.FetchChannels()
	if err != nil {
		return nil, noop, fmt.Errorf("invalid fetch channels: %w", err)
	}
	if channels == nil {
		channels = retriever.DefaultChannels()
	}

	switch {
	case cfg.SOCKSProxy != "":
		if err := retriever.CheckSOCKS(ctx, cfg.SOCKSProxy); err != nil {
			return nil, noop, fmt.Errorf("SOCKS5 proxy check failed: %w (make sure a proxy is running at %s)",
				err, cfg.SOCKSProxy)
		}
		ch, err := retriever.NewSOCKSChannel("socks", cfg.SOCKSProxy, cfg.Timeout)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("SOCKS5 proxy verified", "address", cfg.SOCKSProxy)
		return append([]retriever.Channel{ch}, channels...), noop, nil

	case cfg.UseTor:
		embeddedTor, err := startEmbeddedTor(ctx, cfg, out, logger)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		ch, err := embeddedTor.Channel(cfg.Timeout)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return append([]retriever.Channel{ch}, channels...), cleanup, nil
	}

	return channels, noop, nil
}

// startEmbeddedTor starts an embedded Tor daemon and verifies its SOCKS port.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*tor.EmbeddedTor, error) {
	fmt.Fprintln(out, "Starting embedded Tor daemon...")
	fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())

	if err := retriever.CheckSOCKS(ctx, embeddedTor.SocksAddr()); err != nil {
		_ = embeddedTor.Stop() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("embedded Tor proxy check failed: %w", err)
	}

	fmt.Fprintf(out, "Embedded Tor daemon started successfully!\n")
	fmt.Fprintf(out, "SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())
	return embeddedTor, nil
}

// watchInterrupts turns interrupts into engine commands until the run ends.
func watchInterrupts(eng *engine.Engine, interrupts <-chan os.Signal, abort context.CancelFunc, out io.Writer) {
	done := eng.Done()
	stopped := false
	for {
		select {
		case <-done:
			return
		case <-interrupts:
			if stopped {
				fmt.Fprintln(out, "Aborting the current page...")
				abort()
				return
			}
			stopped = true
			fmt.Fprintln(out, "Stopping after the current page (press Ctrl+C again to abort)...")
			eng.Stop()
		}
	}
}

// printProgress prints new activity log entries until the run ends.
func printProgress(eng *engine.Engine, out io.Writer) {
	done := eng.Done()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	printed := 0
	flush := func() {
		for _, entry := range eng.LogsSince(printed) {
			fmt.Fprintln(out, formatLogEntry(entry))
			printed++
		}
	}

	for {
		select {
		case <-done:
			flush()
			return
		case <-ticker.C:
			flush()
		}
	}
}

// formatLogEntry renders an activity log entry as one console line.
func formatLogEntry(entry model.LogEntry) string {
	marker := "  "
	switch entry.Severity {
	case model.SeveritySuccess:
		marker = "✓ "
	case model.SeverityWarning:
		marker = "! "
	case model.SeverityError:
		marker = "✗ "
	}
	return fmt.Sprintf("[%s] %s%s", entry.Timestamp.Format(time.TimeOnly), marker, entry.Message)
}

// exportResults writes the collected results to the configured destination.
// The export goes to stdout for "-"; out receives the completion notice.
func exportResults(eng *engine.Engine, cfg *config.Config, stdout, out io.Writer) error {
	if len(eng.Results()) == 0 {
		return fmt.Errorf("nothing to export: %w", engine.ErrNoResults)
	}

	path := cfg.ExportPath(time.Now())
	if path == stdoutPath {
		return eng.DownloadResults(stdout, cfg.Format)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Exports may contain page content the user fetched through a private
	// proxy, so keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := eng.DownloadResults(f, cfg.Format); err != nil {
		_ = f.Close() //nolint:errcheck // the write error is reported
		return fmt.Errorf("failed to export results: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	fmt.Fprintf(out, "Results written to %s\n", path)
	return nil
}
