package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webextract.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webextract",
		Short: "Extract readable text from web pages",
		Long: `webextract retrieves web pages and extracts their readable content:
title, main text and outgoing links. Navigation, ads, cookie banners and
other boilerplate are removed.

Pages are fetched directly first. When a site blocks or fails the direct
request, public relay services are tried in order. Requests can also be
routed through a SOCKS5 proxy (--socks) or an embedded Tor daemon (--tor).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log output format: text or json")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
