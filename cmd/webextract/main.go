// Package main provides the entry point for the webextract CLI.
//
// webextract retrieves web pages through a chain of fallback fetch channels,
// strips navigation and other boilerplate, and exports the readable text.
//
// Usage:
//
//	webextract crawl https://example.com/article
//	webextract crawl --mode follow --max-pages 20 https://example.com
//	webextract crawl --mode paginate --start 1 --end 5 'https://example.com/list?page='
//
// See --help for all available options.
package main

func main() {
	Execute()
}
