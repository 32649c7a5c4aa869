// Package config provides the configuration of a webextract run: the flat
// Config built from CLI flags, its defaults and validation, and the optional
// YAML configuration file that supplies defaults, the fetch channel chain and
// summarizer settings.
package config
