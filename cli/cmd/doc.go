// Package cmd provides the build, render, and check subcommands for
// operating on template directories.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the name of
	// the default configuration file parsed at startup.
	ConfigIdentifier = "config"
)
