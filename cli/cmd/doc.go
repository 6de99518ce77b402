// Package cmd implements the resgen subcommands.
//
// Every command that needs resources compiles them from the directories
// stored in its context by [WithResources]; none of them keeps state
// between runs.
package cmd

const (
	// CacheIdentifier is the kong variable holding the cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the YAML
	// configuration file.
	ConfigIdentifier = "config"
)
