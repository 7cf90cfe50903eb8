// Package config loads, normalizes, and validates storyreel's TOML
// configuration. Defaults cover a working local setup; Validate rejects
// values the pipeline cannot run with before any stage starts.
package config
