// Package config loads and merges ghissue configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (GHISSUE_OWNER, GHISSUE_REPO, GHISSUE_TITLE, etc.)
//  3. Config file ($XDG_CONFIG_HOME/ghissue/config.toml)
//  4. Built-in defaults
//
// The defaults alone describe the fixed issue this tool was written to file,
// so running with no file, no env and no flags needs no setup beyond a token.
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
