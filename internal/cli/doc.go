// Package cli wires together the Cobra command tree for the ghissue binary.
//
// The root command resolves a token, loads the issue body, submits the issue,
// and reports the result, returning exit code 0 on success and 1 on any
// failure. The config and version subcommands manage settings and print the
// build version.
package cli
