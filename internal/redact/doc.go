// Package redact keeps GitHub credentials out of console output and logs.
//
// [Token] masks a credential for display, keeping only enough of its tail to
// tell two tokens apart. [Secrets] scrubs text that came back from the server
// or from the environment using regex heuristics for GitHub tokens, bearer
// headers, and key/token assignments. [Scrub] additionally removes exact
// occurrences of known secrets.
package redact
