// Package output prints ghissue progress and results to the console.
//
// A [Reporter] writes progress and results to stdout and failures to stderr.
// Status lines are styled with lipgloss; styling is dropped automatically
// when the destination is not a terminal, so redirected output stays plain.
// Error text is passed through redact before printing so a token echoed back
// by the server never reaches the terminal.
package output
