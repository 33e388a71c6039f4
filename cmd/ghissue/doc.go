// Ghissue creates a GitHub issue from a local Markdown file.
//
// It reads the issue body from a file, authenticates with a token taken from
// $GITHUB_TOKEN (or `git config github.token`), and posts a single issue with a
// fixed title and label set. The exit code is 0 when GitHub answers 201 Created
// and 1 on any failure.
//
// Usage:
//
//	ghissue                           # file the default issue from ISSUE_PRD_PARSING.md
//	ghissue --file bug.md --title "Crash on start" --label bug
//	ghissue --dry-run                 # print the request without sending it
//	ghissue config init               # write a default config file
//	ghissue config show               # print the effective configuration
package main
