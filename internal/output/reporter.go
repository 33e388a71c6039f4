package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/ghissue/internal/content"
	"github.com/dshills/ghissue/internal/github"
	"github.com/dshills/ghissue/internal/redact"
)

const tokenURL = "https://github.com/settings/tokens"

// Reporter prints human-readable progress and results.
type Reporter struct {
	out    *errWriter
	errOut *errWriter

	ok      lipgloss.Style
	fail    lipgloss.Style
	heading lipgloss.Style
	hint    lipgloss.Style
}

// NewReporter returns a Reporter writing results to stdout and failures to stderr.
func NewReporter(stdout, stderr io.Writer) *Reporter {
	outR := lipgloss.NewRenderer(stdout)
	errR := lipgloss.NewRenderer(stderr)
	return &Reporter{
		out:     &errWriter{w: stdout},
		errOut:  &errWriter{w: stderr},
		ok:      outR.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:    errR.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		heading: outR.NewStyle().Bold(true),
		hint:    errR.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error {
	return errors.Join(r.out.err, r.errOut.err)
}

// Start announces the issue about to be created.
func (r *Reporter) Start(owner, repo, title string) {
	r.out.println(r.heading.Render("Creating GitHub issue..."))
	r.out.printf("Repository: %s/%s\n", owner, repo)
	r.out.printf("Title: %s\n", title)
}

// MissingCredential explains how to provide a token.
func (r *Reporter) MissingCredential(envVar, gitKey string) {
	r.errOut.println("")
	r.errOut.println(r.fail.Render("✗ No GitHub token found!"))
	r.errOut.println("Please set up authentication by running:")
	r.errOut.printf("  export %s='your_token_here'\n", envVar)
	if gitKey != "" {
		r.errOut.printf("or store it in git config:\n  git config --global %s 'your_token_here'\n", gitKey)
	}
	r.errOut.println("")
	r.errOut.printf("Create a token at: %s\n", tokenURL)
	r.errOut.printf("Then run: export %s='your_new_token'\n", envVar)
}

// ContentFailed reports a failure to load the issue body.
func (r *Reporter) ContentFailed(path string, err error) {
	var msg string
	switch {
	case errors.Is(err, content.ErrNotFound):
		msg = fmt.Sprintf("✗ Error: %s not found", path)
	case errors.Is(err, content.ErrEmpty):
		msg = fmt.Sprintf("✗ Error: %s is empty", path)
	default:
		msg = fmt.Sprintf("✗ Error: %v", err)
	}
	r.errOut.println(r.fail.Render(msg))
}

// Created reports the created issue.
func (r *Reporter) Created(issue *github.Issue) {
	r.out.println(r.ok.Render("✓ Issue created successfully!"))
	r.out.printf("Issue URL: %s\n", issue.HTMLURL)
	r.out.printf("Issue Number: #%d\n", issue.Number)
}

// SubmitFailed reports a failed submission. Any of the given secrets found in
// the error text are redacted.
func (r *Reporter) SubmitFailed(err error, secrets ...string) {
	r.errOut.println(r.fail.Render("✗ " + redact.Scrub(err.Error(), secrets...)))
}

// Fallback suggests the manual alternative after a failed run.
func (r *Reporter) Fallback(hint string) {
	if hint == "" {
		return
	}
	r.errOut.println("")
	r.errOut.println(r.hint.Render("Alternative: Run the browser script instead:"))
	r.errOut.println(hint)
}

// DryRun prints the request that would be sent.
func (r *Reporter) DryRun(owner, repo string, req github.IssueRequest) error {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling issue request: %w", err)
	}
	r.out.printf("Dry run: would POST /repos/%s/%s/issues with:\n", owner, repo)
	r.out.println(string(data))
	return nil
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
