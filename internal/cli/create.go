package cli

import (
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/ghissue/internal/config"
	"github.com/dshills/ghissue/internal/content"
	"github.com/dshills/ghissue/internal/github"
	"github.com/dshills/ghissue/internal/logging"
	"github.com/dshills/ghissue/internal/output"
	"github.com/dshills/ghissue/internal/redact"
)

type createFlags struct {
	file    string
	owner   string
	repo    string
	title   string
	labels  []string
	timeout int
	dryRun  bool
	verbose bool
}

func (a *app) bindCreateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.flags.file, "file", "", "File holding the issue body (default from config)")
	f.StringVar(&a.flags.owner, "owner", "", "Repository owner (default from config)")
	f.StringVar(&a.flags.repo, "repo", "", "Repository name (default from config)")
	f.StringVar(&a.flags.title, "title", "", "Issue title (default from config)")
	f.StringArrayVar(&a.flags.labels, "label", nil, "Issue label, repeatable; replaces the configured labels")
	f.IntVar(&a.flags.timeout, "timeout", 0, "Request timeout in seconds (default from config)")
	f.BoolVar(&a.flags.dryRun, "dry-run", false, "Print the request instead of sending it")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log diagnostics to stderr")
}

// overrides returns the config overrides for flags the user set.
func (a *app) overrides(cmd *cobra.Command) map[string]string {
	m := make(map[string]string)
	f := cmd.Flags()
	if f.Changed("file") {
		m["body_file"] = a.flags.file
	}
	if f.Changed("owner") {
		m["owner"] = a.flags.owner
	}
	if f.Changed("repo") {
		m["repo"] = a.flags.repo
	}
	if f.Changed("title") {
		m["title"] = a.flags.title
	}
	if f.Changed("timeout") {
		m["timeout_seconds"] = strconv.Itoa(a.flags.timeout)
	}
	return m
}

func (a *app) runCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	stderr := a.deps.stderr

	cfg, err := config.Load(a.overrides(cmd))
	if err != nil {
		cmd.PrintErrf("Error: %v\n", err)
		a.exitCode = ExitFailure
		return nil
	}
	if cmd.Flags().Changed("label") {
		cfg.Labels = a.flags.labels
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(stderr, level)
	rep := output.NewReporter(a.deps.stdout, stderr)
	defer func() {
		if err := rep.Err(); err != nil {
			logger.Error("writing output", "err", err)
		}
	}()

	rep.Start(cfg.Owner, cfg.Repo, cfg.Title)

	if err := a.deps.loadDotEnv(cfg.EnvFile); err != nil {
		logger.Warn("ignoring env file", "path", cfg.EnvFile, "err", err)
	}

	if a.flags.dryRun {
		body, err := content.Load(cfg.BodyFile)
		if err != nil {
			rep.ContentFailed(cfg.BodyFile, err)
			a.exitCode = ExitFailure
			return nil
		}
		req := github.IssueRequest{Title: cfg.Title, Body: body, Labels: cfg.Labels}
		if err := rep.DryRun(cfg.Owner, cfg.Repo, req); err != nil {
			rep.SubmitFailed(err)
			a.exitCode = ExitFailure
		}
		return nil
	}

	cred, ok := a.deps.newResolver(cfg, logger).Resolve(ctx)
	if !ok {
		rep.MissingCredential(cfg.TokenEnv, cfg.TokenGitKey)
		rep.Fallback(cfg.FallbackHint)
		a.exitCode = ExitFailure
		return nil
	}
	logger.Info("using credential", "source", cred.Source, "token", redact.Token(cred.Token))

	body, err := content.Load(cfg.BodyFile)
	if err != nil {
		rep.ContentFailed(cfg.BodyFile, err)
		rep.Fallback(cfg.FallbackHint)
		a.exitCode = ExitFailure
		return nil
	}

	sub, err := a.deps.newSubmitter(cred.Token, cfg)
	if err != nil {
		rep.SubmitFailed(err, cred.Token)
		rep.Fallback(cfg.FallbackHint)
		a.exitCode = ExitFailure
		return nil
	}

	req := github.IssueRequest{Title: cfg.Title, Body: body, Labels: cfg.Labels}
	logger.Debug("submitting issue",
		"api", cfg.APIURL,
		"repository", cfg.Owner+"/"+cfg.Repo,
		"labels", cfg.Labels,
		"body_bytes", len(body),
		"timeout", cfg.Timeout(),
		"max_redirects", cfg.MaxRedirects,
	)

	issue, err := sub.CreateIssue(ctx, cfg.Owner, cfg.Repo, req)
	if err != nil {
		logger.Debug("issue creation failed", "err", redact.Scrub(err.Error(), cred.Token))
		rep.SubmitFailed(err, cred.Token)
		rep.Fallback(cfg.FallbackHint)
		a.exitCode = ExitFailure
		return nil
	}

	rep.Created(issue)
	return nil
}
