package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/ghissue/internal/config"
	"github.com/dshills/ghissue/internal/credential"
	"github.com/dshills/ghissue/internal/github"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

type resolver interface {
	Resolve(ctx context.Context) (credential.Credential, bool)
}

type submitter interface {
	CreateIssue(ctx context.Context, owner, repo string, req github.IssueRequest) (*github.Issue, error)
}

// deps are the collaborators of the create flow. Tests swap them out.
type deps struct {
	stdout       io.Writer
	stderr       io.Writer
	newResolver  func(cfg config.Config, logger *slog.Logger) resolver
	newSubmitter func(token string, cfg config.Config) (submitter, error)
	loadDotEnv   func(path string) error
}

func defaultDeps() deps {
	return deps{
		stdout: os.Stdout,
		stderr: os.Stderr,
		newResolver: func(cfg config.Config, logger *slog.Logger) resolver {
			return credential.NewResolver(cfg.TokenEnv, cfg.TokenGitKey, logger)
		},
		newSubmitter: func(token string, cfg config.Config) (submitter, error) {
			c, err := github.NewClient(token, github.Options{
				BaseURL:      cfg.APIURL,
				Timeout:      cfg.Timeout(),
				MaxRedirects: cfg.MaxRedirects,
				UserAgent:    "ghissue/" + version,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		loadDotEnv: credential.LoadDotEnv,
	}
}

// app holds the state of one invocation.
type app struct {
	deps     deps
	flags    createFlags
	exitCode int
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], defaultDeps())
}

func run(ctx context.Context, args []string, d deps) int {
	a := &app{deps: d, exitCode: ExitSuccess}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(d.stdout)
	root.SetErr(d.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ghissue",
		Short: "Create a GitHub issue from a local file",
		Long: "ghissue files one issue in a GitHub repository, using the contents of a local\n" +
			"file as the body. With no flags it files the built-in issue from ISSUE_PRD_PARSING.md.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         a.runCreate,
	}
	a.bindCreateFlags(root)

	root.AddCommand(a.configCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ghissue version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ghissue version %s\n", version)
		},
	}
}
