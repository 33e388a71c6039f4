// Package credential resolves the GitHub token used to create issues.
//
// Sources are consulted in order and the first non-empty value wins:
//  1. the token environment variable (GITHUB_TOKEN by default)
//  2. `git config --get github.token`
//  3. the repository and global git config files read with go-git, only when
//     the git executable is not installed
//
// A failing source is treated as empty. [Resolver.Resolve] reports absence
// with a false result and never returns an error.
package credential

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/dshills/ghissue/internal/gitctx"
	"github.com/dshills/ghissue/internal/redact"
)

const (
	DefaultEnvVar = "GITHUB_TOKEN"
	DefaultGitKey = "github.token"
)

// Credential is a resolved token and the source it came from.
type Credential struct {
	Token  string
	Source string
}

// Resolver looks up a token from the environment and git configuration.
// The function fields default to the real environment and git when nil.
type Resolver struct {
	EnvVar string
	GitKey string

	Getenv        func(string) string
	RunGit        gitctx.Runner
	ReadGitConfig func(key string) (string, error)
	Logger        *slog.Logger
}

// NewResolver returns a Resolver backed by the process environment and git.
func NewResolver(envVar, gitKey string, logger *slog.Logger) *Resolver {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	if gitKey == "" {
		gitKey = DefaultGitKey
	}
	return &Resolver{
		EnvVar: envVar,
		GitKey: gitKey,
		Logger: logger,
	}
}

// Resolve returns the first non-empty token, or false if no source has one.
func (r *Resolver) Resolve(ctx context.Context) (Credential, bool) {
	log := r.logger()

	if v := r.getenv(r.EnvVar); v != "" {
		log.Debug("credential resolved", "source", "env:"+r.EnvVar, "token", redact.Token(v))
		return Credential{Token: v, Source: "env:" + r.EnvVar}, true
	}
	log.Debug("credential env var empty", "var", r.EnvVar)

	v, err := gitctx.ConfigValue(ctx, r.RunGit, r.GitKey)
	if err == nil && v != "" {
		log.Debug("credential resolved", "source", "git-config:"+r.GitKey, "token", redact.Token(v))
		return Credential{Token: v, Source: "git-config:" + r.GitKey}, true
	}
	if err != nil {
		log.Debug("git config lookup failed", "key", r.GitKey, "err", err)
	}

	if !errors.Is(err, gitctx.ErrGitNotFound) {
		return Credential{}, false
	}

	v, err = r.readGitConfig(r.GitKey)
	if err != nil {
		log.Debug("git config file lookup failed", "key", r.GitKey, "err", err)
		return Credential{}, false
	}
	if v == "" {
		return Credential{}, false
	}
	log.Debug("credential resolved", "source", "git-config-file:"+r.GitKey, "token", redact.Token(v))
	return Credential{Token: v, Source: "git-config-file:" + r.GitKey}, true
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv != nil {
		return r.Getenv(key)
	}
	return os.Getenv(key)
}

func (r *Resolver) readGitConfig(key string) (string, error) {
	if r.ReadGitConfig != nil {
		return r.ReadGitConfig(key)
	}
	return gitctx.ReadConfigFile(".", key)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set are left alone. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
