package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// ErrGitNotFound is returned by [Exec] when no git executable is on PATH.
var ErrGitNotFound = errors.New("git executable not found")

// Runner runs git with the given arguments and returns its standard output.
type Runner func(ctx context.Context, args ...string) (string, error)

// Exec is the default [Runner]. It runs the git binary on PATH.
func Exec(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrGitNotFound
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// ConfigValue returns the trimmed value of a git config key as reported by
// `git config --get`. An unset key makes git exit non-zero, which is returned
// as an error like any other failure.
func ConfigValue(ctx context.Context, run Runner, key string) (string, error) {
	if run == nil {
		run = Exec
	}
	out, err := run(ctx, "config", "--get", key)
	if err != nil {
		return "", fmt.Errorf("git config --get %s: %w", key, err)
	}
	return strings.TrimSpace(out), nil
}

// ReadConfigFile looks up key in the config of the repository containing dir,
// then in the user's global git config. It returns "" with a nil error when the
// key is set in neither.
func ReadConfigFile(dir, key string) (string, error) {
	k, err := parseKey(key)
	if err != nil {
		return "", err
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	switch {
	case err == nil:
		local, err := repo.Config()
		if err != nil {
			return "", fmt.Errorf("reading repository config: %w", err)
		}
		if v := k.lookup(local); v != "" {
			return v, nil
		}
	case errors.Is(err, git.ErrRepositoryNotExists):
		// outside a repository only the global config applies
	default:
		return "", fmt.Errorf("opening repository: %w", err)
	}

	global, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("reading global git config: %w", err)
	}
	return k.lookup(global), nil
}

// configKey is a parsed git config key: section[.subsection].option
type configKey struct {
	section    string
	subsection string
	option     string
}

func parseKey(key string) (configKey, error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return configKey{}, fmt.Errorf("invalid git config key %q", key)
	}
	k := configKey{section: key[:first], option: key[last+1:]}
	if first != last {
		k.subsection = key[first+1 : last]
	}
	return k, nil
}

func (k configKey) lookup(cfg *config.Config) string {
	if cfg == nil || cfg.Raw == nil || !cfg.Raw.HasSection(k.section) {
		return ""
	}
	s := cfg.Raw.Section(k.section)
	if k.subsection != "" {
		if !s.HasSubsection(k.subsection) {
			return ""
		}
		return strings.TrimSpace(s.Subsection(k.subsection).Option(k.option))
	}
	return strings.TrimSpace(s.Option(k.option))
}
