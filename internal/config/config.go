package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the ghissue configuration.
type Config struct {
	Owner          string   `toml:"owner"`
	Repo           string   `toml:"repo"`
	Title          string   `toml:"title"`
	BodyFile       string   `toml:"body_file"`
	Labels         []string `toml:"labels"`
	APIURL         string   `toml:"api_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxRedirects   int      `toml:"max_redirects"`
	TokenEnv       string   `toml:"token_env"`
	TokenGitKey    string   `toml:"token_git_key"`
	EnvFile        string   `toml:"env_file"`
	FallbackHint   string   `toml:"fallback_hint"`
	LogLevel       string   `toml:"log_level"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Owner:          "SeanMBaity",
		Repo:           "voice-farm-workshop",
		Title:          "Parse Voice Farm Game PRD into Development Tasks",
		BodyFile:       "ISSUE_PRD_PARSING.md",
		Labels:         []string{"good first issue", "documentation", "planning"},
		APIURL:         "https://api.github.com/",
		TimeoutSeconds: 30,
		MaxRedirects:   5,
		TokenEnv:       "GITHUB_TOKEN",
		TokenGitKey:    "github.token",
		EnvFile:        ".env",
		FallbackHint:   "./create-issue.sh",
		LogLevel:       "warn",
	}
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks that the merged config can be used to create an issue.
func (c Config) Validate() error {
	var errs []error
	if c.Owner == "" {
		errs = append(errs, errors.New("owner must not be empty"))
	}
	if c.Repo == "" {
		errs = append(errs, errors.New("repo must not be empty"))
	}
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, errors.New("title must not be empty"))
	}
	if c.BodyFile == "" {
		errs = append(errs, errors.New("body_file must not be empty"))
	}
	if c.TokenEnv == "" {
		errs = append(errs, errors.New("token_env must not be empty"))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("max_redirects must not be negative, got %d", c.MaxRedirects))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// ConfigDir returns the platform-appropriate config directory for ghissue.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ghissue"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "ghissue"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "ghissue"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "ghissue"), nil
	default:
		return filepath.Join(home, ".config", "ghissue"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadFile returns the defaults overlaid with the config file. A missing file
// yields the defaults and a nil error.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := decodeOnto(&cfg, data); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// decodeOnto decodes TOML data over cfg. Keys absent from data keep their
// current values, which lets an explicit zero (max_redirects = 0) win over a
// default. Unknown keys are rejected.
func decodeOnto(cfg *Config, data []byte) error {
	labels := cfg.Labels
	cfg.Labels = nil
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		cfg.Labels = labels
		return err
	}
	if cfg.Labels == nil {
		cfg.Labels = labels
	}
	return nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only flags the user set should be present).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envKeys maps environment variables to config keys understood by SetField.
var envKeys = []struct {
	env string
	key string
}{
	{"GHISSUE_OWNER", "owner"},
	{"GHISSUE_REPO", "repo"},
	{"GHISSUE_TITLE", "title"},
	{"GHISSUE_FILE", "body_file"},
	{"GHISSUE_LABELS", "labels"},
	{"GHISSUE_API_URL", "api_url"},
	{"GHISSUE_TIMEOUT", "timeout_seconds"},
	{"GHISSUE_LOG_LEVEL", "log_level"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for k, v := range overrides {
		if err := SetField(cfg, k, v); err != nil {
			return fmt.Errorf("flag %s: %w", k, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
// Labels are given as a comma-separated list.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "owner":
		cfg.Owner = value
	case "repo":
		cfg.Repo = value
	case "title":
		cfg.Title = value
	case "body_file":
		cfg.BodyFile = value
	case "labels":
		cfg.Labels = SplitLabels(value)
	case "api_url":
		cfg.APIURL = value
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeout_seconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "max_redirects":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_redirects must be an integer: %w", err)
		}
		cfg.MaxRedirects = n
	case "token_env":
		cfg.TokenEnv = value
	case "token_git_key":
		cfg.TokenGitKey = value
	case "env_file":
		cfg.EnvFile = value
	case "fallback_hint":
		cfg.FallbackHint = value
	case "log_level":
		cfg.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// SplitLabels splits a comma-separated label list, trimming whitespace and
// dropping empty entries. Order is preserved.
func SplitLabels(s string) []string {
	labels := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}
