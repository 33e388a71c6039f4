package redact

import (
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for credential shapes that may appear in
// API error bodies or echoed request data.
var secretPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// Classic GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Fine-grained GitHub tokens
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Generic long hex strings in an assignment
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// Scrub replaces every occurrence of the given secrets in text, then applies
// the heuristics of [Secrets]. Empty secrets are ignored.
func Scrub(text string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		text = strings.ReplaceAll(text, s, placeholder)
	}
	return Secrets(text)
}

// Token masks a credential for display. Tokens of 12 characters or more keep
// their last four characters; shorter ones are fully masked.
func Token(token string) string {
	if token == "" {
		return ""
	}
	if len(token) < 12 {
		return strings.Repeat("*", 8)
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
