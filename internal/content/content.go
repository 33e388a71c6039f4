// Package content loads the issue body from a local file.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultPath is the issue body file read when no other path is configured.
const DefaultPath = "ISSUE_PRD_PARSING.md"

var (
	// ErrNotFound is returned when the body file does not exist.
	ErrNotFound = errors.New("issue body file not found")
	// ErrEmpty is returned when the body file has no content.
	ErrEmpty = errors.New("issue body file is empty")
)

// Load returns the full text of the file at path, unmodified.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return string(data), nil
}
