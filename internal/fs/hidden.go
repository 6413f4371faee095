package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// HideFileName is the optional per-root file listing extra hidden patterns.
const HideFileName = ".portalhide"

// reservedPrefix marks names that are never listed. Spool files and the hide
// file itself carry it.
const reservedPrefix = "."

// hiddenPattern is a parsed pattern with its matching strategy.
type hiddenPattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
}

// HiddenMatcher decides which entries are left out of listings.
// Names starting with "." are always hidden. Patterns without '/' match the
// basename only; patterns with '/' match the full root-relative path.
type HiddenMatcher struct {
	patterns []hiddenPattern
}

// NewHiddenMatcher creates a HiddenMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewHiddenMatcher(rawPatterns []string) *HiddenMatcher {
	var patterns []hiddenPattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, hiddenPattern{
			pattern:   raw,
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &HiddenMatcher{patterns: patterns}
}

// Match reports whether the entry at relativePath is hidden.
func (m *HiddenMatcher) Match(relativePath string) bool {
	normalized := filepath.ToSlash(relativePath)
	basename := path.Base(normalized)
	if strings.HasPrefix(basename, reservedPrefix) {
		return true
	}

	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.matchPath {
			matched, err = filepath.Match(p.pattern, normalized)
		} else {
			matched, err = filepath.Match(p.pattern, basename)
		}
		if err != nil {
			// Bad pattern, skip rather than fail the listing.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// ParseHideFile reads a hide file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseHideFile(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening hide file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading hide file: %w", err)
	}
	return patterns, nil
}
