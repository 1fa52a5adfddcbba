package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandDocuments turns --files patterns into document paths.
//
// A pattern without glob characters is taken literally, even if the file
// does not exist, so that a missing document is reported as a failure of
// that document. Glob matches are sorted and directories are skipped. A
// path selected twice is processed once, at its first position.
func expandDocuments(patterns []string, logger *slog.Logger) ([]string, error) {
	seen := make(map[string]bool)
	var docs []string
	add := func(path string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		docs = append(docs, path)
	}

	for _, pattern := range patterns {
		if !containsGlob(pattern) {
			add(pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(matches)

		n := 0
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			add(match)
			n++
		}
		if n == 0 {
			logger.Warn("pattern matches no documents", "pattern", pattern)
		}
	}
	return docs, nil
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// matchGlob reports whether path matches a --files glob.
func matchGlob(pattern, path string) bool {
	ok, err := doublestar.PathMatch(pattern, filepath.Clean(path))
	return err == nil && ok
}
