package cache

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/sidkik/hoist/pkg/errors"
)

// Matcher decides which paths are excluded from snapshots and archives.
//
// A pattern excludes a slash-separated relative path if the pattern equals
// one of the path's segments, if it matches the base name as a glob, or if it
// matches the whole path as a glob. `*` doesn't cross directory boundaries,
// but `**` does.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	raw  string
	glob glob.Glob
}

// NewMatcher compiles `patterns`.
func NewMatcher(patterns []string) (Matcher, error) {
	var m Matcher
	for _, raw := range patterns {
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "./"), "/")
		if raw == "" {
			continue
		}

		g, err := glob.Compile(raw, '/')
		if err != nil {
			return Matcher{}, errors.NewFriendlyError(
				"Invalid exclude pattern %q: %s", raw, err)
		}
		m.patterns = append(m.patterns, pattern{raw: raw, glob: g})
	}
	return m, nil
}

// Match returns whether `path` is excluded.
func (m Matcher) Match(path string) bool {
	segments := strings.Split(path, "/")
	base := segments[len(segments)-1]
	for _, p := range m.patterns {
		for _, segment := range segments {
			if segment == p.raw {
				return true
			}
		}

		if p.glob.Match(base) || p.glob.Match(path) {
			return true
		}
	}
	return false
}
