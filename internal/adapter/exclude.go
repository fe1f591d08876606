package adapter

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// excludeSet filters walked paths against user-supplied patterns. Each
// pattern is matched against the file's path relative to the scanned root
// (with forward slashes) and against the bare file name, so "^vendor/" and
// "_tb\.vnl$" both behave the way users expect.
type excludeSet struct {
	patterns []*regexp.Regexp
}

func compileExcludes(patterns []string) (*excludeSet, error) {
	set := &excludeSet{}

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		set.patterns = append(set.patterns, re)
	}

	return set, nil
}

func (s *excludeSet) matches(root, path string) bool {
	if len(s.patterns) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, re := range s.patterns {
		if re.MatchString(rel) || re.MatchString(base) {
			return true
		}
	}

	return false
}
