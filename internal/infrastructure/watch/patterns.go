package watch

import (
	"path"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
)

// editorNoise matches swap, backup and temp files written next to specs.
var editorNoise = []string{"*.swp", "*.swx", "*~", ".#*", "*.tmp"}

// PatternFilter decides which workspace paths count as spec changes.
type PatternFilter struct {
	Include []string
	Exclude []string
}

// NewPatternFilter builds a filter over spec patterns such as "specs/**/*.md".
// An empty include list selects the default spec location.
func NewPatternFilter(include, exclude []string) *PatternFilter {
	if len(include) == 0 {
		include = []string{spec.DefaultPattern}
	}
	return &PatternFilter{
		Include: include,
		Exclude: append(append([]string{}, editorNoise...), exclude...),
	}
}

// Matches reports whether rel, a slash-separated path relative to the
// workspace root, is a spec file. Exclude patterns without a slash match the
// base name.
func (f *PatternFilter) Matches(rel string) bool {
	base := path.Base(rel)
	for _, p := range f.Exclude {
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, base); ok {
				return false
			}
			continue
		}
		if spec.MatchPattern(p, rel) {
			return false
		}
	}
	for _, p := range f.Include {
		if spec.MatchPattern(p, rel) {
			return true
		}
	}
	return false
}

// Roots returns the directories that must be watched to see every include
// pattern: the literal prefix of each pattern before its first wildcard.
func (f *PatternFilter) Roots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, p := range f.Include {
		p = strings.TrimPrefix(p, "./")
		var literal []string
		for _, seg := range strings.Split(path.Dir(p), "/") {
			if strings.ContainsAny(seg, "*?[") {
				break
			}
			literal = append(literal, seg)
		}
		root := path.Clean(strings.Join(literal, "/"))
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}
