package spec

import (
	"path"
	"strings"
)

// DefaultPattern locates spec files when none are configured.
const DefaultPattern = "specs/**/*.md"

// MatchPattern matches a slash-separated workspace path against a pattern in
// which "**" spans any number of directories and other segments follow
// path.Match. A leading "./" on the pattern is ignored.
func MatchPattern(pattern, name string) bool {
	pattern = strings.TrimPrefix(pattern, "./")
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], name[0]); err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}
