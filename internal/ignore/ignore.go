// Package ignore reads .clinprepignore files: one doublestar glob per line,
// '#' comments, and a trailing '/' to exclude a whole directory.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up in the working directory.
const FileName = ".clinprepignore"

// Matcher reports whether a path is excluded.
type Matcher struct {
	patterns []string
}

// Load parses an ignore file.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m := &Matcher{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dir := strings.HasSuffix(line, "/")
		line = strings.TrimSuffix(line, "/")
		if !strings.Contains(line, "/") {
			// bare names match at any depth
			line = "**/" + line
		}
		if dir {
			line += "/**"
		}
		if !doublestar.ValidatePattern(line) {
			continue
		}
		m.patterns = append(m.patterns, line)
	}
	return m, sc.Err()
}

// Match reports whether p (slash or OS separated, relative) is excluded. A
// nil Matcher matches nothing.
func (m *Matcher) Match(p string) bool {
	if m == nil {
		return false
	}
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	for _, pat := range m.patterns {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}
