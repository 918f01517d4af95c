package files

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// AppendIgnore ensures the given pattern is present in .gitignore at dir.
// It creates the file if missing. Idempotent.
func AppendIgnore(dir, pattern string) error {
	path := filepath.Join(dir, ".gitignore")
	existing := map[string]bool{}
	needsNewline := false
	if b, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(b)))
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		needsNewline = len(b) > 0 && b[len(b)-1] != '\n'
	}
	if existing[pattern] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if needsNewline {
		pattern = "\n" + pattern
	}
	_, err = f.WriteString(pattern + "\n")
	return err
}

// GeneratedIgnores returns the patterns clinprep writes next to its inputs:
// redacted copies, the cache, and the audit log. Redacted copies still hold
// free text and should not be committed by accident.
func GeneratedIgnores() []string {
	return []string{
		"*.clean.csv",
		".clinprepcache.json",
		".clinprep_audit.jsonl",
	}
}
