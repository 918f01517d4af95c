package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendIgnore_IdempotentAndCreates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	if err := AppendIgnore(dir, "*.clean.csv"); err != nil {
		t.Fatalf("AppendIgnore: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "*.clean.csv\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
	if err := AppendIgnore(dir, "*.clean.csv"); err != nil {
		t.Fatalf("AppendIgnore second: %v", err)
	}
	b2, _ := os.ReadFile(p)
	if strings.Count(string(b2), "*.clean.csv") != 1 {
		t.Fatalf("expected single occurrence, got: %q", string(b2))
	}
}

func TestAppendIgnore_MissingTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(p, []byte("dist/"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := AppendIgnore(dir, ".clinprepcache.json"); err != nil {
		t.Fatalf("AppendIgnore: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "dist/\n.clinprepcache.json\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestGeneratedIgnores(t *testing.T) {
	items := GeneratedIgnores()
	want := map[string]bool{"*.clean.csv": false, ".clinprepcache.json": false, ".clinprep_audit.jsonl": false}
	for _, it := range items {
		if _, ok := want[it]; ok {
			want[it] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Fatalf("expected generated ignores to contain %q, got: %#v", k, items)
		}
	}
}
