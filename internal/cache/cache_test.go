package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	// initial load should return empty DB and error
	db, _ := Load(dir)
	if db.Entries == nil {
		t.Fatalf("expected entries map initialized")
	}
	db.Record("a.csv", "deadbeef")
	if err := Save(dir, db); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".clinprepcache.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	db2, err := Load(dir)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if !db2.Fresh("a.csv", "deadbeef") {
		t.Fatalf("unexpected entry: %q", db2.Entries["a.csv"])
	}
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".clinprepcache.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	db, err := Load(dir)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if db.Entries == nil || len(db.Entries) != 0 {
		t.Fatalf("expected empty entries, got %#v", db.Entries)
	}
}

func TestSave_NilEntries(t *testing.T) {
	if err := Save(t.TempDir(), DB{}); err == nil {
		t.Fatal("expected error for nil entries")
	}
}

func TestKey_DependsOnContentAndSettings(t *testing.T) {
	a := Key([]byte("x"), "tok=@@PHI@@")
	if a != Key([]byte("x"), "tok=@@PHI@@") {
		t.Fatal("key must be stable")
	}
	if a == Key([]byte("y"), "tok=@@PHI@@") {
		t.Fatal("key must change with content")
	}
	if a == Key([]byte("x"), "tok=<phi>") {
		t.Fatal("key must change with settings")
	}
}
