// Package cache remembers which input files were already processed so
// repeated runs over the same exports can skip them.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// DB maps an input path to the content hash it had when its output was
// written, keyed together with the settings that shaped that output.
type DB struct {
	Entries map[string]string `json:"entries"`
}

func defaultPath(dir string) string {
	return filepath.Join(dir, ".clinprepcache.json")
}

// Load reads the cache from dir. A missing or corrupt file yields an empty DB
// and the error.
func Load(dir string) (DB, error) {
	var db DB
	f, err := os.ReadFile(defaultPath(dir))
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

// Save writes the cache to dir.
func Save(dir string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, _ := json.MarshalIndent(db, "", "  ")
	return os.WriteFile(defaultPath(dir), b, 0644)
}

// Key hashes content together with a settings fingerprint.
func Key(content []byte, settings string) string {
	h := xxhash.New()
	_, _ = h.Write(content)
	_, _ = h.WriteString("\x00" + settings)
	return strconv.FormatUint(h.Sum64(), 16)
}

// Fresh reports whether path was recorded with key.
func (db DB) Fresh(path, key string) bool {
	return db.Entries[path] == key
}

// Record stores key for path.
func (db DB) Record(path, key string) {
	db.Entries[path] = key
}
