package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/varalys/clinprep/internal/phi"
)

// RunRecord describes one clinprep invocation. It never holds note text.
type RunRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"run_id"`
	Command   string            `json:"command"`
	Seed      int64             `json:"seed"`
	Inputs    []FileSummary     `json:"inputs,omitempty"`
	Columns   []phi.ColumnStats `json:"columns,omitempty"`
	Rows      int               `json:"rows"`
	Markers   int               `json:"markers"`
	Embedding *MatrixSummary    `json:"embedding,omitempty"`
	Duration  string            `json:"duration"`
}

// FileSummary is a per-input line of a run record.
type FileSummary struct {
	Path    string `json:"path"`
	Output  string `json:"output,omitempty"`
	Rows    int    `json:"rows"`
	Markers int    `json:"markers"`
	Cached  bool   `json:"cached,omitempty"`
}

// MatrixSummary records the shape of an extracted embedding matrix.
type MatrixSummary struct {
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Device string `json:"device"`
}

// Log is an append-only JSONL file of run records.
type Log struct {
	logPath string
}

// NewLog places the log in dir as .clinprep_audit.jsonl.
func NewLog(dir string) *Log {
	return &Log{logPath: filepath.Join(dir, ".clinprep_audit.jsonl")}
}

// Path returns the log file location.
func (a *Log) Path() string { return a.logPath }

// LoadHistory returns records newest first. Lines that do not decode as a
// record are skipped.
func (a *Log) LoadHistory() ([]RunRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audit log")
	}
	defer f.Close()

	var records []RunRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var record RunRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read audit log")
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Append writes record as one JSON line.
func (a *Log) Append(record RunRecord) error {
	if record.RunID == "" {
		record.RunID = fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrap(err, "failed to open audit log")
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return errors.Wrap(err, "failed to write audit record")
	}
	return nil
}

// RedactRecord summarizes a redact run over files.
func RedactRecord(seed int64, files []FileSummary, columns []phi.ColumnStats, duration time.Duration) RunRecord {
	rec := RunRecord{
		Command:  "redact",
		Seed:     seed,
		Inputs:   files,
		Columns:  columns,
		Duration: duration.String(),
	}
	for _, f := range files {
		rec.Rows += f.Rows
		rec.Markers += f.Markers
	}
	return rec
}
