package debuglog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad trace line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestTraceLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	l, err := NewTraceLogger(dir, "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	l.LogSubmit(42, "flowchart TD\nA --> B")
	l.LogAttempt(42, "kroki", 1, errors.New("connection refused"))
	l.LogAttempt(42, "mmdc", 2, nil)
	l.LogSettled(42, "rendered", 120*time.Millisecond, []string{"kroki: connection refused"})
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, filepath.Join(dir, "sess-1.jsonl"))
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if lines[0]["type"] != "submit" || lines[0]["source"] != "flowchart TD\nA --> B" {
		t.Errorf("submit line = %v", lines[0])
	}
	if lines[1]["error"] != "connection refused" {
		t.Errorf("failed attempt line = %v", lines[1])
	}
	if _, ok := lines[2]["error"]; ok {
		t.Errorf("successful attempt carries an error field: %v", lines[2])
	}
	if lines[3]["status"] != "rendered" || lines[3]["elapsed_ms"].(float64) != 120 {
		t.Errorf("settled line = %v", lines[3])
	}
}

func TestTraceLoggerTruncatesLongSource(t *testing.T) {
	dir := t.TempDir()
	l, err := NewTraceLogger(dir, "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	big := make([]byte, 2000)
	for i := range big {
		big[i] = 'x'
	}
	l.LogSubmit(1, string(big))
	l.Close()

	lines := readLines(t, filepath.Join(dir, "sess-1.jsonl"))
	src := lines[0]["source"].(string)
	if len(src) > 600 {
		t.Errorf("source not truncated: %d bytes", len(src))
	}
}

func TestNilTraceLoggerIsNoop(t *testing.T) {
	var l *TraceLogger
	l.LogSubmit(1, "x")
	l.LogAttempt(1, "kroki", 1, nil)
	l.LogSettled(1, "failed", time.Second, nil)
	l.Flush()
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l, err := NewTraceLogger(t.TempDir(), "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	// Writes after close are dropped, not panics.
	l.LogSubmit(1, "x")
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.jsonl")
	newFile := filepath.Join(dir, "new.jsonl")
	keep := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldFile, newFile, keep} {
		if err := os.WriteFile(p, []byte("{}\n"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, stale, stale); err != nil {
		t.Fatal(err)
	}

	if err := CleanupOldLogs(dir, 24*time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("stale trace file survived cleanup")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Error("fresh trace file removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("non-jsonl file removed")
	}
}
