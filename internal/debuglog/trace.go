// Package debuglog writes diagram render traces to JSONL files for
// debugging. Each session gets its own file; a nil *TraceLogger is a
// valid no-op logger so call sites never need to check.
package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceLogger records pipeline activity for one session.
type TraceLogger struct {
	baseDir   string
	sessionID string
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	closeOnce sync.Once
	closed    bool
}

// traceEntry is the common structure for all trace lines.
type traceEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"` // "submit", "attempt" or "settled"
}

// submitEntry records a diagram entering the queue.
type submitEntry struct {
	traceEntry
	Key    uint64 `json:"key"`
	Source string `json:"source"`
}

// attemptEntry records one backend invocation.
type attemptEntry struct {
	traceEntry
	Key     uint64 `json:"key"`
	Backend string `json:"backend"`
	Attempt int    `json:"attempt"`
	Error   string `json:"error,omitempty"`
}

// settledEntry records a job reaching a terminal state.
type settledEntry struct {
	traceEntry
	Key       uint64   `json:"key"`
	Status    string   `json:"status"`
	ElapsedMs int64    `json:"elapsed_ms"`
	Errors    []string `json:"errors,omitempty"`
}

// NewTraceLogger creates a TraceLogger writing to baseDir. The sessionID
// names the file. Old trace files (>7 days) are cleaned up on open.
func NewTraceLogger(baseDir, sessionID string) (*TraceLogger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	_ = CleanupOldLogs(baseDir, 7*24*time.Hour)

	filename := filepath.Join(baseDir, sessionID+".jsonl")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &TraceLogger{
		baseDir:   baseDir,
		sessionID: sessionID,
		file:      file,
		writer:    bufio.NewWriter(file),
	}, nil
}

// LogSubmit records a diagram source entering the queue.
func (l *TraceLogger) LogSubmit(key uint64, source string) {
	if l == nil {
		return
	}
	if len(source) > 500 {
		source = source[:500] + "...[truncated]"
	}
	l.writeEntry(submitEntry{
		traceEntry: l.entry("submit"),
		Key:        key,
		Source:     source,
	})
}

// LogAttempt records one backend invocation and its outcome.
func (l *TraceLogger) LogAttempt(key uint64, backend string, attempt int, err error) {
	if l == nil {
		return
	}
	e := attemptEntry{
		traceEntry: l.entry("attempt"),
		Key:        key,
		Backend:    backend,
		Attempt:    attempt,
	}
	if err != nil {
		e.Error = err.Error()
	}
	l.writeEntry(e)
}

// LogSettled records a job reaching Rendered or Failed. Settles are
// infrequent, so the buffer is flushed here rather than per attempt.
func (l *TraceLogger) LogSettled(key uint64, status string, elapsed time.Duration, errors []string) {
	if l == nil {
		return
	}
	l.writeEntry(settledEntry{
		traceEntry: l.entry("settled"),
		Key:        key,
		Status:     status,
		ElapsedMs:  elapsed.Milliseconds(),
		Errors:     errors,
	})
	l.Flush()
}

func (l *TraceLogger) entry(typ string) traceEntry {
	return traceEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: l.sessionID,
		Type:      typ,
	}
}

// writeEntry writes a single trace line. Does not flush; callers flush
// at settle boundaries.
func (l *TraceLogger) writeEntry(entry any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.writer.Write(data)
	l.writer.WriteString("\n")
}

// Flush flushes the buffered writer to disk.
func (l *TraceLogger) Flush() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.writer == nil {
		return
	}
	l.writer.Flush()
}

// Close flushes and closes the trace file. Idempotent.
func (l *TraceLogger) Close() error {
	if l == nil {
		return nil
	}

	var closeErr error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.file == nil {
			return
		}
		if err := l.writer.Flush(); err != nil {
			closeErr = err
		}
		if err := l.file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		l.closed = true
	})
	return closeErr
}

// CleanupOldLogs removes JSONL trace files older than maxAge so traces do
// not accumulate indefinitely.
func CleanupOldLogs(baseDir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(baseDir, entry.Name()))
		}
	}
	return nil
}
