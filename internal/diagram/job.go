// Package diagram repairs diagram-description source and renders it into a
// vector artifact through an ordered chain of backends. Work is keyed on a
// stable content hash so repeated parses of the same answer never duplicate
// render calls.
package diagram

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Status is the lifecycle state of a render job.
type Status int

const (
	StatusPending Status = iota
	StatusSanitizing
	StatusRendering
	StatusRendered
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSanitizing:
		return "sanitizing"
	case StatusRendering:
		return "rendering"
	case StatusRendered:
		return "rendered"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// KeyFor returns the stable job key for a piece of diagram source. The key
// is computed on the raw source, before any repair, so identical blocks in
// re-parsed text always map to the same job.
func KeyFor(source string) uint64 {
	return xxhash.Sum64String(source)
}

// Job tracks one diagram source through the pipeline. Fields are guarded
// by mu: status is read from the parse/snapshot path while the worker
// goroutine advances it.
type Job struct {
	Key    uint64
	Source string

	mu       sync.Mutex
	status   Status
	svg      string
	scale    float64
	errLog   []string
	attempts int
}

func newJob(source string) *Job {
	return &Job{Key: KeyFor(source), Source: source, scale: 1}
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// SVG returns the rendered artifact markup, empty until StatusRendered.
func (j *Job) SVG() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.svg
}

// Scale returns the display scale computed for the artifact (never above 1).
func (j *Job) Scale() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scale
}

// Errors returns a copy of the accumulated per-tier error log.
func (j *Job) Errors() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.errLog))
	copy(out, j.errLog)
	return out
}

// Attempts returns how many backend invocations the job has made.
func (j *Job) Attempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

// settled reports whether the job has reached a terminal state.
func (j *Job) settled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status == StatusRendered || j.status == StatusFailed
}

func (j *Job) setStatus(s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) recordFailure(msg string) {
	j.mu.Lock()
	j.errLog = append(j.errLog, msg)
	j.mu.Unlock()
}

func (j *Job) recordAttempt() {
	j.mu.Lock()
	j.attempts++
	j.mu.Unlock()
}

func (j *Job) finishRendered(svg string, scale float64) {
	j.mu.Lock()
	j.svg = svg
	j.scale = scale
	j.status = StatusRendered
	j.mu.Unlock()
}

// resetForRetry clears a terminal state back to Pending. Error history is
// kept for diagnostics.
func (j *Job) resetForRetry() {
	j.mu.Lock()
	j.status = StatusPending
	j.svg = ""
	j.scale = 1
	j.mu.Unlock()
}
