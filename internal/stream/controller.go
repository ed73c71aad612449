// Package stream paces the reveal of a growing target text. The controller
// owns the relationship between the final text produced so far and the
// prefix that is safe to display, advancing on each tick with a chunk size
// that shrinks as it catches up.
package stream

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode is the lifecycle state of the controller for the current answer.
type Mode int

const (
	ModeIdle Mode = iota
	ModeStreaming
	ModeComplete
)

// Chunk policy: far behind the target we advance in large fixed chunks to
// catch up without visible jumping; near the tail we advance one
// whitespace-delimited token at a time for natural word motion. Thresholds
// are tuning knobs, not contracts.
const (
	chunkFar     = 40
	chunkMid     = 20
	farRemaining = 200
	midRemaining = 60
)

// Controller advances displayed text toward a target text. It is not safe
// for concurrent use; the expectation is a single tick loop driving it.
type Controller struct {
	target    string
	displayed int
	mode      Mode

	// finalized is set when the completion transition has fired, so the
	// caller parses the finished text exactly once.
	finalized bool
}

// NewController returns an idle controller.
func NewController() *Controller {
	return &Controller{}
}

// Advance reconciles the controller against the latest target text and
// moves the displayed prefix forward by one chunk. It returns the text
// safe to display now and whether the answer is complete.
//
// Completion is reported only on the first tick at which the displayed
// text has caught up and the producer has finished; Completed() stays true
// afterwards.
func (c *Controller) Advance(target string, producing bool) (string, bool) {
	// Divergence: the new target must extend what we have already shown.
	// An edited or regenerated answer is a new answer, not a diff problem.
	if !strings.HasPrefix(target, c.target[:c.displayed]) {
		c.reset()
	}
	c.target = target

	if c.displayed < len(target) {
		c.mode = ModeStreaming
		c.displayed += c.chunkSize(target)
		if c.displayed > len(target) {
			c.displayed = len(target)
		}
		// Fixed-size chunks can land mid-rune; widen to the boundary.
		for c.displayed < len(target) && !utf8.RuneStart(target[c.displayed]) {
			c.displayed++
		}
	}

	if c.displayed == len(target) && !producing {
		c.mode = ModeComplete
		if !c.finalized {
			c.finalized = true
			return target, true
		}
	}
	return target[:c.displayed], false
}

// chunkSize picks how far to advance this tick based on remaining
// distance. Near the tail the next whitespace-delimited token is used so
// words appear whole.
func (c *Controller) chunkSize(target string) int {
	remaining := len(target) - c.displayed
	switch {
	case remaining > farRemaining:
		return chunkFar
	case remaining > midRemaining:
		return chunkMid
	default:
		return nextTokenLen(target[c.displayed:])
	}
}

// nextTokenLen returns the byte length of the leading whitespace run plus
// the following word.
func nextTokenLen(s string) int {
	i := 0
	runes := []rune(s)
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	if i == 0 {
		return 1
	}
	return len(string(runes[:i]))
}

// RenderNow bypasses animation entirely: the full target becomes displayed
// and the controller is finalized. Used for previously seen answers.
func (c *Controller) RenderNow(target string) string {
	c.target = target
	c.displayed = len(target)
	c.mode = ModeComplete
	c.finalized = true
	return target
}

// Reset discards all state, ready for a new answer identity.
func (c *Controller) Reset() {
	c.reset()
	c.target = ""
}

func (c *Controller) reset() {
	c.displayed = 0
	c.mode = ModeIdle
	c.finalized = false
	c.target = ""
}

// Displayed returns the currently revealed prefix.
func (c *Controller) Displayed() string {
	return c.target[:c.displayed]
}

// CaughtUp reports whether the displayed text has reached the target.
// Distinct from completion: the producer may still add more.
func (c *Controller) CaughtUp() bool {
	return c.displayed == len(c.target)
}

// Completed reports whether the completion transition has fired.
func (c *Controller) Completed() bool {
	return c.finalized
}

// CurrentMode returns the controller lifecycle state.
func (c *Controller) CurrentMode() Mode {
	return c.mode
}
