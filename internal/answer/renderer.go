// Package answer ties the stream controller, block parser and diagram
// pipeline together into the surface a host UI drives: push target text as
// it arrives, tick, and read back a snapshot of typed blocks with live
// diagram status.
package answer

import (
	"github.com/varunaddh/streamdown/internal/blocks"
	"github.com/varunaddh/streamdown/internal/diagram"
	"github.com/varunaddh/streamdown/internal/stream"
)

// Snapshot is what the host renders on each frame.
type Snapshot struct {
	Blocks   []blocks.Block
	Complete bool
}

// Renderer drives one answer at a time. It is not safe for concurrent
// use; the host's single event loop owns it.
type Renderer struct {
	ctrl     *stream.Controller
	pipeline *diagram.Pipeline
	seen     *SeenCache

	id        string
	target    string
	producing bool

	// finalBlocks holds the parse-once result of the finished text.
	finalBlocks []blocks.Block
}

// NewRenderer builds a renderer over a diagram pipeline and a seen-answer
// cache. Both may be shared across renderers; the cache must be cleared
// when a new top-level conversation starts.
func NewRenderer(pipeline *diagram.Pipeline, seen *SeenCache) *Renderer {
	return &Renderer{
		ctrl:     stream.NewController(),
		pipeline: pipeline,
		seen:     seen,
	}
}

// Push feeds the latest target text for an answer identity. A new identity
// resets streaming state; an identity already in the seen cache renders
// instantly and never re-animates.
func (r *Renderer) Push(id, target string, producing bool) {
	if id != r.id {
		r.ctrl.Reset()
		r.finalBlocks = nil
		r.id = id

		if cached, ok := r.seen.Get(id); ok {
			r.ctrl.RenderNow(target)
			r.finalBlocks = cached
		}
	}
	r.target = target
	r.producing = producing
}

// RenderNow bypasses animation for the current answer: the full target is
// parsed immediately. Used for historical content.
func (r *Renderer) RenderNow(id, target string) Snapshot {
	r.id = id
	r.target = target
	r.producing = false
	r.ctrl.RenderNow(target)
	if cached, ok := r.seen.Get(id); ok {
		r.finalBlocks = cached
	} else {
		r.finalBlocks = r.finalize(target)
	}
	return r.snapshot(r.finalBlocks, true)
}

// Tick advances the displayed text one chunk and returns the blocks safe
// to show now. On the completion transition the finished text is parsed
// exactly once and remembered; later ticks serve that result.
func (r *Renderer) Tick() Snapshot {
	if r.finalBlocks != nil {
		return r.snapshot(r.finalBlocks, true)
	}

	displayed, complete := r.ctrl.Advance(r.target, r.producing)
	if complete {
		r.finalBlocks = r.finalize(displayed)
		return r.snapshot(r.finalBlocks, true)
	}

	bs := blocks.ParseStreaming(displayed)
	r.submitDiagrams(bs)
	return r.snapshot(bs, false)
}

// Done reports whether the current answer finished animating.
func (r *Renderer) Done() bool {
	return r.ctrl.Completed()
}

// RetryDiagram resets one failed diagram job, leaving all others alone.
func (r *Renderer) RetryDiagram(key uint64) {
	r.pipeline.Retry(key)
}

// finalize runs the strict parse of finished text, submits its diagrams
// and records the result in the seen cache.
func (r *Renderer) finalize(text string) []blocks.Block {
	bs := blocks.Parse(text)
	r.submitDiagrams(bs)
	r.seen.Put(r.id, bs)
	return bs
}

// submitDiagrams hands completed diagram sources to the pipeline. Blocks
// whose fence is still open are skipped: their source is still growing and
// would only waste a render.
func (r *Renderer) submitDiagrams(bs []blocks.Block) {
	for _, b := range bs {
		d, ok := b.(blocks.DiagramBlock)
		if !ok || d.Unterminated || d.Source == "" {
			continue
		}
		r.pipeline.Submit(d.Source)
	}
}

// snapshot attaches live job state to diagram blocks. Blocks are produced
// fresh on every parse; render status survives re-parses because jobs are
// keyed on the source hash.
func (r *Renderer) snapshot(bs []blocks.Block, complete bool) Snapshot {
	out := make([]blocks.Block, len(bs))
	for i, b := range bs {
		d, ok := b.(blocks.DiagramBlock)
		if !ok {
			out[i] = b
			continue
		}
		if job, found := r.pipeline.Job(diagram.KeyFor(d.Source)); found {
			d.Status = diagramStatus(job.Status())
			d.SVG = job.SVG()
			d.ErrorLog = job.Errors()
		}
		out[i] = d
	}
	return Snapshot{Blocks: out, Complete: complete}
}

func diagramStatus(s diagram.Status) blocks.DiagramStatus {
	switch s {
	case diagram.StatusRendered:
		return blocks.DiagramRendered
	case diagram.StatusFailed:
		return blocks.DiagramFailed
	case diagram.StatusSanitizing, diagram.StatusRendering:
		return blocks.DiagramRendering
	default:
		return blocks.DiagramPending
	}
}
