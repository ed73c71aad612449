package diagram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/varunaddh/streamdown/internal/cache"
	"github.com/varunaddh/streamdown/internal/debuglog"
)

// interJobYield is the pause between queued jobs. Rendering one diagram at
// a time with a short breather keeps backends from seeing bursts when an
// answer contains many diagrams, and keeps diagrams resolving in source
// order.
const interJobYield = 50 * time.Millisecond

// Options configures a Pipeline.
type Options struct {
	Theme Theme
	// AttemptTimeout bounds each backend invocation.
	AttemptTimeout time.Duration
	// WidthHint is forwarded to renderers and used for fit scaling.
	WidthHint int
	// OnSettled, if set, is called after a job reaches Rendered or
	// Failed. Called from the worker goroutine.
	OnSettled func(key uint64)
	// Trace, if set, receives a JSONL record of every submit, backend
	// attempt and settle. Nil disables tracing.
	Trace *debuglog.TraceLogger
	// Persist enables the on-disk artifact cache: rendered diagrams are
	// stored under XDG_CACHE_HOME keyed by source hash and served from
	// there on later sessions.
	Persist bool
}

// Pipeline owns diagram render jobs. Submitting the same source twice
// returns the same job: at most one render is ever in flight per distinct
// key, and settled jobs are never reprocessed unless explicitly retried.
type Pipeline struct {
	renderers []Renderer
	opts      Options

	mu   sync.Mutex
	jobs map[uint64]*Job

	queue chan *Job
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewPipeline starts a pipeline over the given renderer chain. Renderers
// are tried strictly in order; the first valid artifact wins.
func NewPipeline(renderers []Renderer, opts Options) *Pipeline {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 20 * time.Second
	}
	if opts.Theme == (Theme{}) {
		opts.Theme = DefaultTheme()
	}
	p := &Pipeline{
		renderers: renderers,
		opts:      opts,
		jobs:      make(map[uint64]*Job),
		queue:     make(chan *Job, 64),
		done:      make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Submit registers diagram source for rendering and returns its job. A
// source already known (by content hash) returns the existing job without
// queuing new work.
func (p *Pipeline) Submit(source string) *Job {
	key := KeyFor(source)

	p.mu.Lock()
	if job, ok := p.jobs[key]; ok {
		p.mu.Unlock()
		return job
	}
	job := newJob(source)
	p.jobs[key] = job
	p.mu.Unlock()

	p.opts.Trace.LogSubmit(key, source)
	p.enqueue(job)
	return job
}

// Job looks up an existing job by key.
func (p *Pipeline) Job(key uint64) (*Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[key]
	return job, ok
}

// Retry resets one failed job back to Pending and requeues it. Other jobs
// are untouched.
func (p *Pipeline) Retry(key uint64) {
	p.mu.Lock()
	job, ok := p.jobs[key]
	p.mu.Unlock()
	if !ok || !job.settled() {
		return
	}
	job.resetForRetry()
	p.enqueue(job)
}

// Clear discards all jobs. Used when the owning answer is thrown away;
// results still in flight are dropped, not applied.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	p.jobs = make(map[uint64]*Job)
	p.mu.Unlock()
}

// Close stops the worker. In-flight network calls are not force-aborted
// beyond context cancellation; any result arriving afterwards is dropped.
func (p *Pipeline) Close() {
	select {
	case <-p.done:
		return
	default:
	}
	close(p.done)
	p.wg.Wait()
}

func (p *Pipeline) enqueue(job *Job) {
	select {
	case p.queue <- job:
	case <-p.done:
	}
}

// run processes jobs one at a time, FIFO. Serial processing is deliberate:
// it avoids renderer cross-talk and keeps diagrams resolving in the order
// they appear in the answer.
func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case job := <-p.queue:
			// The job may have been cleared while queued.
			if current, ok := p.Job(job.Key); !ok || current != job {
				continue
			}
			if job.settled() {
				continue
			}
			p.process(job)
			if p.opts.OnSettled != nil {
				p.opts.OnSettled(job.Key)
			}

			select {
			case <-p.done:
				return
			case <-time.After(interJobYield):
			}
		}
	}
}

// process advances one job through sanitize, repair and the render tiers.
func (p *Pipeline) process(job *Job) {
	started := time.Now()
	defer func() {
		p.opts.Trace.LogSettled(job.Key, job.Status().String(), time.Since(started), job.Errors())
	}()

	if p.opts.Persist {
		if art, err := cache.ReadArtifact(job.Key); err == nil && cache.IsArtifactValid(art) {
			job.finishRendered(art.SVG, art.Scale)
			return
		}
	}

	job.setStatus(StatusSanitizing)
	prepared := Prepare(job.Source, p.opts.Theme)

	job.setStatus(StatusRendering)
	for i, r := range p.renderers {
		svg, err := p.attempt(job, r, prepared)
		if err == nil && i == 0 && looksLikeErrorArtifact(svg) {
			// The primary tier rejected the repaired source; heuristic
			// repairs occasionally misfire, so try once with the
			// original text before falling through.
			job.recordFailure(fmt.Sprintf("%s: error artifact for repaired source", r.Name()))
			svg, err = p.attempt(job, r, job.Source)
		}
		if err != nil {
			job.recordFailure(fmt.Sprintf("%s: %v", r.Name(), err))
			continue
		}
		if looksLikeErrorArtifact(svg) {
			job.recordFailure(fmt.Sprintf("%s: error artifact", r.Name()))
			continue
		}

		out := PostProcess(svg, p.opts.Theme.Text)
		scale := FitScale(out, p.opts.WidthHint)
		job.finishRendered(out, scale)
		if p.opts.Persist {
			// Cache write failures only cost a future re-render.
			_ = cache.WriteArtifact(job.Key, out, scale)
		}
		return
	}
	job.setStatus(StatusFailed)
}

func (p *Pipeline) attempt(job *Job, r Renderer, source string) (string, error) {
	job.recordAttempt()
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.AttemptTimeout)
	defer cancel()
	svg, err := r.Render(ctx, Request{
		Source:    source,
		Theme:     p.opts.Theme,
		WidthHint: p.opts.WidthHint,
	})
	p.opts.Trace.LogAttempt(job.Key, r.Name(), job.Attempts(), err)
	return svg, err
}

// Prepare runs the full source transformation chain: strip foreign
// markup, re-flow single-line text, auto-fix syntax, apply domain
// rewrites, inject theme tokens.
func Prepare(source string, theme Theme) string {
	s := StripForeignMarkup(source)
	s = Reflow(s)
	s, _ = Repair(s)
	s = ApplyDomainRepairs(s)
	return InjectTheme(s, theme)
}

// DefaultRenderers builds the standard fallback chain: remote Kroki
// service, local mermaid CLI, public mermaid.ink, in that order. Entries
// that cannot run report ErrUnavailable at render time and are skipped.
func DefaultRenderers(krokiURL, mmdcPath, inkURL string) []Renderer {
	return []Renderer{
		NewKrokiRenderer(krokiURL),
		NewLocalRenderer(mmdcPath),
		NewMermaidInkRenderer(inkURL),
	}
}
