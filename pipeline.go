package docpreview

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/livefir/docpreview/internal/document"
	"github.com/livefir/docpreview/internal/metrics"
)

// DefaultDebounce is the quiescence window after the last input change
const DefaultDebounce = 300 * time.Millisecond

// ErrUnknownSnippet is returned when inserting a snippet name that does not exist
var ErrUnknownSnippet = errors.New("unknown snippet")

// Inputs are the four values a render depends on. Callers hand over
// ownership of Context; it must not be mutated after being passed in.
type Inputs struct {
	Template Template
	Context  Context
	Options  PresentationOptions
}

// Result is one published render
type Result struct {
	Document   string
	Err        error               // non-nil when Document is the error notice
	Options    PresentationOptions // options the document was rendered with
	Generation uint64
	RenderedAt time.Time
}

// RenderFunc produces a document from inputs
type RenderFunc func(Template, Context, PresentationOptions) (string, error)

// Pipeline owns the current inputs and the current document. Any input
// change re-arms a debounce timer; only the last change within the
// window renders.
type Pipeline struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	inputs    Inputs
	debounce  time.Duration
	render    RenderFunc
	timer     *time.Timer
	gen       uint64 // generation of the latest input change
	published uint64 // generation of current
	current   Result
	subs      map[int]func(Result)
	nextSub   int
	closed    bool
	metrics   *metrics.Collector
}

// PipelineOption configures a Pipeline instance
type PipelineOption func(*Pipeline)

// WithDebounce sets the quiescence window
func WithDebounce(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d >= 0 {
			p.debounce = d
		}
	}
}

// WithRenderFunc replaces Render, mainly for tests
func WithRenderFunc(f RenderFunc) PipelineOption {
	return func(p *Pipeline) {
		if f != nil {
			p.render = f
		}
	}
}

// WithMetrics records pipeline activity in c
func WithMetrics(c *metrics.Collector) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = c
	}
}

// WithInitial sets the starting inputs without scheduling a render
func WithInitial(in Inputs) PipelineOption {
	return func(p *Pipeline) {
		p.inputs = in
	}
}

// NewPipeline creates a pipeline with the sample context and default
// options. Nothing renders until an input changes or Flush is called.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		inputs: Inputs{
			Context: SampleContext(),
			Options: DefaultOptions(),
		},
		debounce: DefaultDebounce,
		render:   Render,
		subs:     make(map[int]func(Result)),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = metrics.NewCollector()
	}

	return p
}

// Metrics returns the pipeline's collector
func (p *Pipeline) Metrics() *metrics.Collector {
	return p.metrics
}

// Inputs returns the current inputs
func (p *Pipeline) Inputs() Inputs {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inputs
}

// OnInputsChanged replaces all inputs at once
func (p *Pipeline) OnInputsChanged(in Inputs) {
	p.update(func(cur *Inputs) { *cur = in })
}

// SetTemplate replaces both halves of the template
func (p *Pipeline) SetTemplate(t Template) {
	p.update(func(cur *Inputs) { cur.Template = t })
}

// SetHTML replaces the template markup
func (p *Pipeline) SetHTML(html string) {
	p.update(func(cur *Inputs) { cur.Template.HTML = html })
}

// SetCSS replaces the author stylesheet
func (p *Pipeline) SetCSS(css string) {
	p.update(func(cur *Inputs) { cur.Template.CSS = css })
}

// SetContext replaces the render context
func (p *Pipeline) SetContext(ctx Context) {
	p.update(func(cur *Inputs) { cur.Context = ctx })
}

// SetOptions replaces the presentation options
func (p *Pipeline) SetOptions(o PresentationOptions) {
	p.update(func(cur *Inputs) { cur.Options = o })
}

// InsertSnippet appends the named snippet to the template half it targets
func (p *Pipeline) InsertSnippet(name string) error {
	def, ok := Snippet(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSnippet, name)
	}
	if p.update(func(cur *Inputs) { cur.Template = def.Apply(cur.Template) }) {
		p.metrics.IncrementCustomCounter("snippet." + name)
	}
	return nil
}

// update applies change and schedules a render. It reports false once the
// pipeline is closed.
func (p *Pipeline) update(change func(*Inputs)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	change(&p.inputs)
	p.schedule()
	return true
}

// schedule cancels the pending timer and starts a new one. Caller holds p.mu.
func (p *Pipeline) schedule() {
	p.gen++
	p.metrics.IncrementRenderScheduled()

	if p.timer != nil {
		p.timer.Stop()
	}
	gen := p.gen
	p.timer = time.AfterFunc(p.debounce, func() { p.fire(gen) })
}

func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		// A newer change re-armed the timer after this one was already firing
		p.mu.Unlock()
		return
	}
	p.timer = nil
	in := p.inputs
	p.mu.Unlock()

	p.execute(gen, in)
}

// Flush cancels any pending timer and renders the current inputs now.
// It must not be called from a subscriber.
func (p *Pipeline) Flush() Result {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.gen == 0 {
		p.gen = 1
	}
	if p.published == p.gen {
		current := p.current
		p.mu.Unlock()
		return current
	}
	gen, in := p.gen, p.inputs
	p.mu.Unlock()

	p.execute(gen, in)
	return p.Current()
}

// execute renders one snapshot and publishes it unless a newer generation
// has already been published
func (p *Pipeline) execute(gen uint64, in Inputs) {
	doc, err := p.safeRender(in)
	p.metrics.IncrementRenderExecuted()
	if err != nil {
		p.metrics.IncrementRenderFailure()
	}

	result := Result{
		Document:   doc,
		Err:        err,
		Options:    in.Options.Normalize(),
		Generation: gen,
		RenderedAt: time.Now(),
	}

	// Held across publish and notify so subscribers observe results in
	// publication order. Lock order is notifyMu then mu.
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if gen <= p.published {
		p.mu.Unlock()
		p.metrics.IncrementRenderSuperseded()
		return
	}
	p.published = gen
	p.current = result
	subs := make([]func(Result), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(result)
	}
}

// safeRender runs the render func and converts failures into the error document
func (p *Pipeline) safeRender(in Inputs) (doc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Stage: "panic", Err: fmt.Errorf("%v", r)}
			doc = document.ErrorDocument(err, in.Options.documentOptions())
		}
	}()

	doc, err = p.render(in.Template, in.Context, in.Options)
	if err != nil {
		return document.ErrorDocument(err, in.Options.documentOptions()), err
	}
	return doc, nil
}

// Current returns the most recently published result
func (p *Pipeline) Current() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// CurrentDocument returns the most recently published document
func (p *Pipeline) CurrentDocument() string {
	return p.Current().Document
}

// Subscribe registers fn to receive every published result. The returned
// func removes the subscription.
func (p *Pipeline) Subscribe(fn func(Result)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Close stops the pending timer. Later input changes are ignored.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
