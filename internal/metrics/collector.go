package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides built-in render and export counters with no external dependencies
type Collector struct {
	renderMetrics     *RenderMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// RenderMetrics tracks render pipeline and export activity
type RenderMetrics struct {
	// Render pipeline
	RendersScheduled  int64 `json:"renders_scheduled"`
	RendersExecuted   int64 `json:"renders_executed"`
	RenderFailures    int64 `json:"render_failures"`
	RendersSuperseded int64 `json:"renders_superseded"`

	// Export pipeline
	HTMLExports    int64 `json:"html_exports"`
	PDFExports     int64 `json:"pdf_exports"`
	PrintFallbacks int64 `json:"print_fallbacks"`

	// Preview surface
	ActiveViewers    int64 `json:"active_viewers"`
	MaxActiveViewers int64 `json:"max_active_viewers"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		renderMetrics:     &RenderMetrics{StartTime: now},
		operationCounters: make(map[string]*int64),
		startTime:         now,
	}
}

// IncrementRenderScheduled records an input change that armed the debounce timer
func (c *Collector) IncrementRenderScheduled() {
	atomic.AddInt64(&c.renderMetrics.RendersScheduled, 1)
}

// IncrementRenderExecuted records a completed render
func (c *Collector) IncrementRenderExecuted() {
	atomic.AddInt64(&c.renderMetrics.RendersExecuted, 1)
}

// IncrementRenderFailure records a render that produced an error document
func (c *Collector) IncrementRenderFailure() {
	atomic.AddInt64(&c.renderMetrics.RenderFailures, 1)
}

// IncrementRenderSuperseded records a render result dropped because newer inputs already published
func (c *Collector) IncrementRenderSuperseded() {
	atomic.AddInt64(&c.renderMetrics.RendersSuperseded, 1)
}

// IncrementHTMLExport records a static document export
func (c *Collector) IncrementHTMLExport() {
	atomic.AddInt64(&c.renderMetrics.HTMLExports, 1)
}

// IncrementPDFExport records a successful paginated export
func (c *Collector) IncrementPDFExport() {
	atomic.AddInt64(&c.renderMetrics.PDFExports, 1)
}

// IncrementPrintFallback records a paginated export that fell back to the print dialog
func (c *Collector) IncrementPrintFallback() {
	atomic.AddInt64(&c.renderMetrics.PrintFallbacks, 1)
}

// ViewerConnected records a preview client connection
func (c *Collector) ViewerConnected() {
	current := atomic.AddInt64(&c.renderMetrics.ActiveViewers, 1)

	// Update max if needed
	for {
		max := atomic.LoadInt64(&c.renderMetrics.MaxActiveViewers)
		if current <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.renderMetrics.MaxActiveViewers, max, current) {
			break
		}
	}
}

// ViewerDisconnected records a preview client leaving
func (c *Collector) ViewerDisconnected() {
	atomic.AddInt64(&c.renderMetrics.ActiveViewers, -1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns a snapshot of the current counters
func (c *Collector) GetMetrics() RenderMetrics {
	c.mu.RLock()
	start := c.startTime
	c.mu.RUnlock()

	return RenderMetrics{
		RendersScheduled:  atomic.LoadInt64(&c.renderMetrics.RendersScheduled),
		RendersExecuted:   atomic.LoadInt64(&c.renderMetrics.RendersExecuted),
		RenderFailures:    atomic.LoadInt64(&c.renderMetrics.RenderFailures),
		RendersSuperseded: atomic.LoadInt64(&c.renderMetrics.RendersSuperseded),
		HTMLExports:       atomic.LoadInt64(&c.renderMetrics.HTMLExports),
		PDFExports:        atomic.LoadInt64(&c.renderMetrics.PDFExports),
		PrintFallbacks:    atomic.LoadInt64(&c.renderMetrics.PrintFallbacks),
		ActiveViewers:     atomic.LoadInt64(&c.renderMetrics.ActiveViewers),
		MaxActiveViewers:  atomic.LoadInt64(&c.renderMetrics.MaxActiveViewers),
		StartTime:         start,
		Uptime:            time.Since(start),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreInt64(&c.renderMetrics.RendersScheduled, 0)
	atomic.StoreInt64(&c.renderMetrics.RendersExecuted, 0)
	atomic.StoreInt64(&c.renderMetrics.RenderFailures, 0)
	atomic.StoreInt64(&c.renderMetrics.RendersSuperseded, 0)
	atomic.StoreInt64(&c.renderMetrics.HTMLExports, 0)
	atomic.StoreInt64(&c.renderMetrics.PDFExports, 0)
	atomic.StoreInt64(&c.renderMetrics.PrintFallbacks, 0)
	atomic.StoreInt64(&c.renderMetrics.MaxActiveViewers, atomic.LoadInt64(&c.renderMetrics.ActiveViewers))

	c.operationCounters = make(map[string]*int64)

	c.startTime = time.Now()
	c.renderMetrics.StartTime = c.startTime
}

// GetFailureRate returns the percentage of executed renders that failed
func (c *Collector) GetFailureRate() float64 {
	executed := atomic.LoadInt64(&c.renderMetrics.RendersExecuted)
	failures := atomic.LoadInt64(&c.renderMetrics.RenderFailures)

	if executed == 0 {
		return 0.0
	}

	return float64(failures) / float64(executed) * 100.0
}

// GetCoalescingRatio returns scheduled renders per executed render.
// A value above 1 means the debounce window collapsed bursts of edits.
func (c *Collector) GetCoalescingRatio() float64 {
	scheduled := atomic.LoadInt64(&c.renderMetrics.RendersScheduled)
	executed := atomic.LoadInt64(&c.renderMetrics.RendersExecuted)

	if executed == 0 {
		return 0.0
	}

	return float64(scheduled) / float64(executed)
}
