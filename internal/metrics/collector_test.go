package metrics

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	if collector == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if collector.renderMetrics == nil {
		t.Fatal("renderMetrics not initialized")
	}

	if collector.operationCounters == nil {
		t.Fatal("operationCounters not initialized")
	}

	metrics := collector.GetMetrics()
	if metrics.RendersExecuted != 0 || metrics.PDFExports != 0 {
		t.Errorf("Expected zeroed counters, got %+v", metrics)
	}
}

func TestRenderMetrics(t *testing.T) {
	collector := NewCollector()

	for i := 0; i < 5; i++ {
		collector.IncrementRenderScheduled()
	}
	collector.IncrementRenderExecuted()
	collector.IncrementRenderExecuted()
	collector.IncrementRenderFailure()
	collector.IncrementRenderSuperseded()

	metrics := collector.GetMetrics()
	if metrics.RendersScheduled != 5 {
		t.Errorf("Expected 5 scheduled, got %d", metrics.RendersScheduled)
	}
	if metrics.RendersExecuted != 2 {
		t.Errorf("Expected 2 executed, got %d", metrics.RendersExecuted)
	}
	if metrics.RenderFailures != 1 {
		t.Errorf("Expected 1 failure, got %d", metrics.RenderFailures)
	}
	if metrics.RendersSuperseded != 1 {
		t.Errorf("Expected 1 superseded, got %d", metrics.RendersSuperseded)
	}

	if rate := collector.GetFailureRate(); rate != 50.0 {
		t.Errorf("Expected failure rate 50, got %f", rate)
	}
	if ratio := collector.GetCoalescingRatio(); ratio != 2.5 {
		t.Errorf("Expected coalescing ratio 2.5, got %f", ratio)
	}
}

func TestExportMetrics(t *testing.T) {
	collector := NewCollector()

	collector.IncrementHTMLExport()
	collector.IncrementPDFExport()
	collector.IncrementPrintFallback()
	collector.IncrementPrintFallback()

	metrics := collector.GetMetrics()
	if metrics.HTMLExports != 1 || metrics.PDFExports != 1 || metrics.PrintFallbacks != 2 {
		t.Errorf("Unexpected export counters: %+v", metrics)
	}
}

func TestViewerMetrics(t *testing.T) {
	collector := NewCollector()

	collector.ViewerConnected()
	collector.ViewerConnected()
	collector.ViewerConnected()
	collector.ViewerDisconnected()

	metrics := collector.GetMetrics()
	if metrics.ActiveViewers != 2 {
		t.Errorf("Expected 2 active viewers, got %d", metrics.ActiveViewers)
	}
	if metrics.MaxActiveViewers != 3 {
		t.Errorf("Expected max 3 viewers, got %d", metrics.MaxActiveViewers)
	}
}

func TestEmptyRates(t *testing.T) {
	collector := NewCollector()

	if rate := collector.GetFailureRate(); rate != 0.0 {
		t.Errorf("Expected 0 failure rate, got %f", rate)
	}
	if ratio := collector.GetCoalescingRatio(); ratio != 0.0 {
		t.Errorf("Expected 0 coalescing ratio, got %f", ratio)
	}
}

func TestCustomCounters(t *testing.T) {
	collector := NewCollector()

	collector.IncrementCustomCounter("snippet.header")
	collector.IncrementCustomCounter("snippet.header")
	collector.IncrementCustomCounter("snippet.table")

	counters := collector.GetCustomCounters()
	if counters["snippet.header"] != 2 {
		t.Errorf("Expected 2, got %d", counters["snippet.header"])
	}
	if counters["snippet.table"] != 1 {
		t.Errorf("Expected 1, got %d", counters["snippet.table"])
	}
}

func TestReset(t *testing.T) {
	collector := NewCollector()

	collector.IncrementRenderExecuted()
	collector.IncrementCustomCounter("x")
	time.Sleep(5 * time.Millisecond)
	collector.Reset()

	metrics := collector.GetMetrics()
	if metrics.RendersExecuted != 0 {
		t.Errorf("Expected reset counter, got %d", metrics.RendersExecuted)
	}
	if len(collector.GetCustomCounters()) != 0 {
		t.Errorf("Expected no custom counters after reset")
	}
	if metrics.Uptime > time.Second {
		t.Errorf("Uptime not reset: %v", metrics.Uptime)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	collector := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.IncrementRenderScheduled()
				collector.IncrementCustomCounter("edits")
			}
		}()
	}
	wg.Wait()

	if got := collector.GetMetrics().RendersScheduled; got != 2000 {
		t.Errorf("Expected 2000, got %d", got)
	}
	if got := collector.GetCustomCounters()["edits"]; got != 2000 {
		t.Errorf("Expected 2000 custom, got %d", got)
	}
}

func TestMetricsJSON(t *testing.T) {
	collector := NewCollector()
	collector.IncrementPrintFallback()

	data, err := json.Marshal(collector.GetMetrics())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"print_fallbacks":1`) {
		t.Errorf("Expected print_fallbacks in JSON, got %s", data)
	}
}
