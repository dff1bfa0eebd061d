package docpreview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/livefir/docpreview/internal/metrics"
)

var (
	// ErrNoDocument is returned when exporting before anything has rendered
	ErrNoDocument = errors.New("no rendered document to export")

	// ErrNoConverter is the conversion error recorded when no converter is configured
	ErrNoConverter = errors.New("paginated conversion unavailable")

	// ErrNoFallback is returned when conversion failed and no print fallback is configured
	ErrNoFallback = errors.New("no print fallback configured")
)

// DocumentSource supplies the document an export consumes. *Pipeline
// implements it.
type DocumentSource interface {
	Current() Result
}

// Converter turns a document into a paginated file. Each call must use
// its own rendering surface so concurrent conversions share nothing.
type Converter interface {
	Convert(ctx context.Context, doc string, o Orientation) ([]byte, error)
}

// PrintFallback opens the document in a fresh viewing context and
// invokes its native print affordance
type PrintFallback interface {
	Print(ctx context.Context, doc string) error
}

// PDFResult describes a paginated export. Exactly one of Data or
// FellBack is set.
type PDFResult struct {
	Filename      string
	Path          string // set by SavePDF when Data was written
	Data          []byte
	FellBack      bool
	ConversionErr error // why the fallback was used
}

// Exporter turns the current rendered document into downloadable files.
// It never triggers a render.
type Exporter struct {
	source     DocumentSource
	converter  Converter
	fallback   PrintFallback
	minifyHTML bool
	metrics    *metrics.Collector
}

// ExporterOption configures an Exporter instance
type ExporterOption func(*Exporter)

// WithConverter sets the paginated-file converter
func WithConverter(c Converter) ExporterOption {
	return func(e *Exporter) {
		e.converter = c
	}
}

// WithPrintFallback sets the flow used when conversion fails
func WithPrintFallback(f PrintFallback) ExporterOption {
	return func(e *Exporter) {
		e.fallback = f
	}
}

// WithMinifiedHTML enables minification of static exports
func WithMinifiedHTML(enabled bool) ExporterOption {
	return func(e *Exporter) {
		e.minifyHTML = enabled
	}
}

// WithExportMetrics records export activity in c
func WithExportMetrics(c *metrics.Collector) ExporterOption {
	return func(e *Exporter) {
		e.metrics = c
	}
}

// NewExporter creates an exporter reading from source
func NewExporter(source DocumentSource, opts ...ExporterOption) *Exporter {
	e := &Exporter{source: source}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.NewCollector()
	}
	return e
}

// current returns the latest result or ErrNoDocument
func (e *Exporter) current() (Result, error) {
	res := e.source.Current()
	if res.Document == "" {
		return Result{}, ErrNoDocument
	}
	return res, nil
}

// WriteHTML writes the current document as a static HTML file
func (e *Exporter) WriteHTML(w io.Writer) error {
	res, err := e.current()
	if err != nil {
		return err
	}

	doc := res.Document
	if e.minifyHTML {
		doc = minifyDocument(doc)
	}

	if _, err := io.WriteString(w, doc); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	e.metrics.IncrementHTMLExport()
	return nil
}

// SaveHTML writes <type>-preview.html into dir and returns its path
func (e *Exporter) SaveHTML(dir string, t Type) (string, error) {
	path := filepath.Join(dir, t.PreviewFilename("html"))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := e.WriteHTML(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// PDF converts the current document into a paginated file. When the
// converter is missing, fails, or panics, the print fallback runs once
// instead and the conversion error is only recorded in the result.
func (e *Exporter) PDF(ctx context.Context, t Type) (PDFResult, error) {
	res, err := e.current()
	if err != nil {
		return PDFResult{}, err
	}

	result := PDFResult{Filename: t.PreviewFilename("pdf")}

	data, convErr := e.convert(ctx, res)
	if convErr == nil {
		result.Data = data
		e.metrics.IncrementPDFExport()
		return result, nil
	}

	log.Printf("PDF conversion failed, falling back to print dialog: %v", convErr)
	result.FellBack = true
	result.ConversionErr = convErr
	e.metrics.IncrementPrintFallback()

	if e.fallback == nil {
		return result, ErrNoFallback
	}
	if err := e.fallback.Print(ctx, res.Document); err != nil {
		return result, fmt.Errorf("print fallback failed: %w", err)
	}
	return result, nil
}

// convert runs the converter, treating a panic like any other failure
func (e *Exporter) convert(ctx context.Context, res Result) (data []byte, err error) {
	if e.converter == nil {
		return nil, ErrNoConverter
	}

	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("converter panic: %v", r)
		}
	}()

	data, err = e.converter.Convert(ctx, res.Document, res.Options.Normalize().Orientation)
	if err == nil && len(data) == 0 {
		err = errors.New("converter returned an empty file")
	}
	return data, err
}

// SavePDF runs PDF and writes the file into dir when conversion succeeded
func (e *Exporter) SavePDF(ctx context.Context, dir string, t Type) (PDFResult, error) {
	result, err := e.PDF(ctx, t)
	if err != nil || result.FellBack {
		return result, err
	}

	path := filepath.Join(dir, result.Filename)
	if err := os.WriteFile(path, result.Data, 0644); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", path, err)
	}
	result.Path = path
	return result, nil
}
