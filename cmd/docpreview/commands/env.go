// Package commands implements the docpreview subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/livefir/docpreview"
	"github.com/livefir/docpreview/internal/config"
	"github.com/livefir/docpreview/internal/pdf"
	"github.com/livefir/docpreview/internal/store"
)

// stdout receives command output; tests replace it
var stdout io.Writer = os.Stdout

// flags holds --name value pairs and the remaining positional arguments
type flags struct {
	values     map[string]string
	positional []string
}

// parseFlags extracts the named value flags from args
func parseFlags(args []string, names ...string) flags {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	f := flags{values: map[string]string{}}
	for i := 0; i < len(args); i++ {
		name := strings.TrimPrefix(args[i], "--")
		if name != args[i] && known[name] && i+1 < len(args) {
			f.values[name] = args[i+1]
			i++
			continue
		}
		f.positional = append(f.positional, args[i])
	}
	return f
}

func (f flags) get(name string) string {
	return f.values[name]
}

// withCommon returns the flags every configured command accepts plus extra
func withCommon(extra ...string) []string {
	names := []string{"config", "company", "type", "db", "mode", "orientation", "dir", "context"}
	return append(names, extra...)
}

// env is the configuration and storage a command runs against
type env struct {
	cfg   *config.Config
	store docpreview.TemplateStore
	close func() error
}

// loadEnv reads the config file and applies flag overrides
func loadEnv(ctx context.Context, f flags) (*env, error) {
	cfg, err := config.Load(f.get("config"))
	if err != nil {
		return nil, err
	}

	if v := f.get("company"); v != "" {
		cfg.CompanyID = v
	}
	if v := f.get("type"); v != "" {
		cfg.TemplateType = v
	}
	if v := f.get("db"); v != "" {
		cfg.Database = v
	}
	if v := f.get("context"); v != "" {
		cfg.Render.ContextFile = v
	}
	if v := f.get("mode"); v != "" {
		cfg.Presentation.PageMode = docpreview.PageMode(v)
	}
	if v := f.get("orientation"); v != "" {
		cfg.Presentation.Orientation = docpreview.Orientation(v)
	}
	if v := f.get("dir"); v != "" {
		cfg.Presentation.Direction = docpreview.Direction(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Presentation.Validate(); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, close: func() error { return nil }}
	if cfg.Database == "" {
		e.store = store.NewMemoryStore()
		return e, nil
	}

	s, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	e.store = s
	e.close = s.Close
	return e, nil
}

// dataContext loads the configured context file, or the sample data
func (e *env) dataContext() (docpreview.Context, error) {
	if e.cfg.Render.ContextFile == "" {
		return docpreview.SampleContext(), nil
	}

	f, err := os.Open(e.cfg.Render.ContextFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open context file: %w", err)
	}
	defer f.Close()
	return docpreview.LoadContext(f)
}

// template reads --html/--css files when given, otherwise the stored
// template for the configured company and type
func (e *env) template(ctx context.Context, f flags) (docpreview.Template, error) {
	htmlPath := f.get("html")
	if htmlPath == "" {
		return docpreview.LoadTemplate(ctx, e.store, e.cfg.CompanyID, e.cfg.Type())
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return docpreview.Template{}, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl := docpreview.Template{HTML: string(html)}

	if cssPath := f.get("css"); cssPath != "" {
		css, err := os.ReadFile(cssPath)
		if err != nil {
			return docpreview.Template{}, fmt.Errorf("failed to read stylesheet: %w", err)
		}
		tmpl.CSS = string(css)
	}
	return tmpl, nil
}

// pipeline builds a pipeline seeded with the template and data context
func (e *env) pipeline(tmpl docpreview.Template) (*docpreview.Pipeline, error) {
	data, err := e.dataContext()
	if err != nil {
		return nil, err
	}

	return docpreview.NewPipeline(
		docpreview.WithDebounce(e.cfg.Render.Debounce),
		docpreview.WithInitial(docpreview.Inputs{
			Template: tmpl,
			Context:  data,
			Options:  e.cfg.Presentation,
		}),
	), nil
}

// exporter wires the Chrome converter and the given print fallback
func (e *env) exporter(p *docpreview.Pipeline, fallback docpreview.PrintFallback) *docpreview.Exporter {
	conv := pdf.NewChromeConverter(pdf.Options{
		ExecPath: e.cfg.Export.ChromePath,
		Timeout:  e.cfg.Export.Timeout,
	})

	return docpreview.NewExporter(p,
		docpreview.WithConverter(conv),
		docpreview.WithPrintFallback(fallback),
		docpreview.WithMinifiedHTML(e.cfg.Export.MinifyHTML),
		docpreview.WithExportMetrics(p.Metrics()),
	)
}
