// Package watch reloads template files from disk into a render pipeline.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/livefir/docpreview"
)

// Target receives reloaded inputs. *docpreview.Pipeline implements it.
type Target interface {
	SetTemplate(docpreview.Template)
	SetContext(docpreview.Context)
}

// Watcher watches a template's HTML and CSS files, plus an optional data
// context file. Bursts of changes are left to the pipeline's debounce.
type Watcher struct {
	htmlPath    string
	cssPath     string
	contextPath string
	target      Target
}

// Option configures a Watcher instance
type Option func(*Watcher)

// WithCSSFile watches a stylesheet next to the markup
func WithCSSFile(path string) Option {
	return func(w *Watcher) {
		w.cssPath = path
	}
}

// WithContextFile watches a YAML or JSON data context file
func WithContextFile(path string) Option {
	return func(w *Watcher) {
		w.contextPath = path
	}
}

// New creates a watcher for the HTML file at htmlPath
func New(htmlPath string, target Target, opts ...Option) (*Watcher, error) {
	if htmlPath == "" {
		return nil, errors.New("html path is required")
	}
	w := &Watcher{htmlPath: htmlPath, target: target}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range []*string{&w.htmlPath, &w.cssPath, &w.contextPath} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return w, nil
}

// Run loads the files once and then reloads them on every change until
// ctx is cancelled. Directories are watched rather than files so editors
// that save by renaming are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]bool{}
	for _, p := range w.paths() {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	if err := w.loadTemplate(); err != nil {
		return err
	}
	if w.contextPath != "" {
		if err := w.loadContext(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.handle(filepath.Clean(event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (w *Watcher) paths() []string {
	paths := []string{w.htmlPath}
	if w.cssPath != "" {
		paths = append(paths, w.cssPath)
	}
	if w.contextPath != "" {
		paths = append(paths, w.contextPath)
	}
	return paths
}

func (w *Watcher) handle(name string) {
	var err error
	switch name {
	case w.htmlPath, w.cssPath:
		err = w.loadTemplate()
	case w.contextPath:
		err = w.loadContext()
	default:
		return
	}

	// A file may be briefly missing or half written while an editor saves
	if err != nil {
		log.Printf("Reload of %s skipped: %v", filepath.Base(name), err)
	}
}

func (w *Watcher) loadTemplate() error {
	html, err := os.ReadFile(w.htmlPath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	tmpl := docpreview.Template{HTML: string(html)}
	if w.cssPath != "" {
		css, err := os.ReadFile(w.cssPath)
		if err != nil {
			return fmt.Errorf("failed to read stylesheet: %w", err)
		}
		tmpl.CSS = string(css)
	}

	w.target.SetTemplate(tmpl)
	return nil
}

func (w *Watcher) loadContext() error {
	f, err := os.Open(w.contextPath)
	if err != nil {
		return fmt.Errorf("failed to open context: %w", err)
	}
	defer f.Close()

	ctx, err := docpreview.LoadContext(f)
	if err != nil {
		return err
	}
	w.target.SetContext(ctx)
	return nil
}
