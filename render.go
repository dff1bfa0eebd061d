package docpreview

import (
	"fmt"

	"github.com/livefir/docpreview/internal/document"
	"github.com/livefir/docpreview/internal/expand"
)

// ErrUnterminatedBlock is wrapped by render errors for an {{#each}} with
// no matching {{/each}}
var ErrUnterminatedBlock = expand.ErrUnterminatedBlock

// RenderError describes why a render produced the error document
type RenderError struct {
	Stage string // "expand" or "panic"
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed during %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Render binds the template against ctx and assembles the complete
// document. Identical inputs always produce identical output.
func Render(t Template, ctx Context, opts PresentationOptions) (string, error) {
	body, err := expand.Expand(t.HTML, ctx)
	if err != nil {
		return "", &RenderError{Stage: "expand", Err: err}
	}
	return document.Assemble(body, t.CSS, opts.documentOptions()), nil
}

// RenderOrError always returns a displayable document. When rendering
// fails, or panics, the document is a visible error notice and err
// reports the cause.
func RenderOrError(t Template, ctx Context, opts PresentationOptions) (doc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Stage: "panic", Err: fmt.Errorf("%v", r)}
			doc = document.ErrorDocument(err, opts.documentOptions())
		}
	}()

	doc, err = Render(t, ctx, opts)
	if err != nil {
		return document.ErrorDocument(err, opts.documentOptions()), err
	}
	return doc, nil
}

// Variables lists the distinct variable paths a template references
func (t Template) Variables() []string {
	return expand.Variables(t.HTML)
}
