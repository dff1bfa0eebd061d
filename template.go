package docpreview

import (
	"context"
	"errors"
	"fmt"
)

// Template is the author-editable markup/stylesheet pair
type Template struct {
	HTML string `json:"html" yaml:"html"`
	CSS  string `json:"css" yaml:"css"`
}

// Context is the data tree a template is bound against. Values are
// strings, numbers, booleans, nested maps, or lists of maps.
type Context = map[string]any

// Type identifies which company document a template belongs to
type Type string

const (
	TypeTimesheet  Type = "timesheet"
	TypeCaseReport Type = "case_report"
)

// ErrUnknownType is returned for a template type outside the known set
var ErrUnknownType = errors.New("unknown template type")

// Types lists every template type
func Types() []Type {
	return []Type{TypeTimesheet, TypeCaseReport}
}

// ParseType validates a template type name
func ParseType(s string) (Type, error) {
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// PreviewFilename returns "<type>-preview.<ext>"
func (t Type) PreviewFilename(ext string) string {
	return string(t) + "-preview." + ext
}

// DefaultTemplate is what an operator starts from when nothing is stored
// for their company yet
func DefaultTemplate(t Type) Template {
	var tmpl Template
	switch t {
	case TypeCaseReport:
		tmpl.HTML = InsertSnippet(tmpl.HTML, SnippetHeader)
		tmpl.HTML = InsertSnippet(tmpl.HTML, SnippetReport)
	default:
		tmpl.HTML = InsertSnippet(tmpl.HTML, SnippetHeader)
		tmpl.HTML = InsertSnippet(tmpl.HTML, SnippetTable)
	}
	tmpl.CSS = InsertSnippet(tmpl.CSS, SnippetBaseCSS)
	return tmpl
}

// ErrTemplateNotFound is returned by a TemplateStore when no template is
// saved for the company and type
var ErrTemplateNotFound = errors.New("template not found")

// TemplateStore persists templates per company and type
type TemplateStore interface {
	GetTemplate(ctx context.Context, companyID string, t Type) (Template, error)
	PutTemplate(ctx context.Context, companyID string, t Type, tmpl Template) error
}

// LoadTemplate fetches the stored template, falling back to DefaultTemplate
// when the company has not saved one
func LoadTemplate(ctx context.Context, store TemplateStore, companyID string, t Type) (Template, error) {
	tmpl, err := store.GetTemplate(ctx, companyID, t)
	if errors.Is(err, ErrTemplateNotFound) {
		return DefaultTemplate(t), nil
	}
	if err != nil {
		return Template{}, fmt.Errorf("failed to load %s template for company %s: %w", t, companyID, err)
	}
	return tmpl, nil
}
