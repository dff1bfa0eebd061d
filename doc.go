// Package docpreview binds company document templates against a data
// context and renders a self-contained preview document.
//
// A Template is an author-owned HTML/CSS pair using two token forms:
//
//	{{ company.name }}                    variable reference
//	{{#each per_case}}...{{/each}}        flat iteration block
//
// Render is a pure function of (Template, Context, PresentationOptions).
// Pipeline wraps it with a debounced, supersede-on-change render loop that
// owns the current document, and Exporter turns that document into a
// static HTML download or a paginated PDF with a print-dialog fallback.
//
// Values are interpolated without HTML escaping. Templates are trusted
// at the same level as whoever can edit company settings.
package docpreview
