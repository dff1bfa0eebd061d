package docpreview

import "sort"

// Predefined fragments an author can append to their working template
const (
	SnippetHeader = `
<header class="doc-header">
  <img class="doc-logo" src="{{company.logo_url}}" alt="">
  <div>
    <h1>{{company.name}}</h1>
    <p class="doc-period">{{period.month_label}}</p>
  </div>
</header>
`

	SnippetTable = `
<table class="doc-table">
  <thead>
    <tr><th>Case</th><th>Hours</th></tr>
  </thead>
  <tbody>
    {{#each per_case}}<tr><td>{{case_id}}</td><td>{{hours}}</td></tr>{{/each}}
  </tbody>
  <tfoot>
    <tr><th>Total</th><th>{{totals.total_hours}}</th></tr>
    <tr><th>Amount</th><th>{{totals.total_amount}}</th></tr>
  </tfoot>
</table>
`

	SnippetReport = `
<section class="doc-report">
  <h2>Case {{report.case_id}} &middot; {{report.month}}</h2>
  <p class="doc-status">Status: {{report.status}}</p>
  <h3>Background</h3>
  <div>{{report.background}}</div>
  <h3>Actions</h3>
  <div>{{report.actions}}</div>
  <h3>Progress</h3>
  <div>{{report.progress}}</div>
  <h3>Challenges</h3>
  <div>{{report.challenges}}</div>
  <h3>Factors</h3>
  <div>{{report.factors}}</div>
  <h3>Assessment</h3>
  <div>{{report.assessment}}</div>
  <h3>Recommendations</h3>
  <div>{{report.recommendations}}</div>
</section>
`

	SnippetBaseCSS = `
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #222; padding: 24px; }
.doc-header { display: flex; align-items: center; gap: 16px; border-bottom: 2px solid #333; padding-bottom: 12px; margin-bottom: 16px; }
.doc-logo { max-height: 48px; }
.doc-header h1 { margin: 0; font-size: 20px; }
.doc-period { margin: 4px 0 0; color: #666; }
.doc-table { width: 100%; border-collapse: collapse; }
.doc-table th, .doc-table td { border: 1px solid #ccc; padding: 4px 8px; text-align: start; }
.doc-table thead th { background: #f4f4f4; }
.doc-report h2 { font-size: 16px; }
.doc-report h3 { font-size: 13px; margin: 16px 0 4px; }
`
)

// SnippetTarget says which half of a Template a snippet is appended to
type SnippetTarget string

const (
	TargetHTML SnippetTarget = "html"
	TargetCSS  SnippetTarget = "css"
)

// SnippetDef is a named fragment
type SnippetDef struct {
	Name   string        `json:"name"`
	Target SnippetTarget `json:"target"`
	Text   string        `json:"text"`
}

var snippets = map[string]SnippetDef{
	"header":   {Name: "header", Target: TargetHTML, Text: SnippetHeader},
	"table":    {Name: "table", Target: TargetHTML, Text: SnippetTable},
	"report":   {Name: "report", Target: TargetHTML, Text: SnippetReport},
	"base_css": {Name: "base_css", Target: TargetCSS, Text: SnippetBaseCSS},
}

// InsertSnippet appends snippet to current. Repeated insertion repeats
// the fragment.
func InsertSnippet(current, snippet string) string {
	return current + snippet
}

// Snippet looks up a named fragment
func Snippet(name string) (SnippetDef, bool) {
	def, ok := snippets[name]
	return def, ok
}

// Snippets returns the names of all fragments, sorted
func Snippets() []string {
	names := make([]string, 0, len(snippets))
	for name := range snippets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply appends the fragment to the matching half of tmpl
func (s SnippetDef) Apply(tmpl Template) Template {
	switch s.Target {
	case TargetCSS:
		tmpl.CSS = InsertSnippet(tmpl.CSS, s.Text)
	default:
		tmpl.HTML = InsertSnippet(tmpl.HTML, s.Text)
	}
	return tmpl
}
