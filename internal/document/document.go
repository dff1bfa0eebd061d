// Package document wraps expanded template markup into a standalone
// HTML document with the generated presentation stylesheet.
package document

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PageMargin is applied to every printed page in fixed page mode
const PageMargin = "12mm"

// PageSize is the sheet used for fixed page mode and paginated export
const PageSize = "A4"

// Options controls the generated part of the stylesheet
type Options struct {
	Fixed     bool   // fixed print layout instead of fluid
	Landscape bool   // only meaningful when Fixed
	Direction string // "ltr" or "rtl"
}

// Stylesheet returns the generated rules followed by the author CSS.
// Author CSS comes last so it can override the generated rules.
func Stylesheet(authorCSS string, opts Options) string {
	var b strings.Builder

	dir := opts.Direction
	if dir == "" {
		dir = "ltr"
	}
	fmt.Fprintf(&b, "html { direction: %s; }\n", dir)

	if opts.Fixed {
		orientation := "portrait"
		if opts.Landscape {
			orientation = "landscape"
		}
		fmt.Fprintf(&b, "@page { size: %s %s; margin: %s; }\n", PageSize, orientation, PageMargin)
		b.WriteString("body { margin: 0; }\n")
	}

	b.WriteString(authorCSS)
	return b.String()
}

// Assemble builds the complete document. The body is inserted verbatim.
func Assemble(body, authorCSS string, opts Options) string {
	css := Stylesheet(authorCSS, opts)

	var b strings.Builder
	b.Grow(len(body) + len(css) + 128)

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	b.WriteString(css)
	if !strings.HasSuffix(css, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")

	return b.String()
}

// ErrorClass marks the notice element inside an error document
const ErrorClass = "docpreview-error"

const errorCSS = `.docpreview-error { font-family: sans-serif; margin: 16px; padding: 12px 16px; border: 1px solid #d32f2f; border-radius: 4px; background: #fdecea; color: #611a15; }
.docpreview-error h2 { margin: 0 0 8px; font-size: 16px; }
.docpreview-error pre { margin: 0; white-space: pre-wrap; }
`

// ErrorDocument renders a visible notice for a failed render. The
// message is escaped since it can echo template text.
func ErrorDocument(err error, opts Options) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	body := fmt.Sprintf(`<div class="%s" role="alert"><h2>Template error</h2><pre>%s</pre></div>`,
		ErrorClass, html.EscapeString(msg))

	// Print sizing is irrelevant for the notice
	return Assemble(body, errorCSS, Options{Direction: opts.Direction})
}
