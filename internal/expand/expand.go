// Package expand binds template text against a render context.
//
// Two token forms exist: variable references ({{ company.name }}) and
// flat iteration blocks ({{#each per_case}}...{{/each}}). Blocks are
// expanded first in a single top-level pass, then variables are
// substituted across the whole block-expanded text. Nothing is
// HTML-escaped.
package expand

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const closeTag = "{{/each}}"

var (
	// {{#each ident}} where ident is a single unqualified key
	openPattern = regexp.MustCompile(`\{\{#each (\w+)\}\}`)

	// {{ path }} with optional inner whitespace
	varPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)
)

// ErrUnterminatedBlock is returned when an {{#each}} opener has no
// matching {{/each}} after it
var ErrUnterminatedBlock = errors.New("unterminated each block")

// BlockError reports where a malformed iteration block starts
type BlockError struct {
	Ident  string
	Offset int
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("{{#each %s}} at offset %d has no matching {{/each}}", e.Ident, e.Offset)
}

func (e *BlockError) Unwrap() error {
	return ErrUnterminatedBlock
}

// Expand renders tmpl against ctx. The only error it returns is a
// *BlockError for an unterminated iteration block.
func Expand(tmpl string, ctx map[string]any) (string, error) {
	blocks, err := expandBlocks(tmpl, ctx)
	if err != nil {
		return "", err
	}
	return Substitute(blocks, ctx), nil
}

// expandBlocks replaces each top-level block with its body rendered once
// per list item. Openers inside a body are left as literal text.
func expandBlocks(tmpl string, ctx map[string]any) (string, error) {
	var out strings.Builder
	out.Grow(len(tmpl))

	pos := 0
	for {
		loc := openPattern.FindStringSubmatchIndex(tmpl[pos:])
		if loc == nil {
			out.WriteString(tmpl[pos:])
			break
		}

		start, bodyStart := pos+loc[0], pos+loc[1]
		ident := tmpl[pos+loc[2] : pos+loc[3]]

		closeAt := strings.Index(tmpl[bodyStart:], closeTag)
		if closeAt < 0 {
			return "", &BlockError{Ident: ident, Offset: start}
		}
		body := tmpl[bodyStart : bodyStart+closeAt]

		out.WriteString(tmpl[pos:start])
		out.WriteString(renderBlock(ident, body, ctx))
		pos = bodyStart + closeAt + len(closeTag)
	}

	return out.String(), nil
}

func renderBlock(ident, body string, ctx map[string]any) string {
	items, ok := asList(ctx[ident])
	if !ok {
		return ""
	}

	var out strings.Builder
	for _, item := range items {
		out.WriteString(Substitute(body, merge(ctx, item)))
	}
	return out.String()
}

// Substitute replaces every variable reference in text with its resolved
// value. Unknown paths become the empty string.
func Substitute(text string, ctx map[string]any) string {
	matches := varPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	last := 0
	for _, m := range matches {
		out.WriteString(text[last:m[0]])
		out.WriteString(Stringify(Resolve(ctx, text[m[2]:m[3]])))
		last = m[1]
	}
	out.WriteString(text[last:])

	return out.String()
}

// Variables lists the distinct variable paths referenced in tmpl, in order
// of first appearance. Paths inside block bodies are included.
func Variables(tmpl string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, m := range varPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			paths = append(paths, m[1])
		}
	}
	return paths
}
