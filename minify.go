package docpreview

import (
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns a configured document minifier (singleton)
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/css", css.Minify)
		minifier.Add("text/html", &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return minifier
}

// minifyDocument shrinks an exported document. Minification is best
// effort: on failure the original is returned.
func minifyDocument(doc string) string {
	minified, err := getMinifier().String("text/html", doc)
	if err != nil {
		return doc
	}
	return minified
}
