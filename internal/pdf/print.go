package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/docpreview"
)

// PrintScript triggers the browser print dialog once the document loads
const PrintScript = `window.addEventListener("load", function () { window.print(); });`

// Opener displays a local file in a new viewing context
type Opener func(ctx context.Context, path string) error

// BrowserPrint writes the document to a temporary file with an auto-print
// script and opens it in the system browser
type BrowserPrint struct {
	// Dir holds the printable copies. Empty uses os.TempDir.
	Dir  string
	Open Opener
}

var _ docpreview.PrintFallback = (*BrowserPrint)(nil)

// NewBrowserPrint creates a fallback that opens the system browser
func NewBrowserPrint() *BrowserPrint {
	return &BrowserPrint{Open: OpenInBrowser}
}

// Print implements docpreview.PrintFallback
func (b *BrowserPrint) Print(ctx context.Context, doc string) error {
	printable, err := InjectPrintScript(doc)
	if err != nil {
		return err
	}

	// The file outlives this call; the browser reads it after we return
	f, err := os.CreateTemp(b.Dir, "docpreview-print-*.html")
	if err != nil {
		return fmt.Errorf("failed to create print file: %w", err)
	}
	if _, err := f.WriteString(printable); err != nil {
		f.Close()
		return fmt.Errorf("failed to write print file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write print file: %w", err)
	}

	open := b.Open
	if open == nil {
		open = OpenInBrowser
	}
	if err := open(ctx, f.Name()); err != nil {
		return fmt.Errorf("failed to open print view: %w", err)
	}
	return nil
}

// InjectPrintScript appends PrintScript to the end of the document body
func InjectPrintScript(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	body := findElement(root, atom.Body)
	if body == nil {
		// html.Parse always synthesizes a body
		return "", fmt.Errorf("document has no body")
	}

	script := &html.Node{Type: html.ElementNode, DataAtom: atom.Script, Data: "script"}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: PrintScript})
	body.AppendChild(script)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// OpenInBrowser opens path with the platform's default handler. The
// handler is not tied to ctx; the browser must outlive the request.
func OpenInBrowser(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
