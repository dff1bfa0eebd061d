package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/livefir/docpreview"
	"github.com/livefir/docpreview/internal/pdf"
)

// Render writes the rendered document to stdout. A template error still
// writes the error document and is returned.
func Render(args []string) error {
	f := parseFlags(args, withCommon("html", "css")...)
	ctx := context.Background()

	e, err := loadEnv(ctx, f)
	if err != nil {
		return err
	}
	defer e.close()

	tmpl, err := e.template(ctx, f)
	if err != nil {
		return err
	}
	p, err := e.pipeline(tmpl)
	if err != nil {
		return err
	}
	defer p.Close()

	res := p.Flush()
	if _, err := io.WriteString(stdout, res.Document); err != nil {
		return err
	}
	return res.Err
}

// Export renders once and saves the document as html or pdf
func Export(args []string) error {
	f := parseFlags(args, withCommon("html", "css", "out")...)
	if len(f.positional) < 1 {
		return fmt.Errorf("format required: html or pdf")
	}
	format := f.positional[0]
	if format != "html" && format != "pdf" {
		return fmt.Errorf("unknown format: %s (expected: html, pdf)", format)
	}

	ctx := context.Background()
	e, err := loadEnv(ctx, f)
	if err != nil {
		return err
	}
	defer e.close()

	tmpl, err := e.template(ctx, f)
	if err != nil {
		return err
	}
	p, err := e.pipeline(tmpl)
	if err != nil {
		return err
	}
	defer p.Close()

	if res := p.Flush(); res.Err != nil {
		return res.Err
	}

	outDir := e.cfg.Export.OutputDir
	if v := f.get("out"); v != "" {
		outDir = v
	}
	exporter := e.exporter(p, pdf.NewBrowserPrint())

	if format == "html" {
		path, err := exporter.SaveHTML(outDir, e.cfg.Type())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ Wrote %s\n", path)
		return nil
	}

	result, err := exporter.SavePDF(ctx, outDir, e.cfg.Type())
	if err != nil {
		return err
	}
	if result.FellBack {
		fmt.Fprintf(stdout, "PDF conversion unavailable (%v), opened the print dialog instead\n", result.ConversionErr)
		return nil
	}
	fmt.Fprintf(stdout, "✅ Wrote %s\n", result.Path)
	return nil
}

// Vars lists the variable paths the template references
func Vars(args []string) error {
	f := parseFlags(args, withCommon("html", "css")...)
	ctx := context.Background()

	e, err := loadEnv(ctx, f)
	if err != nil {
		return err
	}
	defer e.close()

	tmpl, err := e.template(ctx, f)
	if err != nil {
		return err
	}
	for _, v := range tmpl.Variables() {
		fmt.Fprintln(stdout, v)
	}
	return nil
}

// Snippets lists the snippet library, or prints one snippet's text
func Snippets(args []string) error {
	if len(args) == 0 {
		for _, name := range docpreview.Snippets() {
			def, _ := docpreview.Snippet(name)
			fmt.Fprintf(stdout, "%-10s %s\n", name, def.Target)
		}
		return nil
	}

	def, ok := docpreview.Snippet(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", docpreview.ErrUnknownSnippet, args[0])
	}
	_, err := io.WriteString(stdout, def.Text)
	return err
}
