package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/livefir/docpreview"
)

// capture redirects command output for the duration of the test
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	// Never pick up the developer's own config file
	t.Setenv("DOCPREVIEW_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	return &buf
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		want       map[string]string
		positional []string
	}{
		{
			name:       "values and positional",
			args:       []string{"pdf", "--out", "dist", "--type", "case_report"},
			want:       map[string]string{"out": "dist", "type": "case_report"},
			positional: []string{"pdf"},
		},
		{
			name:       "unknown flag stays positional",
			args:       []string{"--verbose", "x"},
			want:       map[string]string{},
			positional: []string{"--verbose", "x"},
		},
		{
			name:       "missing value",
			args:       []string{"--out"},
			want:       map[string]string{},
			positional: []string{"--out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseFlags(tt.args, "out", "type")
			for k, v := range tt.want {
				if f.get(k) != v {
					t.Errorf("get(%q) = %q, want %q", k, f.get(k), v)
				}
			}
			if len(f.values) != len(tt.want) {
				t.Errorf("values = %v", f.values)
			}
			if strings.Join(f.positional, " ") != strings.Join(tt.positional, " ") {
				t.Errorf("positional = %v, want %v", f.positional, tt.positional)
			}
		})
	}
}

func TestRender(t *testing.T) {
	out := capture(t)
	html := writeTemp(t, "t.html", "<h1>{{company.name}}</h1>")
	css := writeTemp(t, "t.css", "h1 { color: navy; }")

	if err := Render([]string{"--html", html, "--css", css, "--mode", "fixed", "--orientation", "landscape"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	doc := out.String()
	for _, want := range []string{"<h1>Acme Care Services</h1>", "h1 { color: navy; }", "size: A4 landscape"} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %q in:\n%s", want, doc)
		}
	}
}

func TestRender_ContextFile(t *testing.T) {
	out := capture(t)
	html := writeTemp(t, "t.html", "{{company.name}}")
	data := writeTemp(t, "data.yaml", "company:\n  name: Globex\n")

	if err := Render([]string{"--html", html, "--context", data}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out.String(), "\nGlobex\n") {
		t.Errorf("context file not used:\n%s", out.String())
	}
}

func TestRender_TemplateError(t *testing.T) {
	out := capture(t)
	html := writeTemp(t, "t.html", "{{#each per_case}}<tr>")

	err := Render([]string{"--html", html})
	if !errors.Is(err, docpreview.ErrUnterminatedBlock) {
		t.Errorf("Render() error = %v, want ErrUnterminatedBlock", err)
	}
	if !strings.Contains(out.String(), "docpreview-error") {
		t.Errorf("expected error document on stdout")
	}
}

func TestRender_InvalidOptions(t *testing.T) {
	capture(t)
	html := writeTemp(t, "t.html", "x")

	if err := Render([]string{"--html", html, "--mode", "scroll"}); err == nil {
		t.Error("expected error for invalid page mode")
	}
}

func TestRender_StoredDefault(t *testing.T) {
	out := capture(t)

	if err := Render([]string{"--type", "case_report"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out.String(), "Case C-1001") {
		t.Errorf("expected default case report:\n%s", out.String())
	}
}

func TestExportHTML(t *testing.T) {
	out := capture(t)
	dir := t.TempDir()
	html := writeTemp(t, "t.html", "<p>{{period.month_label}}</p>")

	if err := Export([]string{"html", "--html", html, "--out", dir}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	path := filepath.Join(dir, "timesheet-preview.html")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if !strings.Contains(string(data), "<p>January 2025</p>") {
		t.Errorf("unexpected export:\n%s", data)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output should name the file: %s", out.String())
	}
}

func TestExport_BadFormat(t *testing.T) {
	capture(t)
	if err := Export([]string{"docx"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := Export(nil); err == nil {
		t.Error("expected error for missing format")
	}
}

func TestTemplate_PutGet(t *testing.T) {
	out := capture(t)
	db := filepath.Join(t.TempDir(), "templates.sqlite")
	html := writeTemp(t, "t.html", "<p>stored</p>")

	if err := Template([]string{"put", "--db", db, "--company", "acme", "--html", html}); err != nil {
		t.Fatalf("template put error = %v", err)
	}

	out.Reset()
	if err := Template([]string{"get", "--db", db, "--company", "acme"}); err != nil {
		t.Fatalf("template get error = %v", err)
	}
	if !strings.Contains(out.String(), "<p>stored</p>") {
		t.Errorf("template get output:\n%s", out.String())
	}

	out.Reset()
	if err := Template([]string{"get", "--db", db, "--company", "globex"}); err != nil {
		t.Fatalf("template get error = %v", err)
	}
	if !strings.Contains(out.String(), "{{#each per_case}}") {
		t.Errorf("other company should get the default template")
	}
}

func TestTemplate_PutNeedsDatabase(t *testing.T) {
	capture(t)
	html := writeTemp(t, "t.html", "x")

	if err := Template([]string{"put", "--html", html}); err == nil {
		t.Error("expected error without database")
	}
	if err := Template([]string{"put"}); err == nil {
		t.Error("expected error without --html")
	}
	if err := Template([]string{"rename"}); err == nil {
		t.Error("expected error for unknown subcommand")
	}
}

func TestMigrate(t *testing.T) {
	out := capture(t)
	db := filepath.Join(t.TempDir(), "templates.sqlite")

	if err := Migrate([]string{"--db", db}); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	out.Reset()
	if err := Migrate([]string{"status", "--db", db}); err != nil {
		t.Fatalf("Migrate(status) error = %v", err)
	}
	if !strings.Contains(out.String(), "Schema version: 1") {
		t.Errorf("status output: %s", out.String())
	}

	if err := Migrate(nil); err == nil {
		t.Error("expected error without database")
	}
}

func TestSnippets(t *testing.T) {
	out := capture(t)

	if err := Snippets(nil); err != nil {
		t.Fatalf("Snippets() error = %v", err)
	}
	for _, name := range docpreview.Snippets() {
		if !strings.Contains(out.String(), name) {
			t.Errorf("listing lacks %s", name)
		}
	}

	out.Reset()
	if err := Snippets([]string{"header"}); err != nil {
		t.Fatalf("Snippets(header) error = %v", err)
	}
	if out.String() != docpreview.SnippetHeader {
		t.Errorf("header text = %q", out.String())
	}

	if err := Snippets([]string{"footer"}); !errors.Is(err, docpreview.ErrUnknownSnippet) {
		t.Errorf("unknown snippet error = %v", err)
	}
}

func TestVars(t *testing.T) {
	out := capture(t)
	html := writeTemp(t, "t.html", "{{company.name}} {{#each per_case}}{{hours}}{{/each}}")

	if err := Vars([]string{"--html", html}); err != nil {
		t.Fatalf("Vars() error = %v", err)
	}
	for _, want := range []string{"company.name", "hours"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %s in %q", want, out.String())
		}
	}
}

func TestConfig_InitShow(t *testing.T) {
	out := capture(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := Config([]string{"init", "--config", path}); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if err := Config([]string{"init", "--config", path}); err == nil {
		t.Error("second init should refuse to overwrite")
	}

	out.Reset()
	if err := Config([]string{"show", "--config", path}); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"company_id: default", "addr: localhost:8080"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}
