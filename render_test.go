package docpreview

import (
	"errors"
	"strings"
	"testing"
)

func TestRender_EndToEndBody(t *testing.T) {
	tmpl := Template{
		HTML: `<p>{{company.name}}</p>{{#each per_case}}<span>{{case_id}}:{{hours}}</span>{{/each}}`,
	}
	ctx := Context{
		"company": map[string]any{"name": "Acme"},
		"per_case": []any{
			map[string]any{"case_id": "A1", "hours": 5},
			map[string]any{"case_id": "A2", "hours": 3},
		},
	}

	doc, err := Render(tmpl, ctx, DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "<body>\n<p>Acme</p><span>A1:5</span><span>A2:3</span>\n</body>"
	if !strings.Contains(doc, want) {
		t.Errorf("Render() body mismatch, got:\n%s", doc)
	}
}

func TestRender_Deterministic(t *testing.T) {
	tmpl := DefaultTemplate(TypeTimesheet)
	opts := PresentationOptions{PageMode: PageModeFixed, Orientation: Landscape, Direction: RTL}

	first, err := Render(tmpl, SampleContext(), opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Render(tmpl, SampleContext(), opts)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if again != first {
			t.Fatalf("Render() output changed between identical calls")
		}
	}
}

func TestRender_PrintModeCSS(t *testing.T) {
	tmpl := Template{HTML: "<p>x</p>", CSS: "p { color: red; }"}

	tests := []struct {
		name      string
		opts      PresentationOptions
		wantPage  string
		wantNoPag bool
	}{
		{
			name:     "fixed landscape",
			opts:     PresentationOptions{PageMode: PageModeFixed, Orientation: Landscape},
			wantPage: "@page { size: A4 landscape;",
		},
		{
			name:     "fixed portrait",
			opts:     PresentationOptions{PageMode: PageModeFixed, Orientation: Portrait},
			wantPage: "@page { size: A4 portrait;",
		},
		{
			name:      "fluid landscape",
			opts:      PresentationOptions{PageMode: PageModeFluid, Orientation: Landscape},
			wantNoPag: true,
		},
		{
			name:      "zero options",
			opts:      PresentationOptions{},
			wantNoPag: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Render(tmpl, Context{}, tt.opts)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if tt.wantNoPag {
				if strings.Contains(doc, "@page") {
					t.Errorf("unexpected page rule:\n%s", doc)
				}
				return
			}
			if !strings.Contains(doc, tt.wantPage) {
				t.Errorf("missing %q:\n%s", tt.wantPage, doc)
			}
			if strings.Index(doc, "@page") > strings.Index(doc, "p { color: red; }") {
				t.Errorf("author CSS must follow generated rules")
			}
		})
	}
}

func TestRender_Direction(t *testing.T) {
	doc, err := Render(Template{HTML: "x"}, Context{}, PresentationOptions{Direction: RTL})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(doc, "html { direction: rtl; }") {
		t.Errorf("missing rtl rule:\n%s", doc)
	}
}

func TestRender_Unterminated(t *testing.T) {
	_, err := Render(Template{HTML: "{{#each per_case}}<tr>"}, SampleContext(), DefaultOptions())
	if !errors.Is(err, ErrUnterminatedBlock) {
		t.Fatalf("Render() error = %v, want ErrUnterminatedBlock", err)
	}

	var renderErr *RenderError
	if !errors.As(err, &renderErr) || renderErr.Stage != "expand" {
		t.Errorf("expected expand-stage RenderError, got %v", err)
	}
}

func TestRenderOrError(t *testing.T) {
	doc, err := RenderOrError(Template{HTML: "{{#each rows}}"}, Context{}, DefaultOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(doc, "docpreview-error") || !strings.Contains(doc, "Template error") {
		t.Errorf("expected visible error notice, got:\n%s", doc)
	}

	doc, err = RenderOrError(Template{HTML: "<b>ok</b>"}, Context{}, DefaultOptions())
	if err != nil {
		t.Fatalf("RenderOrError() error = %v", err)
	}
	if !strings.Contains(doc, "<b>ok</b>") {
		t.Errorf("expected rendered body, got:\n%s", doc)
	}
}

func TestTemplate_Variables(t *testing.T) {
	vars := DefaultTemplate(TypeTimesheet).Variables()

	want := map[string]bool{"company.name": true, "case_id": true, "totals.total_hours": true}
	found := 0
	for _, v := range vars {
		if want[v] {
			found++
		}
	}
	if found != len(want) {
		t.Errorf("Variables() = %v, missing some of %v", vars, want)
	}
}
