package docpreview

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mapStore struct {
	templates map[string]Template
	err       error
}

func (s *mapStore) GetTemplate(ctx context.Context, companyID string, t Type) (Template, error) {
	if s.err != nil {
		return Template{}, s.err
	}
	tmpl, ok := s.templates[companyID+"/"+string(t)]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return tmpl, nil
}

func (s *mapStore) PutTemplate(ctx context.Context, companyID string, t Type, tmpl Template) error {
	s.templates[companyID+"/"+string(t)] = tmpl
	return nil
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"timesheet", "case_report"} {
		if got, err := ParseType(name); err != nil || string(got) != name {
			t.Errorf("ParseType(%q) = %q, %v", name, got, err)
		}
	}

	if _, err := ParseType("invoice"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ParseType(invoice) error = %v, want ErrUnknownType", err)
	}
}

func TestType_PreviewFilename(t *testing.T) {
	if got := TypeTimesheet.PreviewFilename("html"); got != "timesheet-preview.html" {
		t.Errorf("PreviewFilename() = %s", got)
	}
	if got := TypeCaseReport.PreviewFilename("pdf"); got != "case_report-preview.pdf" {
		t.Errorf("PreviewFilename() = %s", got)
	}
}

func TestDefaultTemplate(t *testing.T) {
	timesheet := DefaultTemplate(TypeTimesheet)
	if !strings.Contains(timesheet.HTML, "{{#each per_case}}") {
		t.Errorf("timesheet default should contain the table snippet")
	}

	report := DefaultTemplate(TypeCaseReport)
	if !strings.Contains(report.HTML, "{{report.assessment}}") {
		t.Errorf("case report default should contain the report snippet")
	}

	for _, tmpl := range []Template{timesheet, report} {
		if tmpl.CSS != SnippetBaseCSS {
			t.Errorf("default CSS should be the base stylesheet")
		}
	}
}

func TestLoadTemplate(t *testing.T) {
	stored := Template{HTML: "<p>{{company.name}}</p>", CSS: "p{}"}
	store := &mapStore{templates: map[string]Template{"c1/timesheet": stored}}
	ctx := context.Background()

	got, err := LoadTemplate(ctx, store, "c1", TypeTimesheet)
	if err != nil || got != stored {
		t.Errorf("LoadTemplate() = %+v, %v", got, err)
	}

	got, err = LoadTemplate(ctx, store, "c2", TypeCaseReport)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if got != DefaultTemplate(TypeCaseReport) {
		t.Errorf("expected default template for missing row")
	}

	store.err = errors.New("disk on fire")
	if _, err := LoadTemplate(ctx, store, "c1", TypeTimesheet); err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
