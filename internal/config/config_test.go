package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/livefir/docpreview"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("Expected non-nil config")
	}

	if config.Render.Debounce != 300*time.Millisecond {
		t.Errorf("Expected 300ms debounce, got %v", config.Render.Debounce)
	}

	if config.Type() != docpreview.TypeTimesheet {
		t.Errorf("Expected timesheet type, got '%s'", config.TemplateType)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvChromePath, "")

	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Preview.Addr != "localhost:8080" {
		t.Errorf("Expected default addr, got '%s'", config.Preview.Addr)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Setenv(EnvChromePath, "")
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
company_id: acme
template_type: case_report
render:
  debounce: 150ms
presentation:
  page_mode: fixed
  orientation: landscape
export:
  minify_html: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.CompanyID != "acme" || config.Type() != docpreview.TypeCaseReport {
		t.Errorf("Unexpected identity: %s/%s", config.CompanyID, config.TemplateType)
	}
	if config.Render.Debounce != 150*time.Millisecond {
		t.Errorf("Expected 150ms debounce, got %v", config.Render.Debounce)
	}
	if config.Presentation.PageMode != docpreview.PageModeFixed || config.Presentation.Orientation != docpreview.Landscape {
		t.Errorf("Unexpected presentation: %+v", config.Presentation)
	}
	if config.Presentation.Direction != docpreview.LTR {
		t.Errorf("Expected omitted direction to normalize to ltr, got %q", config.Presentation.Direction)
	}
	if !config.Export.MinifyHTML {
		t.Error("Expected minify_html to be set")
	}
	if config.Export.Timeout != 60*time.Second {
		t.Errorf("Expected omitted timeout to keep default, got %v", config.Export.Timeout)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("company_id: envco\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvChromePath, "/opt/chrome")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.CompanyID != "envco" {
		t.Errorf("Expected config from %s, got company '%s'", EnvConfigPath, config.CompanyID)
	}
	if config.Export.ChromePath != "/opt/chrome" {
		t.Errorf("Expected chrome path override, got '%s'", config.Export.ChromePath)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("render: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(EnvChromePath, "")
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	config := DefaultConfig()
	config.CompanyID = "globex"
	config.Render.Debounce = 2 * time.Second
	config.Presentation.Direction = docpreview.RTL

	if err := Save(config, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.CompanyID != "globex" || loaded.Render.Debounce != 2*time.Second || loaded.Presentation.Direction != docpreview.RTL {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty company", func(c *Config) { c.CompanyID = "" }},
		{"unknown type", func(c *Config) { c.TemplateType = "invoice" }},
		{"negative debounce", func(c *Config) { c.Render.Debounce = -time.Second }},
		{"huge debounce", func(c *Config) { c.Render.Debounce = time.Minute }},
		{"bad page mode", func(c *Config) { c.Presentation.PageMode = "paged" }},
		{"bad direction", func(c *Config) { c.Presentation.Direction = "up" }},
		{"short export timeout", func(c *Config) { c.Export.Timeout = time.Millisecond }},
		{"bad addr", func(c *Config) { c.Preview.Addr = "not an address" }},
		{"missing context file", func(c *Config) { c.Render.ContextFile = "/no/such/context.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
