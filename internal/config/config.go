package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/docpreview"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for docpreview configuration
	// This will be ~/.config/docpreview/ on Unix systems
	DefaultConfigDir = ".config/docpreview"

	// EnvConfigPath overrides the config file location
	EnvConfigPath = "DOCPREVIEW_CONFIG"

	// EnvChromePath overrides export.chrome_path
	EnvChromePath = "CHROME_PATH"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the docpreview configuration
type Config struct {
	// CompanyID selects whose templates are loaded from the store
	CompanyID string `yaml:"company_id" validate:"required,max=128"`

	// TemplateType is the document being authored
	TemplateType string `yaml:"template_type" validate:"required,oneof=timesheet case_report"`

	// Database is the SQLite file holding templates; empty keeps them in memory
	Database string `yaml:"database,omitempty"`

	Render       RenderConfig                   `yaml:"render"`
	Presentation docpreview.PresentationOptions `yaml:"presentation"`
	Export       ExportConfig                   `yaml:"export"`
	Preview      PreviewConfig                  `yaml:"preview"`

	// Version tracks the config file version for future migrations
	Version string `yaml:"version,omitempty"`
}

// RenderConfig controls the render pipeline
type RenderConfig struct {
	Debounce    time.Duration `yaml:"debounce" validate:"min=0,max=10s"`
	ContextFile string        `yaml:"context_file,omitempty"`
}

// ExportConfig controls static and paginated export
type ExportConfig struct {
	OutputDir  string        `yaml:"output_dir" validate:"required"`
	MinifyHTML bool          `yaml:"minify_html"`
	ChromePath string        `yaml:"chrome_path,omitempty"`
	Timeout    time.Duration `yaml:"timeout" validate:"min=1s"`
}

// PreviewConfig controls the live preview server
type PreviewConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		CompanyID:    "default",
		TemplateType: string(docpreview.TypeTimesheet),
		Render: RenderConfig{
			Debounce: docpreview.DefaultDebounce,
		},
		Presentation: docpreview.DefaultOptions(),
		Export: ExportConfig{
			OutputDir: ".",
			Timeout:   60 * time.Second,
		},
		Preview: PreviewConfig{
			Addr: "localhost:8080",
		},
		Version: "1.0",
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir, ConfigFileName), nil
}

// Load reads the configuration from path, or from GetConfigPath when
// path is empty. A missing file yields the default config.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Decode over the defaults so omitted fields keep them
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if chrome := os.Getenv(EnvChromePath); chrome != "" {
		config.Export.ChromePath = chrome
	}
	config.Presentation = config.Presentation.Normalize()
	if config.Version == "" {
		config.Version = "1.0"
	}

	return config, nil
}

// Save writes the configuration to path, creating parent directories
func Save(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Render.ContextFile != "" {
		if _, err := os.Stat(c.Render.ContextFile); err != nil {
			return fmt.Errorf("%w: context file: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// Type returns the configured template type
func (c *Config) Type() docpreview.Type {
	return docpreview.Type(c.TemplateType)
}
