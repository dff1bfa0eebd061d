// Package store persists company document templates.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/livefir/docpreview"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// ErrInvalidKey is returned for an empty company or unknown template type
var ErrInvalidKey = errors.New("invalid template key")

type key struct {
	CompanyID string `validate:"required,max=128"`
	Type      string `validate:"required,oneof=timesheet case_report"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	gooseMu      sync.Mutex
)

func checkKey(companyID string, t docpreview.Type) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	if err := validate.Struct(key{CompanyID: companyID, Type: string(t)}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return nil
}

// SQLiteStore keeps templates in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending migrations
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// setupGoose points goose at the embedded migrations. Caller holds gooseMu.
func setupGoose() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate runs all pending migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, migrationsDir); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetTemplate returns the stored template or docpreview.ErrTemplateNotFound
func (s *SQLiteStore) GetTemplate(ctx context.Context, companyID string, t docpreview.Type) (docpreview.Template, error) {
	if err := checkKey(companyID, t); err != nil {
		return docpreview.Template{}, err
	}

	var tmpl docpreview.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT html, css FROM templates WHERE company_id = ? AND type = ?`,
		companyID, string(t),
	).Scan(&tmpl.HTML, &tmpl.CSS)
	if errors.Is(err, sql.ErrNoRows) {
		return docpreview.Template{}, docpreview.ErrTemplateNotFound
	}
	if err != nil {
		return docpreview.Template{}, fmt.Errorf("failed to query template: %w", err)
	}
	return tmpl, nil
}

// PutTemplate inserts or replaces the template for the company and type
func (s *SQLiteStore) PutTemplate(ctx context.Context, companyID string, t docpreview.Type, tmpl docpreview.Template) error {
	if err := checkKey(companyID, t); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (company_id, type, html, css, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (company_id, type) DO UPDATE SET
			html = excluded.html,
			css = excluded.css,
			updated_at = excluded.updated_at`,
		companyID, string(t), tmpl.HTML, tmpl.CSS, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// MemoryStore keeps templates in process memory
type MemoryStore struct {
	templates map[string]docpreview.Template
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]docpreview.Template)}
}

func memoryKey(companyID string, t docpreview.Type) string {
	return companyID + "\x00" + string(t)
}

// GetTemplate returns the stored template or docpreview.ErrTemplateNotFound
func (m *MemoryStore) GetTemplate(ctx context.Context, companyID string, t docpreview.Type) (docpreview.Template, error) {
	if err := checkKey(companyID, t); err != nil {
		return docpreview.Template{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[memoryKey(companyID, t)]
	if !ok {
		return docpreview.Template{}, docpreview.ErrTemplateNotFound
	}
	return tmpl, nil
}

// PutTemplate inserts or replaces the template for the company and type
func (m *MemoryStore) PutTemplate(ctx context.Context, companyID string, t docpreview.Type, tmpl docpreview.Template) error {
	if err := checkKey(companyID, t); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates[memoryKey(companyID, t)] = tmpl
	return nil
}
