package commands

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/livefir/docpreview"
	"github.com/livefir/docpreview/internal/config"
	"github.com/livefir/docpreview/internal/store"
)

// Template reads and writes stored templates
func Template(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("command required: get, put, or default")
	}

	command := args[0]
	f := parseFlags(args[1:], withCommon("html", "css")...)

	switch command {
	case "get":
		return templateGet(f)
	case "put":
		return templatePut(f)
	case "default":
		return writeTemplate(docpreview.DefaultTemplate(docpreview.Type(typeOrDefault(f))))
	default:
		return fmt.Errorf("unknown command: %s (expected: get, put, default)", command)
	}
}

func typeOrDefault(f flags) string {
	if t := f.get("type"); t != "" {
		return t
	}
	return string(docpreview.TypeTimesheet)
}

func templateGet(f flags) error {
	ctx := context.Background()
	e, err := loadEnv(ctx, f)
	if err != nil {
		return err
	}
	defer e.close()

	tmpl, err := docpreview.LoadTemplate(ctx, e.store, e.cfg.CompanyID, e.cfg.Type())
	if err != nil {
		return err
	}
	return writeTemplate(tmpl)
}

func templatePut(f flags) error {
	if f.get("html") == "" {
		return fmt.Errorf("--html is required")
	}

	ctx := context.Background()
	e, err := loadEnv(ctx, f)
	if err != nil {
		return err
	}
	defer e.close()

	if _, ok := e.store.(*store.MemoryStore); ok {
		return fmt.Errorf("no database configured: pass --db or set database in the config file")
	}

	tmpl, err := e.template(ctx, f)
	if err != nil {
		return err
	}
	if err := e.store.PutTemplate(ctx, e.cfg.CompanyID, e.cfg.Type(), tmpl); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✅ Saved %s template for %s\n", e.cfg.Type(), e.cfg.CompanyID)
	return nil
}

func writeTemplate(tmpl docpreview.Template) error {
	enc := yaml.NewEncoder(stdout)
	defer enc.Close()
	return enc.Encode(tmpl)
}

// Migrate applies the template schema to the configured database
func Migrate(args []string) error {
	f := parseFlags(args, withCommon()...)
	command := "up"
	if len(f.positional) > 0 {
		command = f.positional[0]
	}
	if command != "up" && command != "status" {
		return fmt.Errorf("unknown command: %s (expected: up, status)", command)
	}

	ctx := context.Background()
	e, err := loadEnv(ctx, f)
	if err != nil {
		return err
	}
	defer e.close()

	s, ok := e.store.(*store.SQLiteStore)
	if !ok {
		return fmt.Errorf("no database configured: pass --db or set database in the config file")
	}

	// Opening the store already applied pending migrations
	v, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if command == "up" {
		fmt.Fprintf(stdout, "✅ Schema is at version %d\n", v)
		return nil
	}
	fmt.Fprintf(stdout, "Schema version: %d (%s)\n", v, e.cfg.Database)
	return nil
}

// Config writes or shows the configuration file
func Config(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("command required: init or show")
	}

	f := parseFlags(args[1:], "config")
	switch args[0] {
	case "init":
		path := f.get("config")
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ Wrote %s\n", path)
		return nil

	case "show":
		cfg, err := config.Load(f.get("config"))
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(stdout)
		defer enc.Close()
		return enc.Encode(cfg)

	default:
		return fmt.Errorf("unknown command: %s (expected: init, show)", args[0])
	}
}
