package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/livefir/docpreview/cmd/docpreview/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "render":
		err = commands.Render(args)
	case "export":
		err = commands.Export(args)
	case "serve":
		err = commands.Serve(args)
	case "watch":
		err = commands.Watch(args)
	case "template":
		err = commands.Template(args)
	case "migrate":
		err = commands.Migrate(args)
	case "snippets":
		err = commands.Snippets(args)
	case "vars":
		err = commands.Vars(args)
	case "config":
		err = commands.Config(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("docpreview version %s\n", version)

	if info, ok := debug.ReadBuildInfo(); ok {
		var vcsRevision string
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				vcsRevision = setting.Value
			}
		}

		if commit != "unknown" {
			fmt.Printf("commit: %s\n", commit)
		} else if vcsRevision != "" {
			if len(vcsRevision) > 12 {
				vcsRevision = vcsRevision[:12]
			}
			fmt.Printf("commit: %s\n", vcsRevision)
		}
		if date != "unknown" {
			fmt.Printf("built: %s\n", date)
		}
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println("docpreview - document template preview and export")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  docpreview render [--html f --css f]           Render a template to stdout")
	fmt.Println("  docpreview export html|pdf [--out dir]         Save the rendered document")
	fmt.Println("  docpreview serve [--addr host:port]            Serve the live preview")
	fmt.Println("  docpreview watch --html f [--css f]            Serve and reload template files")
	fmt.Println("  docpreview template get|put|default            Manage stored templates")
	fmt.Println("  docpreview migrate [up|status]                 Apply the database schema")
	fmt.Println("  docpreview snippets [<name>]                   List or print snippets")
	fmt.Println("  docpreview vars [--html f]                     List referenced variables")
	fmt.Println("  docpreview config init|show                    Manage the config file")
	fmt.Println("  docpreview version                             Show version information")
	fmt.Println()
	fmt.Println("Common flags:")
	fmt.Println("  --config <path>       Config file (default ~/.config/docpreview/config.yaml)")
	fmt.Println("  --company <id>        Company whose templates are used")
	fmt.Println("  --type <type>         timesheet or case_report")
	fmt.Println("  --db <path>           SQLite template database")
	fmt.Println("  --context <path>      YAML or JSON data context (default: sample data)")
	fmt.Println("  --mode fluid|fixed    Page mode")
	fmt.Println("  --orientation portrait|landscape")
	fmt.Println("  --dir ltr|rtl         Text direction")
}
