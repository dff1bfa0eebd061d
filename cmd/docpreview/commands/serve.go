package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livefir/docpreview/internal/preview"
	"github.com/livefir/docpreview/internal/watch"
)

// Serve runs the live preview server for the stored template
func Serve(args []string) error {
	return serve(parseFlags(args, withCommon("addr")...), false)
}

// Watch runs the preview server and reloads the template files on change
func Watch(args []string) error {
	f := parseFlags(args, withCommon("addr", "html", "css")...)
	if f.get("html") == "" {
		return fmt.Errorf("--html is required")
	}
	return serve(f, true)
}

func serve(f flags, watchFiles bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var opts []preview.Option
	if !watchFiles {
		// Browser edits persist only when the store is the source of truth
		opts = append(opts, preview.WithTemplateStore(e.store, e.cfg.CompanyID))
	}
	server := preview.NewServer(p, e.exporter(p, preview.ClientPrint{}), e.cfg.Type(), opts...)
	defer server.Close()

	if watchFiles {
		w, err := watch.New(f.get("html"), p,
			watch.WithCSSFile(f.get("css")),
			watch.WithContextFile(e.cfg.Render.ContextFile),
		)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("File watcher stopped: %v", err)
			}
		}()
	}

	p.Flush()

	addr := e.cfg.Preview.Addr
	if v := f.get("addr"); v != "" {
		addr = v
	}
	httpServer := &http.Server{Addr: addr, Handler: server}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Preview server listening on http://%s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
