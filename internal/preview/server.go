// Package preview serves the live document preview over HTTP and pushes
// every newly published render to connected viewers over WebSocket.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/livefir/docpreview"
	"github.com/livefir/docpreview/internal/pdf"
)

// maxBodySize bounds template, options and context uploads
const maxBodySize = 1 << 20

// Update is the message pushed to viewers on connect and on every publish
type Update struct {
	Generation uint64 `json:"generation"`
	Document   string `json:"document"`
	Error      string `json:"error"`
}

func newUpdate(res docpreview.Result) Update {
	u := Update{Generation: res.Generation, Document: res.Document}
	if res.Err != nil {
		u.Error = res.Err.Error()
	}
	return u
}

// ClientPrint is the print fallback for browser sessions. Printing
// happens in the viewer's browser, not on the server: the editor opens
// /print, which serves the current document with pdf.PrintScript
// injected, whenever an export responds with 202.
type ClientPrint struct{}

// Print implements docpreview.PrintFallback. It only signals that the
// fallback was taken so handleExportPDF can answer 202 with the print URL.
func (ClientPrint) Print(ctx context.Context, doc string) error { return nil }

// Server is the preview http.Handler
type Server struct {
	pipeline  *docpreview.Pipeline
	exporter  *docpreview.Exporter
	docType   docpreview.Type
	store     docpreview.TemplateStore
	companyID string
	upgrader  *websocket.Upgrader
	mux       *http.ServeMux

	mu          sync.Mutex
	viewers     map[*viewer]struct{}
	unsubscribe func()
}

// Option configures a Server instance
type Option func(*Server)

// WithUpgrader sets a custom WebSocket upgrader
func WithUpgrader(u *websocket.Upgrader) Option {
	return func(s *Server) {
		s.upgrader = u
	}
}

// WithTemplateStore persists every template edit for the company
func WithTemplateStore(store docpreview.TemplateStore, companyID string) Option {
	return func(s *Server) {
		s.store = store
		s.companyID = companyID
	}
}

// NewServer creates a preview server and subscribes it to the pipeline.
// Call Close to detach it.
func NewServer(p *docpreview.Pipeline, e *docpreview.Exporter, t docpreview.Type, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		exporter: e,
		docType:  t,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		viewers: make(map[*viewer]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleShell)
	mux.HandleFunc("GET /document", s.handleDocument)
	mux.HandleFunc("GET /print", s.handlePrint)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("PUT /template", s.handleTemplate)
	mux.HandleFunc("PUT /options", s.handleOptions)
	mux.HandleFunc("PUT /context", s.handleContext)
	mux.HandleFunc("GET /snippets", s.handleSnippets)
	mux.HandleFunc("POST /snippets/{name}", s.handleInsertSnippet)
	mux.HandleFunc("GET /export/html", s.handleExportHTML)
	mux.HandleFunc("GET /export/pdf", s.handleExportPDF)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	s.mux = mux

	s.unsubscribe = p.Subscribe(s.broadcast)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close detaches from the pipeline and disconnects every viewer
func (s *Server) Close() {
	s.unsubscribe()

	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.viewers {
		v.conn.Close()
	}
}

// broadcast runs inside the pipeline's publish and must not block
func (s *Server) broadcast(res docpreview.Result) {
	u := newUpdate(res)

	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.viewers {
		v.push(u)
	}
}

// current returns the published result, rendering once if nothing has
// been published yet
func (s *Server) current() docpreview.Result {
	res := s.pipeline.Current()
	if res.Generation == 0 {
		res = s.pipeline.Flush()
	}
	return res
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeDocument(w, s.current().Document)
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	doc, err := pdf.InjectPrintScript(s.current().Document)
	if err != nil {
		log.Printf("Failed to build print view: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl docpreview.Template
	if err := decodeBody(w, r, &tmpl); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if s.store != nil {
		if err := s.store.PutTemplate(r.Context(), s.companyID, s.docType, tmpl); err != nil {
			log.Printf("Failed to save template: %v", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	s.pipeline.SetTemplate(tmpl)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	var opts docpreview.PresentationOptions
	if err := decodeBody(w, r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.pipeline.SetOptions(opts.Normalize())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var ctx docpreview.Context
	if err := dec.Decode(&ctx); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if ctx == nil {
		ctx = docpreview.Context{}
	}

	s.pipeline.SetContext(ctx)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnippets(w http.ResponseWriter, r *http.Request) {
	defs := make([]docpreview.SnippetDef, 0, len(docpreview.Snippets()))
	for _, name := range docpreview.Snippets() {
		def, _ := docpreview.Snippet(name)
		defs = append(defs, def)
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleInsertSnippet(w http.ResponseWriter, r *http.Request) {
	err := s.pipeline.InsertSnippet(r.PathValue("name"))
	if errors.Is(err, docpreview.ErrUnknownSnippet) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	s.current()

	var buf bytes.Buffer
	if err := s.exporter.WriteHTML(&buf); err != nil {
		writeError(w, exportStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(s.docType.PreviewFilename("html")))
	w.Write(buf.Bytes())
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.current()

	result, err := s.exporter.PDF(r.Context(), s.docType)
	if err != nil {
		writeError(w, exportStatus(err), err)
		return
	}

	if result.FellBack {
		notice := map[string]any{
			"fallback": true,
			"print":    "/print",
		}
		if result.ConversionErr != nil {
			notice["reason"] = result.ConversionErr.Error()
		}
		writeJSON(w, http.StatusAccepted, notice)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(result.Filename))
	w.Write(result.Data)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	c := s.pipeline.Metrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"render":        c.GetMetrics(),
		"counters":      c.GetCustomCounters(),
		"failure_rate":  c.GetFailureRate(),
		"coalescing":    c.GetCoalescingRatio(),
		"current_error": errString(s.pipeline.Current().Err),
	})
}

func exportStatus(err error) int {
	switch {
	case errors.Is(err, docpreview.ErrNoDocument):
		return http.StatusConflict
	case errors.Is(err, docpreview.ErrNoFallback):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func attachment(filename string) string {
	return `attachment; filename="` + filename + `"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeDocument(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
