// Package web serves the fetch/export form in a browser.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/salmonumbrella/apiform/internal/dataset"
	"github.com/salmonumbrella/apiform/internal/export"
	"github.com/salmonumbrella/apiform/internal/source"
	"github.com/salmonumbrella/apiform/internal/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Fetcher loads a dataset from the source endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers source.HeaderPairs, opts source.Options) (*source.Result, error)
}

// Exporter posts an export request to the export service.
type Exporter interface {
	Export(ctx context.Context, f export.Format, req export.Request) (*export.Download, error)
}

// Config wires a Server.
type Config struct {
	URL      string
	Fetcher  Fetcher
	Exporter Exporter
	// Profile headers are sent before the form's own pairs.
	Profile source.HeaderPairs
	Options source.Options
	Logger  *slog.Logger
}

// Server owns the form state. Handlers dispatch actions under the lock;
// fetches and exports run outside it, so the last one to finish wins.
type Server struct {
	mu       sync.Mutex
	state    view.State
	fetcher  Fetcher
	exporter Exporter
	profile  source.HeaderPairs
	opts     source.Options
	logger   *slog.Logger
}

// New creates a Server with the initial form state.
func New(cfg Config) (*Server, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("web: fetcher is required")
	}
	if cfg.Exporter == nil {
		return nil, errors.New("web: exporter is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		state:    view.Initial(cfg.URL),
		fetcher:  cfg.Fetcher,
		exporter: cfg.Exporter,
		profile:  cfg.Profile,
		opts:     cfg.Options,
		logger:   logger,
	}, nil
}

// State returns the current form state.
func (s *Server) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the new state.
func (s *Server) Dispatch(a view.Action) view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = view.Reduce(s.state, a)
	return s.state
}

// Handler returns the HTTP handler for the form.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /url", s.handleSetURL)
	mux.HandleFunc("POST /headers/add", s.handleAddHeader)
	mux.HandleFunc("POST /headers/edit", s.handleEditHeader)
	mux.HandleFunc("POST /headers/remove", s.handleRemoveHeader)
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("POST /columns/toggle", s.handleToggleColumn)
	mux.HandleFunc("POST /columns/invert", s.handleInvertColumns)
	mux.HandleFunc("POST /export", s.handleExport)
	mux.HandleFunc("POST /dismiss", s.handleDismiss)
	return s.withRequestLog(mux)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type pageData struct {
	URL     string
	Headers source.HeaderPairs
	Columns []dataset.Column
	Table   dataset.Table
	Formats []export.Format
	HasData bool
	Err     string
	Status  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.State()
	data := pageData{
		URL:     st.URL,
		Headers: st.Headers,
		Columns: st.Columns.Columns(),
		Table:   st.Table(),
		Formats: export.Formats(),
		HasData: st.HasData(),
		Err:     st.Err,
		Status:  st.Status,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("template error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSetURL(w http.ResponseWriter, r *http.Request) {
	s.Dispatch(view.SetURL{URL: r.FormValue("url")})
	redirectHome(w, r)
}

func (s *Server) handleAddHeader(w http.ResponseWriter, r *http.Request) {
	s.Dispatch(view.AddHeader{})
	redirectHome(w, r)
}

func (s *Server) handleEditHeader(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	field := r.FormValue("field")
	if field != view.HeaderKey && field != view.HeaderValue {
		http.Error(w, "field must be key or value", http.StatusBadRequest)
		return
	}
	s.Dispatch(view.EditHeader{Index: idx, Field: field, Value: r.FormValue("value")})
	redirectHome(w, r)
}

func (s *Server) handleRemoveHeader(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	s.Dispatch(view.RemoveHeader{Index: idx})
	redirectHome(w, r)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if u := r.FormValue("url"); u != "" {
		s.Dispatch(view.SetURL{URL: u})
	}
	st := s.State()
	headers := s.profile.Append(st.Headers...)

	res, err := s.fetcher.Fetch(r.Context(), st.URL, headers, s.opts)
	if err != nil {
		s.logger.Warn("fetch failed", "url", st.URL, "request_id", RequestID(r.Context()), "error", err)
		s.Dispatch(view.LoadFailed{Err: err})
	} else {
		s.logger.Info("fetched data", "url", st.URL, "rows", res.Dataset.Len(), "request_id", RequestID(r.Context()))
		s.Dispatch(view.Loaded{Dataset: res.Dataset})
	}
	redirectHome(w, r)
}

func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	s.Dispatch(view.ToggleColumn{Name: r.FormValue("name")})
	redirectHome(w, r)
}

func (s *Server) handleInvertColumns(w http.ResponseWriter, r *http.Request) {
	s.Dispatch(view.InvertColumns{})
	redirectHome(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = r.FormValue("format")
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := s.Dispatch(view.SelectFormat{Format: format})
	dl, err := s.exporter.Export(r.Context(), format, st.ExportRequest())
	if err != nil {
		s.logger.Warn("export failed", "format", format, "request_id", RequestID(r.Context()), "error", err)
		s.Dispatch(view.ExportFailed{Err: err})
		redirectHome(w, r)
		return
	}
	s.Dispatch(view.Exported{Filename: dl.Filename})

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Body)))
	_, _ = w.Write(dl.Body)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.Dispatch(view.Dismiss{})
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
