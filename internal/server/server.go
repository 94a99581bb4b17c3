// Package server exposes sessions over HTTP: upload a statement, then
// calculate dividends or analyse transactions against it.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/askthatman/dividend/internal/analysis"
	"github.com/askthatman/dividend/internal/importer"
	"github.com/askthatman/dividend/internal/session"
)

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	RequestLog     bool
	Version        string
}

// Server holds the HTTP handlers.
type Server struct {
	store    *session.Store
	registry *importer.Registry
	logger   *slog.Logger
	opts     Options
}

// New creates a Server over store.
func New(store *session.Store, registry *importer.Registry, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Server{store: store, registry: registry, logger: logger, opts: opts}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.Health)
	r.Get("/api/banks", s.ListBanks)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/statement", s.UploadStatement)
			r.Get("/dividend", s.CalculateDividend)
			r.Post("/analysis", s.AnalyseTransactions)
		})
	})

	return r
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.opts.Version,
	})
}

// ListBanks returns the supported bank ids.
func (s *Server) ListBanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"banks": s.registry.Banks()})
}

// CreateSession starts an empty session.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	writeJSON(w, http.StatusCreated, toStatusResponse(sess.ID, sess.Status()))
}

// GetSession reports what a session holds.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(sess.ID, sess.Status()))
}

// DeleteSession discards a session and its statement.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.store.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// UploadStatement ingests the multipart "file" for the form's "bank".
func (s *Server) UploadStatement(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	// Unknown banks are rejected before the body is read.
	bank := r.URL.Query().Get("bank")
	if bank == "" {
		bank = r.Header.Get("X-Bank")
	}
	if bank != "" {
		if _, err := s.registry.Lookup(bank); err != nil {
			s.writeSessionError(w, err)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Could not read the upload. Use form field 'file'.")
		return
	}
	if bank == "" {
		bank = r.FormValue("bank")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded. Use form field 'file'.")
		return
	}
	defer file.Close()

	if err := sess.Ingest(bank, header.Filename, file); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(sess.ID, sess.Status()))
}

// CalculateDividend totals the dividends of the session's statement.
func (s *Server) CalculateDividend(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res, err := sess.Calculate()
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDividendResponse(res))
}

// AnalyseTransactions filters the session's statement.
func (s *Server) AnalyseTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	f, err := req.filter()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := sess.Analyse(f)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	total, err := sess.Total(rows)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisResponse(rows, total))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, importer.ErrUnsupportedBank), errors.Is(err, analysis.ErrInvalidFilter):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrMalformedFile):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoStatement):
		status = http.StatusConflict
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, session.UserMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
