// Package server exposes the tithe calculation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cleared-dev/tithing/internal/config"
	"github.com/cleared-dev/tithing/internal/model"
	"github.com/cleared-dev/tithing/internal/report"
	"github.com/cleared-dev/tithing/internal/tithe"
)

const usage = `POST /tithing with multipart/form-data:
  - file: Wells Fargo CSV export
Query params:
  - start: YYYY-MM-DD (required)
  - end:   YYYY-MM-DD (required, inclusive)
  - desc_contains: default 'MILLWORK DEV PAYROLL'
  - rate: tithe rate, default 0.10
  - case_sensitive: true/false, default false
  - format: 'json' or 'csv', default 'json'
`

const multipartMemory = 8 << 20

type ctxKey struct{}

// Server handles HTTP requests for tithe calculations.
type Server struct {
	cfg    *config.Config
	logger *log.Logger
	mux    *http.ServeMux
}

// New creates a Server with its routes registered.
func New(cfg *config.Config, logger *log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/", s.withLogging(s.handleHome))
	s.mux.HandleFunc("/health", s.withLogging(s.handleHealth))
	s.mux.HandleFunc("/tithing", s.withLogging(s.handleTithing))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, r, http.StatusNotFound, "not found", nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, usage); err != nil {
		s.logger.Warn("failed to write usage", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleTithing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	if s.cfg.Server.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, "upload too large", err)
			return
		}
		s.respondError(w, r, http.StatusBadRequest, "expected multipart/form-data upload", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "file is required", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return
	}

	raw, err := rawQuery(r)
	if err != nil {
		s.respondPipelineError(w, r, err)
		return
	}
	q, err := tithe.ParseQuery(raw, s.cfg.QueryDefaults())
	if err != nil {
		s.respondPipelineError(w, r, err)
		return
	}

	formatParam := r.FormValue("format")
	if strings.TrimSpace(formatParam) == "" {
		formatParam = s.cfg.Defaults.Format
	}
	format, err := report.ParseFormat(formatParam)
	if err != nil {
		s.respondPipelineError(w, r, err)
		return
	}

	res, err := tithe.Calculate(data, q, s.cfg.ParserOptions())
	if err != nil {
		s.respondPipelineError(w, r, err)
		return
	}

	out, err := report.Render(res, format)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to render report", err)
		return
	}

	s.logger.Info("tithe computed",
		"request_id", requestID(r),
		"file", header.Filename,
		"matches", len(res.Matches),
		"total", res.TotalMatched.StringFixed(2),
		"tithe", res.TotalTithe.StringFixed(2),
		"row_errors", len(res.RowErrors),
	)

	if n := len(res.RowErrors); n > 0 {
		w.Header().Set("X-Row-Error-Count", strconv.Itoa(n))
		w.Header().Set("X-Row-Error-Lines", joinInts(report.ErrorLines(res.RowErrors)))
	}
	w.Header().Set("Content-Type", out.ContentType)
	if format == report.FormatCSV {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Body); err != nil {
		s.logger.Warn("failed to write report", "err", err)
	}
}

// rawQuery collects parameters from the query string and form fields. The
// legacy case_insensitive flag is honoured when case_sensitive is absent.
func rawQuery(r *http.Request) (tithe.RawQuery, error) {
	raw := tithe.RawQuery{
		Start:         r.FormValue("start"),
		End:           r.FormValue("end"),
		DescContains:  r.FormValue("desc_contains"),
		CaseSensitive: r.FormValue("case_sensitive"),
		Rate:          r.FormValue("rate"),
	}
	if raw.CaseSensitive == "" {
		if ci := strings.TrimSpace(r.FormValue("case_insensitive")); ci != "" {
			b, err := strconv.ParseBool(ci)
			if err != nil {
				return raw, model.Parameter("case_insensitive must be true or false, got %q", ci)
			}
			raw.CaseSensitive = strconv.FormatBool(!b)
		}
	}
	return raw, nil
}

// --- helpers ---

type errorBody struct {
	Status    string            `json:"status"`
	Kind      string            `json:"kind,omitempty"`
	Error     string            `json:"error"`
	Lines     []int             `json:"lines,omitempty"`
	RowErrors []report.RowError `json:"row_errors,omitempty"`
}

// statusFor maps a pipeline error kind to an HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindStructural, model.KindParameter:
		return http.StatusBadRequest
	case model.KindAllRowsFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *model.Error
	if !errors.As(err, &pe) {
		s.respondError(w, r, http.StatusInternalServerError, "internal server error", err)
		return
	}

	status := statusFor(pe.Kind)
	s.logger.Warn("request error", "request_id", requestID(r), "status", status, "kind", pe.Kind, "err", err)
	body := errorBody{
		Status: "error",
		Kind:   string(pe.Kind),
		Error:  pe.Error(),
		Lines:  pe.Lines(),
	}
	if len(pe.Rows) > 0 {
		body.RowErrors = report.RowErrors(pe.Rows)
	}
	_ = s.writeJSON(w, status, body)
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "request_id", requestID(r), "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "request_id", requestID(r), "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, errorBody{
		Status: "error",
		Error:  message,
	})
}

// withLogging tags the request with an ID, logs it and recovers panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		s.logger.Debug("http request", "request_id", id, "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", id, "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
				return
			}
			s.logger.Debug("http request done", "request_id", id, "elapsed", time.Since(start))
		}()
		next(w, r)
	}
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
