// Package server exposes background survey analyses over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/surveyloom/internal/export"
	"github.com/KaramelBytes/surveyloom/internal/jobs"
	"github.com/KaramelBytes/surveyloom/internal/logging"
	"github.com/KaramelBytes/surveyloom/internal/storage"
)

// MaxUploadSize bounds multipart uploads.
const MaxUploadSize = 100 << 20

var uploadExts = map[string]bool{".xlsx": true, ".xls": true, ".csv": true, ".tsv": true}

type Config struct {
	UploadDir string
	// RateLimit is requests per second across all clients; 0 disables limiting.
	RateLimit   float64
	Burst       int
	CORSOrigins []string
	Logger      *slog.Logger
}

type Router struct {
	jobs      *jobs.Manager
	uploadDir string
	log       *slog.Logger
}

// NewRouter returns the API handler backed by m.
func NewRouter(m *jobs.Manager, cfg Config) http.Handler {
	r := &Router{jobs: m, uploadDir: cfg.UploadDir, log: logging.OrDiscard(cfg.Logger)}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(r.requestLogger)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	mux.Use(rateLimit(cfg.RateLimit, cfg.Burst))

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Route("/v1/surveys", func(rt chi.Router) {
		rt.Post("/upload", r.wrap(r.handleUpload))
		rt.Post("/analyze-file", r.wrap(r.handleAnalyzeFile))
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/{id}", r.wrap(r.handleGet))
		rt.Get("/{id}/download/{kind}", r.wrap(r.handleDownload))
	})
	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// statusError carries an HTTP status for errors that are the client's fault.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &statusError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &statusError{status: http.StatusNotFound, err: fmt.Errorf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := http.StatusInternalServerError
		var se *statusError
		switch {
		case errors.As(err, &se):
			status = se.status
		case errors.Is(err, jobs.ErrNotFound), errors.Is(err, jobs.ErrUnknownKind):
			status = http.StatusNotFound
		case errors.Is(err, jobs.ErrNotCompleted):
			status = http.StatusBadRequest
		}
		if status >= 500 {
			r.log.Error("request failed", "path", req.URL.Path, "error", err)
		}
		_ = writeJSON(w, status, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type submitted struct {
	JobID    string      `json:"job_id"`
	Status   jobs.Status `json:"status"`
	Filename string      `json:"filename"`
}

// POST /v1/surveys/upload (multipart field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, MaxUploadSize)
	f, hdr, err := req.FormFile("file")
	if err != nil {
		return badRequest("multipart field \"file\" is required: %v", err)
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !uploadExts[ext] {
		return badRequest("unsupported file type %q (want .xlsx, .xls, .csv or .tsv)", ext)
	}
	if err := os.MkdirAll(r.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	dst := filepath.Join(r.uploadDir, uuid.NewString()+"_"+name)
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("save upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	r.log.Info("upload saved", "file", name, "bytes", hdr.Size)

	id := r.jobs.Submit(dst)
	return writeJSON(w, http.StatusAccepted, submitted{JobID: id, Status: jobs.Queued, Filename: name})
}

// POST /v1/surveys/analyze-file
// Body: {"file_path": "<path on the server>"}
func (r *Router) handleAnalyzeFile(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if strings.TrimSpace(body.FilePath) == "" {
		return badRequest("file_path is required")
	}
	st, err := os.Stat(body.FilePath)
	if err != nil || st.IsDir() {
		return notFound("file not found: %s", body.FilePath)
	}
	if !uploadExts[strings.ToLower(filepath.Ext(body.FilePath))] {
		return badRequest("unsupported file type: %s", filepath.Base(body.FilePath))
	}
	id := r.jobs.Submit(body.FilePath)
	return writeJSON(w, http.StatusAccepted, submitted{JobID: id, Status: jobs.Queued, Filename: filepath.Base(body.FilePath)})
}

// GET /v1/surveys/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	j, err := r.jobs.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, j)
}

// GET /v1/surveys
func (r *Router) handleList(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{"jobs": r.jobs.List()})
}

// GET /v1/surveys/{id}/download/{kind}
func (r *Router) handleDownload(w http.ResponseWriter, req *http.Request) error {
	kind := chi.URLParam(req, "kind")
	path, err := r.jobs.Artifact(chi.URLParam(req, "id"), kind)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return notFound("artifact missing: %s", filepath.Base(path))
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", storage.ContentType(path))
	if kind != export.KindDashboard {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	}
	http.ServeContent(w, req, filepath.Base(path), st.ModTime(), f)
	return nil
}

// rateLimit shares one token bucket across all clients.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !lim.Allow() {
				w.Header().Set("Retry-After", "1")
				_ = writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		r.log.Info("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
