// Package httpapi serves the snippet list over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snippetmanager/internal/snippet"
)

// maxImportBytes caps request bodies for import and snippet writes.
const maxImportBytes = 10 << 20

// Handler exposes a snippet.Service as a JSON API.
type Handler struct {
	svc      *snippet.Service
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option customises a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithGatherer serves /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option { return func(h *Handler) { h.gatherer = g } }

// New returns a handler for svc.
func New(svc *snippet.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the chi router with every route registered.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	h.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the API routes on r.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/snippets", h.handleList)
		r.Post("/snippets", h.handleCreate)
		r.Get("/snippets/{id}", h.handleGet)
		r.Put("/snippets/{id}", h.handleUpdate)
		r.Delete("/snippets/{id}", h.handleDelete)
		r.Get("/categories", h.handleCategories)
		r.Get("/export", h.handleExport)
		r.Post("/import", h.handleImport)
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	select {
	case <-h.svc.Ready():
	default:
		status = "loading"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := snippet.Query{
		Search:   r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
	writeJSON(w, http.StatusOK, h.svc.List(q))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sn, err := h.svc.Get(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var form snippet.FormData
	if !decodeBody(w, r, &form) {
		return
	}
	sn, err := h.svc.Add(form)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/snippets/%d", sn.ID))
	writeJSON(w, http.StatusCreated, sn)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var form snippet.FormData
	if !decodeBody(w, r, &form) {
		return
	}
	sn, err := h.svc.Update(id, form)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	if typed, ok := r.URL.Query()["suggest"]; ok {
		writeJSON(w, http.StatusOK, nonNil(h.svc.Suggest(typed[0])))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Categories())
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := snippet.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list := h.svc.All()
	if len(list) == 0 {
		h.writeServiceError(w, snippet.ErrNothingToExport)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.svc.ExportFileName(format)))
	if err := snippet.Export(w, list, format); err != nil {
		h.logger.Error("export failed", "error", err)
	}
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	mode, err := snippet.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := h.svc.Import(http.MaxBytesReader(w, r.Body, maxImportBytes), mode)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	t := snippet.T(h.svc.Language())
	writeJSON(w, http.StatusOK, map[string]any{
		"imported": n,
		"message":  snippet.Fill(t.ImportSuccess, n),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, snippet.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, snippet.ErrTitleRequired),
		errors.Is(err, snippet.ErrContentRequired):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, snippet.ErrInvalidImport):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   err.Error(),
			"message": snippet.T(h.svc.Language()).ImportError,
		})
	case errors.Is(err, snippet.ErrNothingToExport):
		writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// Serve runs an HTTP server on addr until ctx is done, then shuts it down.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
