// Package server exposes the renderer over HTTP for callers such as a
// browser extension.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/arran4/quotecard"
	"github.com/arran4/quotecard/internal/capture"
	"github.com/arran4/quotecard/internal/metrics"
	"github.com/arran4/quotecard/theme"
)

// maxBodyBytes bounds a render request; favicons travel inline.
const maxBodyBytes = 4 << 20

// Renderer is the part of *quotecard.Renderer the server needs.
type Renderer interface {
	Render(quotecard.RenderRequest) quotecard.RenderResult
}

// StatusRecorder counts HTTP responses.
type StatusRecorder interface {
	RecordHTTPStatus(code int)
}

// Deps are the collaborators of the router.
type Deps struct {
	Renderer    Renderer
	Themes      *theme.Registry
	Logger      logrus.FieldLogger
	Metrics     StatusRecorder      // optional
	Gatherer    prometheus.Gatherer // optional; serves /metrics when set
	RateLimiter *RateLimiter        // optional
	CORSOrigins []string
}

var _ StatusRecorder = (*metrics.Collector)(nil)

// NewRouter wires routes and middleware.
//
//	RequestID → RealIP → logging → Recoverer → CORS → [rate limit] → handler
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Themes == nil {
		deps.Themes = theme.Bundled(deps.Logger)
	}
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/healthz", h.health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware)
		}
		r.Get("/themes", h.listThemes)
		r.Post("/render", h.render)
	})
	return r
}

type handler struct {
	deps Deps
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// renderBody is a RenderRequest that may carry Markdown instead of markup.
// Markup is sanitized again here; the renderer trusts what it is given.
type renderBody struct {
	quotecard.RenderRequest
	Markdown string `json:"markdown,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type themeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Background  string `json:"background"`
}

func (h *handler) listThemes(w http.ResponseWriter, _ *http.Request) {
	var out []themeSummary
	for _, th := range h.deps.Themes.All() {
		out = append(out, themeSummary{
			ID:          th.ID,
			Name:        th.Name,
			Description: th.Description,
			Background:  backgroundKind(th.Background),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": out})
}

func backgroundKind(bg theme.Background) string {
	switch bg.(type) {
	case theme.Gradient:
		return "gradient"
	case theme.Image:
		return "image"
	}
	return "solid"
}

func (h *handler) render(w http.ResponseWriter, r *http.Request) {
	var body renderBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	req := body.RenderRequest
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt == 0 {
		req.CreatedAt = time.Now().UnixMilli()
	}
	log := h.deps.Logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"http_id":    middleware.GetReqID(r.Context()),
	})

	page := capture.Page{Title: req.SourceTitle, URL: req.SourceURL, FaviconDataURI: req.FaviconDataURI}
	var (
		sel capture.Selection
		err error
	)
	switch {
	case body.Markdown != "":
		sel, err = capture.FromMarkdown([]byte(body.Markdown), page)
	case req.HTML != "":
		sel, err = capture.FromHTML(req.HTML, page)
	default:
		sel, err = capture.FromText(req.Text, page)
	}
	switch {
	case err == nil:
		req.HTML = sel.HTML
		if req.Text == "" {
			req.Text = sel.Text
		}
	case errors.Is(err, capture.ErrNoSelection):
		req.HTML = ""
	default:
		log.WithError(err).Debug("selection unusable, rendering text only")
		req.HTML = ""
	}

	writeJSON(w, http.StatusOK, h.deps.Renderer.Render(req))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request and counts status codes.
func requestLogger(log logrus.FieldLogger, rec StatusRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if rec != nil {
				rec.RecordHTTPStatus(status)
			}
			entry := log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
				"http_id":     middleware.GetReqID(r.Context()),
			})
			switch {
			case status >= 500:
				entry.Error("http request")
			case status >= 400:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
		})
	}
}
