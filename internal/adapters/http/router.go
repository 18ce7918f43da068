package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kirillkom/docs-backend/internal/config"
	"github.com/kirillkom/docs-backend/internal/core/ports"
	"github.com/kirillkom/docs-backend/internal/observability/metrics"
)

const (
	serviceName     = "docs-api"
	maxJSONBody     = 1 << 20
	multipartMemory = 8 << 20
)

type Services struct {
	Accounts   ports.AccountService
	Documents  ports.DocumentService
	Ingestor   ports.DocumentIngestor
	Summarizer ports.DocumentSummarizer
}

type Option func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

// WithReadiness sets the check behind /readyz, usually a database ping.
func WithReadiness(check func(context.Context) error) Option {
	return func(rt *Router) { rt.ready = check }
}

// WithStorageBackend names the object storage backend in upload metrics.
func WithStorageBackend(name string) Option {
	return func(rt *Router) { rt.backend = name }
}

type Router struct {
	cfg config.Config

	accounts   ports.AccountService
	documents  ports.DocumentService
	ingestor   ports.DocumentIngestor
	summarizer ports.DocumentSummarizer

	backend   string
	ready     func(context.Context) error
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator
}

func NewRouter(cfg config.Config, services Services, opts ...Option) *Router {
	rt := &Router{
		cfg:        cfg,
		accounts:   services.Accounts,
		documents:  services.Documents,
		ingestor:   services.Ingestor,
		summarizer: services.Summarizer,
		backend:    "local",
	}
	for _, opt := range opts {
		opt(rt)
	}
	if cfg.OpenAPIValidation {
		validator, err := newRequestValidator()
		if err != nil {
			panic(fmt.Sprintf("embedded openapi document: %v", err))
		}
		rt.validator = validator
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /readyz", rt.readyz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /users", rt.register)
	mux.HandleFunc("POST /auth/login", rt.login)
	mux.HandleFunc("POST /auth/logout", rt.logout)
	mux.HandleFunc("GET /protected", rt.requireUser(rt.protected))

	mux.HandleFunc("POST /documents", rt.requireUser(rt.createDocument))
	mux.HandleFunc("GET /documents", rt.requireUser(rt.listDocuments))
	mux.HandleFunc("POST /documents/upload", rt.requireUser(rt.uploadDocument))
	mux.HandleFunc("GET /documents/{id}", rt.requireUser(rt.getDocument))
	mux.HandleFunc("PATCH /documents/{id}", rt.requireUser(rt.updateDocument))
	mux.HandleFunc("DELETE /documents/{id}", rt.requireUser(rt.deleteDocument))
	mux.HandleFunc("GET /documents/{id}/file", rt.requireUser(rt.downloadFile))
	mux.HandleFunc("POST /documents/{id}/summary", rt.requireUser(rt.summarizeDocument))

	var handler http.Handler = mux
	if rt.validator != nil {
		handler = rt.validator.Middleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlightRequests, 250*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return corsMiddleware(rt.cfg.CORSAllowedOrigins, handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "detail": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
