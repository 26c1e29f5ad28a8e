// Package httpapi implements the HTTP surface of §6: the REST endpoints the
// orchestrator is driven through, request-id-tagged structured logging, and
// the body-limit/CORS/recover middleware chain. Grounded on the
// reference service's internal/httpapi/server.go mux-and-middleware shape,
// generalized from its team/task CRUD surface to task-orchestrator endpoints.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orchestrator"
	"github.com/ovokpus/PostAssist/internal/searchclient"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Addr           string
	Dev            bool // if true, permissive CORS for a local frontend dev server
	MetricsHandler http.Handler
	UseOtelHTTP    bool
	Version        string
	LLM            llmclient.Client
	Search         searchclient.Client
}

// App holds the built HTTP server and the pieces a caller may want to reach
// directly (e.g. to call Shutdown on the Orchestrator during graceful drain).
type App struct {
	Server       *http.Server
	Hub          *SSEHub
	Orchestrator *orchestrator.Orchestrator
}

// NewApp builds the HTTP app: route table, middleware chain, and a fresh SSE
// hub in App.Hub. Stream requests read App.Hub when they arrive, so a caller
// replaces it with the hub whose Publish the Orchestrator was built with.
func NewApp(o *orchestrator.Orchestrator, opts ServerOptions) *App {
	app := &App{Hub: NewSSEHub(), Orchestrator: o}
	mux := http.NewServeMux()

	h := &handlers{orch: o, app: app, opts: opts}

	mux.HandleFunc("/generate-post", h.generatePost)
	mux.HandleFunc("/status/", h.statusOrStream)
	mux.HandleFunc("/tasks", h.listTasks)
	mux.HandleFunc("/verify-post", h.verifyPost)
	mux.HandleFunc("/batch-generate", h.batchGenerate)
	mux.HandleFunc("/batch/", h.getBatch)
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/", h.health) // root alias, per §6

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	handler = recoverMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "postassist")
	}

	app.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // the SSE stream handler manages its own lifetime
		IdleTimeout:       60 * time.Second,
	}
	return app
}

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more
// than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware assigns (or propagates) an X-Request-Id on every
// response, per §6: "Every response carries a X-Request-Id header; the same
// ID appears in every log line emitted while handling that request."
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = randomHex(8)
		}
		w.Header().Set("X-Request-Id", id)
		ctx := withRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverMiddleware turns a panic anywhere downstream into a 500 response
// instead of killing the connection, logging it with the request's ID.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"request_id", requestIDFrom(r.Context()),
					"path", r.URL.Path,
					"panic", rec)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", rec.Header().Get("X-Request-Id"))
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
