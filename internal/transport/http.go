package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/avvvet/intentbot/internal/handlers"
	"github.com/avvvet/intentbot/internal/models"
	"github.com/avvvet/intentbot/internal/stats"
	"github.com/avvvet/intentbot/web"
	"github.com/google/uuid"
)

// maxFormMemory bounds multipart parsing of POST /chat.
const maxFormMemory = 1 << 20

// HTTPServer serves the chat page and the chat API.
type HTTPServer struct {
	addr      string
	handler   *handlers.ChatHandler
	stats     stats.Store
	intents   int
	startTime time.Time
	logger    *slog.Logger
}

// NewHTTPServer creates an HTTPServer. intents is reported by /healthz.
func NewHTTPServer(addr string, handler *handlers.ChatHandler, store stats.Store, intents int, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		addr:      addr,
		handler:   handler,
		stats:     store,
		intents:   intents,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Handler returns the routed handler, wrapped with request logging.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	return s.withRequestID(mux)
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start listener so we can log the actual port.
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.logger.Info("http server started", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(web.Index)
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	values, ok := r.PostForm["message"]
	if !ok || len(values) == 0 {
		http.Error(w, "missing form field: message", http.StatusBadRequest)
		return
	}

	reply := s.handler.ProcessMessage(r.Context(), values[0])
	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply.Response})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"intents":        s.intents,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("failed to read stats", "err", err)
		http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID tags each request with an X-Request-ID (kept if the client
// sent one) and logs one line per request.
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
