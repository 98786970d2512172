// Package proxy implements the transparent HTTP proxy between OpenAI-style
// chat clients and the Gemini OpenAI-compatible endpoint.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/n0madic/go-geminiproxy/internal/config"
	"github.com/n0madic/go-geminiproxy/internal/upstream"
)

// upstreamDoer abstracts the provider client so the proxy handlers can be
// tested with a mock without a real network connection.
type upstreamDoer interface {
	Do(context.Context, *upstream.Request) (*upstream.Response, error)
}

// Server is the main proxy HTTP server.
type Server struct {
	Config         *config.ServerConfig
	httpServer     *http.Server
	upstreamClient upstreamDoer
	debugDumpMu    sync.Mutex
}

// New creates a new proxy server with both routes registered.
func New(cfg *config.ServerConfig) *Server {
	s := &Server{
		Config:         cfg,
		upstreamClient: upstream.NewClient(config.UpstreamOrigin, cfg.Verbose, cfg.Debug),
	}

	mux := http.NewServeMux()

	// The chat completions route owns model gating and path correction; every
	// other method and path falls through to the passthrough.
	mux.HandleFunc("POST "+config.ChatCompletionsPath, s.handleChatCompletions)
	mux.HandleFunc("/", s.handlePassthrough)

	handler := s.requestIDMiddleware(s.verboseMiddleware(s.debugMiddleware(mux)))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
		// Responses stream for as long as the upstream keeps talking, so only
		// header reads get a deadline.
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// ListenAndServe starts the proxy server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDMiddleware tags every request with an ID so log lines from one
// exchange can be correlated. An inbound X-Request-ID is reused when present.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFromContext returns the ID assigned by requestIDMiddleware, or ""
// outside of it.
func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func (s *Server) verboseMiddleware(next http.Handler) http.Handler {
	if s.Config == nil || !s.Config.Verbose {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
		)
		next.ServeHTTP(w, r)
	})
}

// redactedAuthorization stands in for the Authorization value in debug dumps
// so credentials never reach the log stream.
const redactedAuthorization = "REDACTED"

func (s *Server) debugMiddleware(next http.Handler) http.Handler {
	if s.Config == nil || !s.Config.Debug {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		if authorization != "" {
			r.Header.Set("Authorization", redactedAuthorization)
		}
		dump, err := httputil.DumpRequest(r, true)
		if authorization != "" {
			r.Header.Set("Authorization", authorization)
		}
		if err != nil {
			slog.Error("request.dump.failed", "method", r.Method, "path", r.URL.Path, "error", err)
		} else {
			slog.Info("request.dump", "method", r.Method, "path", r.URL.Path)
			s.writeDebugDumpBlock("INBOUND REQUEST", dump)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeDebugDumpBlock(title string, data []byte) {
	if s == nil {
		return
	}
	s.debugDumpMu.Lock()
	defer s.debugDumpMu.Unlock()

	header := "===== " + strings.TrimSpace(title) + " BEGIN =====\n"
	footer := "===== " + strings.TrimSpace(title) + " END =====\n"

	if _, err := os.Stderr.WriteString(header); err != nil {
		slog.Error("debug.dump.write.failed", "title", title, "error", err)
		return
	}
	if len(data) > 0 {
		if _, err := os.Stderr.Write(data); err != nil {
			slog.Error("debug.dump.write.failed", "title", title, "error", err)
			return
		}
		if data[len(data)-1] != '\n' {
			if _, err := os.Stderr.WriteString("\n"); err != nil {
				slog.Error("debug.dump.write.failed", "title", title, "error", err)
				return
			}
		}
	}
	if _, err := os.Stderr.WriteString(footer); err != nil {
		slog.Error("debug.dump.write.failed", "title", title, "error", err)
	}
}
