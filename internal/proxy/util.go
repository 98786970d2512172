package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/n0madic/go-geminiproxy/internal/types"
	"github.com/n0madic/go-geminiproxy/internal/upstream"
)

// maxBodyBytes caps incoming request bodies. Tool-result histories can be
// large, so the limit is generous.
const maxBodyBytes = 50 * 1024 * 1024 // 50 MB

// bodilessMethods lists the methods that never carry a forwarded body, even
// when the client sent one.
var bodilessMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodDelete:  true,
	http.MethodTrace:   true,
	http.MethodConnect: true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	slog.Error("request failed", "status", status, "type", errType, "error", message)
	writeJSON(w, status, types.ErrorResponse{Error: types.ErrorDetail{Type: errType, Message: message}})
}

// readLimitedRequestBody drains the inbound body under the size cap. A body
// over the cap, like any other read failure, still gets a structured error
// response instead of a dropped connection.
func readLimitedRequestBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadGateway, errTypeInvalidRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// forwardHeaders copies the named inbound headers, skipping any that are
// absent or empty. Everything else, Host and Content-Length included, is left
// for the outbound client to set.
func forwardHeaders(inbound http.Header, names ...string) http.Header {
	out := http.Header{}
	for _, name := range names {
		if value := inbound.Get(name); value != "" {
			out.Set(name, value)
		}
	}
	return out
}

// forwardUpstream issues the outbound call and relays whatever comes back.
// Failures reaching the upstream become a structured 502; non-2xx upstream
// statuses are not errors and pass through untouched.
func (s *Server) forwardUpstream(w http.ResponseWriter, r *http.Request, upReq *upstream.Request) {
	resp, err := s.upstreamClient.Do(r.Context(), upReq)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	defer resp.Body.Body.Close()

	if s.Config != nil && s.Config.Verbose {
		slog.Info("response",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"request_id", requestIDFromContext(r.Context()),
		)
	}

	streamResponse(w, resp)
}

// streamResponse relays status and Content-Type verbatim and copies the body
// chunk-by-chunk, flushing after every read so streamed formats reach the
// client without buffering.
func streamResponse(w http.ResponseWriter, resp *upstream.Response) {
	if contentType := resp.Headers.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}
